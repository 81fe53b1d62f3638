package release

import (
	"context"
	"io"
	"testing"

	"github.com/sofmeright/slipway/src/build"
	"github.com/sofmeright/slipway/src/config"
	"github.com/sofmeright/slipway/src/event"
	"github.com/sofmeright/slipway/src/pipeline"
)

func testConfig() *config.Config {
	return &config.Config{
		Trigger: config.DefaultTriggerConfig(),
		Image:   config.DefaultImageConfig(),
	}
}

func testOptions(cfg *config.Config) Options {
	return Options{
		Cfg:    cfg,
		Buildx: build.NewBuildx(false),
		Out:    io.Discard,
	}
}

func TestStepsOrderAndFlags(t *testing.T) {
	cfg := testConfig()
	cfg.Image.Repository = "docker.io/acme/gcp-ddns"

	steps := Steps(testOptions(cfg))

	wantOrder := []string{
		StepCheckout, StepSecrets, StepSetupBuilder, StepReportPlatform,
		StepAuthenticate, StepBuildPush, StepInspect,
	}
	if len(steps) != len(wantOrder) {
		t.Fatalf("steps = %d, want %d", len(steps), len(wantOrder))
	}
	for i, name := range wantOrder {
		if steps[i].Name != name {
			t.Errorf("steps[%d] = %s, want %s", i, steps[i].Name, name)
		}
	}

	byName := map[string]pipeline.StepSpec{}
	for _, s := range steps {
		byName[s.Name] = s
	}

	// The authenticate step must come strictly before build-and-push, and
	// only build-and-push and inspect survive an earlier fatal failure.
	if !byName[StepBuildPush].Always {
		t.Error("build-and-push must be flagged always")
	}
	if !byName[StepInspect].Always || !byName[StepInspect].BestEffort {
		t.Error("inspect must be always and best-effort")
	}
	if byName[StepAuthenticate].Always || byName[StepAuthenticate].BestEffort {
		t.Error("authenticate must be fatal and abortable")
	}
	if !byName[StepReportPlatform].BestEffort || byName[StepReportPlatform].Always {
		t.Error("report-platforms must be best-effort and not always")
	}
	if !byName[StepSecrets].BestEffort {
		t.Error("preflight-secrets must be best-effort")
	}
}

func TestStepsSecretsDisabled(t *testing.T) {
	cfg := testConfig()
	off := false
	cfg.Preflight.Secrets = &off

	for _, s := range Steps(testOptions(cfg)) {
		if s.Name == StepSecrets {
			t.Error("preflight-secrets assembled despite being disabled")
		}
	}
}

func TestStepsGuardsForPullRequest(t *testing.T) {
	cfg := testConfig()
	steps := Steps(testOptions(cfg))

	pr := &event.TriggerEvent{Kind: event.KindPullRequest, Ref: "main"}
	push := &event.TriggerEvent{Kind: event.KindPush, Ref: "main"}

	for _, s := range steps {
		switch s.Name {
		case StepAuthenticate, StepInspect:
			if s.Guard == nil || s.Guard(pr, nil) {
				t.Errorf("%s guard admits pull requests", s.Name)
			}
			if !s.Guard(push, nil) {
				t.Errorf("%s guard rejects push events", s.Name)
			}
		default:
			if s.Guard != nil && !s.Guard(pr, nil) {
				t.Errorf("%s guard rejects pull requests", s.Name)
			}
		}
	}
}

// priorFor runs dummy steps that mimic earlier outputs and hands the
// resulting view to fn.
func priorFor(t *testing.T, outputs map[string]map[string]string, fn func(prior *pipeline.Results)) {
	t.Helper()

	var steps []pipeline.StepSpec
	for _, name := range []string{StepCheckout, StepSetupBuilder} {
		name := name
		steps = append(steps, pipeline.StepSpec{
			Name: name,
			Action: func(context.Context, *event.TriggerEvent, *pipeline.Results) (map[string]string, error) {
				return outputs[name], nil
			},
		})
	}
	steps = append(steps, pipeline.StepSpec{
		Name: "probe",
		Action: func(_ context.Context, _ *event.TriggerEvent, prior *pipeline.Results) (map[string]string, error) {
			fn(prior)
			return nil, nil
		},
	})

	ev := &event.TriggerEvent{Kind: event.KindPush, Ref: "main"}
	pipeline.Execute(context.Background(), steps, ev)
}

func TestBuildStepResolution(t *testing.T) {
	cfg := testConfig()
	cfg.Image.Repository = "docker.io/acme/gcp-ddns"
	root := t.TempDir()

	outputs := map[string]map[string]string{
		StepCheckout:     {OutputSHA: "abc1234"},
		StepSetupBuilder: {OutputPlatforms: "linux/amd64,linux/arm64"},
	}

	priorFor(t, outputs, func(prior *pipeline.Results) {
		// Tag push: platforms from the builder, latest + version tags, push on.
		ev := &event.TriggerEvent{Kind: event.KindTagPush, Ref: "v1.2.0"}
		step := buildStep(cfg, root, ev, prior)

		if len(step.Platforms) != 2 || step.Platforms[0] != "linux/amd64" {
			t.Errorf("platforms = %v", step.Platforms)
		}
		wantTags := map[string]bool{
			"docker.io/acme/gcp-ddns:latest": true,
			"docker.io/acme/gcp-ddns:v1.2.0": true,
		}
		for _, tag := range step.Tags {
			if !wantTags[tag] {
				t.Errorf("unexpected tag %q", tag)
			}
			delete(wantTags, tag)
		}
		for tag := range wantTags {
			t.Errorf("missing tag %q", tag)
		}
		if !step.Push {
			t.Error("tag push must push")
		}
		if step.Labels["org.opencontainers.image.version"] != "v1.2.0" {
			t.Errorf("version label = %q", step.Labels["org.opencontainers.image.version"])
		}
		if step.Labels["org.opencontainers.image.revision"] != "abc1234" {
			t.Errorf("revision label = %q", step.Labels["org.opencontainers.image.revision"])
		}

		// Pull request: same build, no push.
		pr := &event.TriggerEvent{Kind: event.KindPullRequest, Ref: "main"}
		step = buildStep(cfg, root, pr, prior)
		if step.Push {
			t.Error("pull request build must not push")
		}
		for _, tag := range step.Tags {
			if tag == "docker.io/acme/gcp-ddns:main" {
				t.Error("pull request grew a version tag")
			}
		}
	})
}

func TestBuildStepConfigPlatformsWin(t *testing.T) {
	cfg := testConfig()
	cfg.Image.Repository = "docker.io/acme/app"
	cfg.Image.Platforms = []string{"linux/amd64"}

	outputs := map[string]map[string]string{
		StepSetupBuilder: {OutputPlatforms: "linux/amd64,linux/arm64,linux/386"},
	}
	priorFor(t, outputs, func(prior *pipeline.Results) {
		ev := &event.TriggerEvent{Kind: event.KindPush, Ref: "main"}
		step := buildStep(cfg, t.TempDir(), ev, prior)
		if len(step.Platforms) != 1 || step.Platforms[0] != "linux/amd64" {
			t.Errorf("configured platforms overridden: %v", step.Platforms)
		}
	})
}
