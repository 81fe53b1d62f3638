// Package release defines the build/push/inspect pipeline: the ordered,
// guarded steps that turn a classified trigger event into a pushed image and
// an inspected digest.
package release

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sofmeright/slipway/src/build"
	"github.com/sofmeright/slipway/src/config"
	"github.com/sofmeright/slipway/src/event"
	"github.com/sofmeright/slipway/src/pipeline"
	"github.com/sofmeright/slipway/src/preflight"
	"github.com/sofmeright/slipway/src/project"
	"github.com/sofmeright/slipway/src/registry"
	"github.com/sofmeright/slipway/src/scm"
)

// Step and output names, fixed so later steps and the report can refer to
// earlier ones.
const (
	StepCheckout       = "checkout"
	StepSecrets        = "preflight-secrets"
	StepSetupBuilder   = "setup-builder"
	StepReportPlatform = "report-platforms"
	StepAuthenticate   = "authenticate"
	StepBuildPush      = "build-and-push"
	StepInspect        = "inspect"

	OutputSHA       = "sha"
	OutputPlatforms = "platforms"
	OutputDigest    = "digest"
	OutputSecrets   = "secrets"
	OutputManifest  = "manifest"
)

// Options wires the pipeline's collaborators.
type Options struct {
	Cfg      *config.Config
	RootDir  string
	CloneURL string // used only when RootDir is not already a repository
	Buildx   *build.Buildx
	Out      io.Writer // informational step output (report-platforms)
}

// Steps assembles the fixed step sequence for one run.
//
// The credential gate is consulted inside the authenticate step: a missing
// secret surfaces as that step's (fatal) failure, so earlier steps keep
// their results and Always-flagged steps downstream still attempt.
func Steps(opts Options) []pipeline.StepSpec {
	cfg := opts.Cfg
	bx := opts.Buildx

	// Resolved by authenticate, reused by inspect. Inspect falls back to
	// the ambient keychain when authentication was skipped or failed.
	var creds *registry.Credentials

	steps := []pipeline.StepSpec{
		{
			Name: StepCheckout,
			Action: func(ctx context.Context, ev *event.TriggerEvent, _ *pipeline.Results) (map[string]string, error) {
				sha, err := scm.Checkout(ctx, opts.RootDir, opts.CloneURL, ev)
				if err != nil {
					return nil, err
				}
				return map[string]string{OutputSHA: sha}, nil
			},
		},
	}

	if cfg.Preflight.SecretsEnabled() {
		steps = append(steps, pipeline.StepSpec{
			Name:       StepSecrets,
			BestEffort: true,
			Action: func(ctx context.Context, _ *event.TriggerEvent, _ *pipeline.Results) (map[string]string, error) {
				findings, err := preflight.ScanSecrets(ctx, contextDir(cfg, opts.RootDir))
				if err != nil {
					return nil, err
				}
				outputs := map[string]string{OutputSecrets: preflight.Summary(findings)}
				if len(findings) > 0 {
					return outputs, fmt.Errorf("%d potential secret(s) in build context", len(findings))
				}
				return outputs, nil
			},
		})
	}

	steps = append(steps,
		pipeline.StepSpec{
			Name: StepSetupBuilder,
			Action: func(ctx context.Context, _ *event.TriggerEvent, _ *pipeline.Results) (map[string]string, error) {
				platforms, err := bx.SetupBuilder(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]string{OutputPlatforms: strings.Join(platforms, ",")}, nil
			},
		},
		pipeline.StepSpec{
			Name:       StepReportPlatform,
			BestEffort: true,
			Action: func(_ context.Context, _ *event.TriggerEvent, prior *pipeline.Results) (map[string]string, error) {
				platforms, ok := prior.Output(StepSetupBuilder, OutputPlatforms)
				if !ok {
					return nil, fmt.Errorf("builder recorded no platforms")
				}
				fmt.Fprintf(opts.Out, "available platforms: %s\n", platforms)
				return nil, nil
			},
		},
		pipeline.StepSpec{
			Name:  StepAuthenticate,
			Guard: pipeline.NotPullRequest,
			Action: func(ctx context.Context, ev *event.TriggerEvent, _ *pipeline.Results) (map[string]string, error) {
				c, err := registry.CredentialsFor(ev, cfg.Image.Credentials)
				if err != nil {
					return nil, err
				}
				if err := bx.Login(ctx, cfg.Image.RegistryHost(), c.Username, c.Password); err != nil {
					return nil, err
				}
				creds = c
				return map[string]string{"registry": cfg.Image.RegistryHost()}, nil
			},
		},
		pipeline.StepSpec{
			Name:   StepBuildPush,
			Always: true,
			Action: func(ctx context.Context, ev *event.TriggerEvent, prior *pipeline.Results) (map[string]string, error) {
				step := buildStep(cfg, opts.RootDir, ev, prior)
				digest, err := bx.Build(ctx, step)
				if err != nil {
					return nil, err
				}
				return map[string]string{OutputDigest: digest}, nil
			},
		},
		pipeline.StepSpec{
			Name:       StepInspect,
			Always:     true,
			Guard:      pipeline.NotPullRequest,
			BestEffort: true,
			Action: func(ctx context.Context, _ *event.TriggerEvent, prior *pipeline.Results) (map[string]string, error) {
				if st, ok := prior.Status(StepBuildPush); !ok || st != pipeline.StatusSuccess {
					return nil, fmt.Errorf("nothing to inspect, build did not succeed")
				}
				digest, ok := prior.Output(StepBuildPush, OutputDigest)
				if !ok {
					return nil, fmt.Errorf("build recorded no digest")
				}
				ref := cfg.Image.Repository + "@" + digest
				inspector := &registry.Inspector{Auth: creds}
				info, err := inspector.Inspect(ctx, ref)
				if err != nil {
					return nil, err
				}
				return map[string]string{
					OutputDigest:   info.Digest,
					OutputManifest: describeManifest(info),
				}, nil
			},
		},
	)

	return steps
}

// buildStep resolves the buildx invocation for this event.
//
// Platforms come from the bootstrapped builder when available, otherwise
// from config. Pull requests build without pushing; the build itself still
// runs so PRs keep exercising the Dockerfile.
func buildStep(cfg *config.Config, rootDir string, ev *event.TriggerEvent, prior *pipeline.Results) build.BuildStep {
	img := cfg.Image

	platforms := img.Platforms
	if joined, ok := prior.Output(StepSetupBuilder, OutputPlatforms); ok && len(platforms) == 0 {
		platforms = strings.Split(joined, ",")
	}

	tags := make([]string, 0, len(img.Tags)+1)
	for _, t := range img.Tags {
		tags = append(tags, img.Repository+":"+t)
	}
	if ev.Kind == event.KindTagPush {
		tags = append(tags, img.Repository+":"+ev.Ref)
	}

	step := build.BuildStep{
		Dockerfile: img.Dockerfile,
		Context:    contextDir(cfg, rootDir),
		Target:     img.Target,
		Platforms:  platforms,
		BuildArgs:  img.BuildArgs,
		Tags:       tags,
		Push:       !ev.IsPullRequest(),
	}

	if img.LabelsEnabled() {
		version := ""
		if ev.Kind == event.KindTagPush {
			version = ev.Ref
		}
		revision, _ := prior.Output(StepCheckout, OutputSHA)
		step.Labels = project.Detect(rootDir).Labels(version, revision)
	}

	return step
}

func contextDir(cfg *config.Config, rootDir string) string {
	if cfg.Image.Context == "" || cfg.Image.Context == "." {
		return rootDir
	}
	return cfg.Image.Context
}

func describeManifest(info *registry.ManifestInfo) string {
	parts := make([]string, 0, len(info.Platforms))
	for _, p := range info.Platforms {
		parts = append(parts, p.Platform)
	}
	return fmt.Sprintf("%s (%s)", strings.Join(parts, ", "), info.MediaType)
}
