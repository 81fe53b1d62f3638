package build

import (
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"testing"
)

// fakeRunner records docker invocations and scripts their behavior.
type fakeRunner struct {
	calls   [][]string
	respond func(args []string, stdin io.Reader, stdout io.Writer) error
}

func (f *fakeRunner) Run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	f.calls = append(f.calls, args)
	if f.respond != nil {
		return f.respond(args, stdin, stdout)
	}
	return nil
}

func newTestBuildx(r *fakeRunner) *Buildx {
	return &Buildx{Stdout: io.Discard, Stderr: io.Discard, runner: r}
}

func TestBuildArgs(t *testing.T) {
	bx := newTestBuildx(&fakeRunner{})
	step := BuildStep{
		Dockerfile: "Dockerfile",
		Context:    ".",
		Platforms:  []string{"linux/amd64", "linux/arm64"},
		BuildArgs:  map[string]string{"VERSION": "1.2.0"},
		Labels:     map[string]string{"org.opencontainers.image.title": "gcp-ddns"},
		Tags:       []string{"docker.io/acme/gcp-ddns:latest"},
		Push:       true,
	}

	got := bx.buildArgs(step, "/tmp/meta.json")
	want := []string{
		"buildx", "build",
		"--file", "Dockerfile",
		"--platform", "linux/amd64,linux/arm64",
		"--build-arg", "VERSION=1.2.0",
		"--label", "org.opencontainers.image.title=gcp-ddns",
		"--tag", "docker.io/acme/gcp-ddns:latest",
		"--push",
		"--metadata-file", "/tmp/meta.json",
		".",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buildArgs:\n got %v\nwant %v", got, want)
	}
}

func TestBuildArgsNoPushDefaultsContext(t *testing.T) {
	bx := newTestBuildx(&fakeRunner{})
	got := bx.buildArgs(BuildStep{Tags: []string{"app:latest"}}, "/tmp/m.json")

	joined := strings.Join(got, " ")
	if strings.Contains(joined, "--push") {
		t.Errorf("pull-request style build must not push: %v", got)
	}
	if got[len(got)-1] != "." {
		t.Errorf("default context = %q, want .", got[len(got)-1])
	}
}

func TestParsePlatforms(t *testing.T) {
	inspect := `Name:   slipway
Driver: docker-container

Nodes:
Name:      slipway0
Endpoint:  unix:///var/run/docker.sock
Status:    running
Platforms: linux/amd64, linux/arm64, linux/arm/v7, linux/386
`
	got := parsePlatforms(inspect)
	want := []string{"linux/amd64", "linux/arm64", "linux/arm/v7", "linux/386"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parsePlatforms = %v, want %v", got, want)
	}

	if parsePlatforms("no such line") != nil {
		t.Error("parsePlatforms on garbage should return nil")
	}
}

func TestSetupBuilderCreatesWhenMissing(t *testing.T) {
	r := &fakeRunner{
		respond: func(args []string, _ io.Reader, stdout io.Writer) error {
			switch {
			case reflect.DeepEqual(args, []string{"buildx", "inspect", "slipway"}):
				return fmt.Errorf("no such builder")
			case reflect.DeepEqual(args, []string{"buildx", "inspect", "--bootstrap"}):
				fmt.Fprintln(stdout, "Platforms: linux/amd64, linux/arm64")
				return nil
			default:
				return nil
			}
		},
	}

	platforms, err := newTestBuildx(r).SetupBuilder(context.Background())
	if err != nil {
		t.Fatalf("SetupBuilder: %v", err)
	}
	if !reflect.DeepEqual(platforms, []string{"linux/amd64", "linux/arm64"}) {
		t.Errorf("platforms = %v", platforms)
	}

	var created bool
	for _, call := range r.calls {
		if len(call) >= 2 && call[0] == "buildx" && call[1] == "create" {
			created = true
		}
	}
	if !created {
		t.Error("missing builder was not created")
	}
}

func TestLoginSendsPasswordOverStdin(t *testing.T) {
	var sawArgs []string
	var sawStdin string
	r := &fakeRunner{
		respond: func(args []string, stdin io.Reader, _ io.Writer) error {
			sawArgs = args
			data, _ := io.ReadAll(stdin)
			sawStdin = string(data)
			return nil
		},
	}

	if err := newTestBuildx(r).Login(context.Background(), "docker.io", "acme", "hunter2"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if strings.Contains(strings.Join(sawArgs, " "), "hunter2") {
		t.Errorf("password leaked into argv: %v", sawArgs)
	}
	if sawStdin != "hunter2" {
		t.Errorf("stdin = %q, want password", sawStdin)
	}
}

func TestBuildReadsDigestFromMetadata(t *testing.T) {
	r := &fakeRunner{
		respond: func(args []string, _ io.Reader, _ io.Writer) error {
			for i, a := range args {
				if a == "--metadata-file" && i+1 < len(args) {
					return os.WriteFile(args[i+1],
						[]byte(`{"containerimage.digest":"sha256:abc123"}`), 0o644)
				}
			}
			return fmt.Errorf("no metadata file in args")
		},
	}

	digest, err := newTestBuildx(r).Build(context.Background(), BuildStep{Tags: []string{"app:latest"}})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if digest != "sha256:abc123" {
		t.Errorf("digest = %q", digest)
	}
}

func TestBuildFailsWithoutDigest(t *testing.T) {
	r := &fakeRunner{
		respond: func(args []string, _ io.Reader, _ io.Writer) error {
			for i, a := range args {
				if a == "--metadata-file" && i+1 < len(args) {
					return os.WriteFile(args[i+1], []byte(`{}`), 0o644)
				}
			}
			return nil
		},
	}

	if _, err := newTestBuildx(r).Build(context.Background(), BuildStep{}); err == nil {
		t.Fatal("metadata without digest should error")
	}
}
