// Package build wraps the docker buildx CLI: builder provisioning, registry
// login, and the image build itself. This is the only package that invokes
// external tools besides git.
package build

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const builderName = "slipway"

// Buildx wraps docker buildx commands.
type Buildx struct {
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer

	// runner is swapped out in tests. Defaults to exec'ing docker.
	runner commandRunner
}

// NewBuildx creates a Buildx runner with default output writers.
func NewBuildx(verbose bool) *Buildx {
	return &Buildx{
		Verbose: verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		runner:  execRunner{},
	}
}

// SetupBuilder provisions a multi-platform buildx builder and returns the
// platforms it can target. Creates the builder if missing, then bootstraps
// it so the platform list reflects reality (including QEMU-emulated arches).
func (bx *Buildx) SetupBuilder(ctx context.Context) ([]string, error) {
	if err := bx.run(ctx, nil, io.Discard, io.Discard, "buildx", "inspect", builderName); err != nil {
		if err := bx.run(ctx, nil, bx.Stderr, bx.Stderr,
			"buildx", "create", "--use", "--name", builderName); err != nil {
			return nil, fmt.Errorf("creating buildx builder: %w", err)
		}
	} else if err := bx.run(ctx, nil, io.Discard, io.Discard, "buildx", "use", builderName); err != nil {
		return nil, fmt.Errorf("selecting buildx builder: %w", err)
	}

	var out bytes.Buffer
	if err := bx.run(ctx, nil, &out, bx.Stderr, "buildx", "inspect", "--bootstrap"); err != nil {
		return nil, fmt.Errorf("bootstrapping buildx builder: %w", err)
	}

	platforms := parsePlatforms(out.String())
	if len(platforms) == 0 {
		return nil, fmt.Errorf("buildx inspect reported no platforms")
	}
	return platforms, nil
}

// Login authenticates the docker CLI against a registry host. The password
// travels over stdin, never through argv.
func (bx *Buildx) Login(ctx context.Context, host, username, password string) error {
	stdin := strings.NewReader(password)
	if err := bx.run(ctx, stdin, io.Discard, io.Discard,
		"login", host, "--username", username, "--password-stdin"); err != nil {
		return fmt.Errorf("logging into %s as %s: %w", host, username, err)
	}
	return nil
}

// Build executes a buildx build and returns the content digest of the result.
// The digest comes from buildx's metadata file, which is the only reliable
// source for multi-platform pushes.
func (bx *Buildx) Build(ctx context.Context, step BuildStep) (string, error) {
	metaDir, err := os.MkdirTemp("", "slipway-build-")
	if err != nil {
		return "", fmt.Errorf("creating metadata dir: %w", err)
	}
	defer os.RemoveAll(metaDir)
	metaFile := filepath.Join(metaDir, "metadata.json")

	args := bx.buildArgs(step, metaFile)

	if bx.Verbose {
		if IsMultiPlatform(step) {
			fmt.Fprintf(bx.Stderr, "multi-platform build: %s\n", strings.Join(step.Platforms, ", "))
		}
		fmt.Fprintf(bx.Stderr, "exec: docker %s\n", strings.Join(args, " "))
	}

	if err := bx.run(ctx, nil, bx.Stdout, bx.Stderr, args...); err != nil {
		return "", fmt.Errorf("docker buildx build failed: %w", err)
	}

	return readDigest(metaFile)
}

// buildArgs constructs the docker buildx build argument list.
func (bx *Buildx) buildArgs(step BuildStep, metaFile string) []string {
	args := []string{"buildx", "build"}

	if step.Dockerfile != "" {
		args = append(args, "--file", step.Dockerfile)
	}
	if step.Target != "" {
		args = append(args, "--target", step.Target)
	}
	if len(step.Platforms) > 0 {
		args = append(args, "--platform", strings.Join(step.Platforms, ","))
	}

	for _, k := range sortedKeys(step.BuildArgs) {
		args = append(args, "--build-arg", fmt.Sprintf("%s=%s", k, step.BuildArgs[k]))
	}
	for _, k := range sortedKeys(step.Labels) {
		args = append(args, "--label", fmt.Sprintf("%s=%s", k, step.Labels[k]))
	}
	for _, tag := range step.Tags {
		args = append(args, "--tag", tag)
	}

	if step.Push {
		args = append(args, "--push")
	}
	args = append(args, "--metadata-file", metaFile)

	buildContext := step.Context
	if buildContext == "" {
		buildContext = "."
	}
	args = append(args, buildContext)

	return args
}

// readDigest pulls containerimage.digest out of a buildx metadata file.
func readDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading build metadata: %w", err)
	}

	var meta struct {
		Digest string `json:"containerimage.digest"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return "", fmt.Errorf("decoding build metadata: %w", err)
	}
	if meta.Digest == "" {
		return "", fmt.Errorf("build metadata has no containerimage.digest")
	}
	return meta.Digest, nil
}

// parsePlatforms extracts the Platforms line from buildx inspect output.
func parsePlatforms(inspect string) []string {
	for _, line := range strings.Split(inspect, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Platforms:") {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(line, "Platforms:"))
		var platforms []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				platforms = append(platforms, p)
			}
		}
		return platforms
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
