package build

import (
	"context"
	"io"
	"os/exec"
)

// commandRunner abstracts the docker binary so tests can fake invocations.
type commandRunner interface {
	Run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	cmd := exec.CommandContext(ctx, "docker", args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

func (bx *Buildx) run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args ...string) error {
	r := bx.runner
	if r == nil {
		r = execRunner{}
	}
	return r.Run(ctx, stdin, stdout, stderr, args...)
}
