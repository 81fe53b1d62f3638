package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sofmeright/slipway/src/build"
	"github.com/sofmeright/slipway/src/output"
	"github.com/sofmeright/slipway/src/pipeline"
	"github.com/sofmeright/slipway/src/release"
)

var (
	runRootDir  string
	runCloneURL string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Classify the trigger and run the build/push/inspect pipeline",
	Long: `Classify the triggering event, then run the fixed step sequence:
checkout, preflight secret scan, builder setup, platform report, registry
login (non-PR only), build and push, and digest inspection.

The command exits non-zero when the run's outcome is failure.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&runRootDir, "root", "", "repository root (default: working directory)")
	runCmd.Flags().StringVar(&runCloneURL, "clone-url", "", "clone URL used when --root is not already a repository")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	rootDir := runRootDir
	if rootDir == "" {
		var err error
		rootDir, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
	}

	ev, err := classifyEvent()
	if err != nil {
		return err
	}

	if cfg.Image.Repository == "" {
		return fmt.Errorf("image.repository is not configured")
	}

	// SIGTERM lands first on the orchestrator inside containers; treat it
	// like Ctrl-C and let contexts unwind the external tools.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Timeout))
		defer cancel()
	}

	w := os.Stdout
	color := output.UseColor()
	start := time.Now()

	output.ContextBlock(w, output.RunContext())

	bx := build.NewBuildx(verbose)

	output.SectionStart(w, "slipway_run", "Pipeline")
	run := pipeline.Execute(ctx, release.Steps(release.Options{
		Cfg:      cfg,
		RootDir:  rootDir,
		CloneURL: runCloneURL,
		Buildx:   bx,
		Out:      w,
	}), ev)
	output.SectionEnd(w, "slipway_run")

	output.Report(w, run, time.Since(start), color)

	if run.Outcome == pipeline.OutcomeFailure {
		return fmt.Errorf("pipeline failed")
	}
	return nil
}
