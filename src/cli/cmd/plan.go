package cmd

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sofmeright/slipway/src/build"
	"github.com/sofmeright/slipway/src/output"
	"github.com/sofmeright/slipway/src/release"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the step sequence for the classified event without executing",
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ev, err := classifyEvent()
	if err != nil {
		return err
	}

	steps := release.Steps(release.Options{
		Cfg:    cfg,
		Buildx: build.NewBuildx(verbose),
		Out:    io.Discard,
	})

	w := os.Stdout
	color := output.UseColor()

	sec := output.NewSection(w, "Plan", 0, color)
	sec.Row("%-18s%s", "trigger", ev.String())
	sec.Separator()

	for _, step := range steps {
		verdict := "run"
		if step.Guard != nil && !step.Guard(ev, nil) {
			verdict = "skip"
		}

		var flags string
		if step.Always {
			flags += " always"
		}
		if step.BestEffort {
			flags += " best-effort"
		}
		sec.Row("%-18s%-6s%s", step.Name, verdict, output.Dimmed(flags, color))
	}
	sec.Close()

	return nil
}
