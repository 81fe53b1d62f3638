package output

import (
	"io"
	"sort"
	"time"

	"github.com/sofmeright/slipway/src/pipeline"
)

// Report renders a finished pipeline run: one row per step with its status
// and selected outputs, then the overall outcome. This is the run's entire
// user-visible record; nothing is persisted.
func Report(w io.Writer, run *pipeline.Run, elapsed time.Duration, color bool) {
	sec := NewSection(w, "Pipeline", elapsed, color)
	sec.Row("%-18s%s", "trigger", run.Event.String())
	sec.Separator()

	for _, step := range run.Steps {
		SummaryRow(w, step.Name, string(step.Status), stepDetail(step), color)
	}

	sec.Separator()
	SummaryTotal(w, elapsed, outcomeStatus(run), color)
	sec.Close()
}

func outcomeStatus(run *pipeline.Run) string {
	if run.Outcome == pipeline.OutcomeSuccess {
		return "success"
	}
	return "failed"
}

// stepDetail picks what a step's summary row shows: its error when failed,
// otherwise its outputs in stable order.
func stepDetail(step pipeline.StepResult) string {
	if step.Err != nil {
		return step.Err.Error()
	}
	if len(step.Outputs) == 0 {
		return ""
	}

	keys := make([]string, 0, len(step.Outputs))
	for k := range step.Outputs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	detail := ""
	for i, k := range keys {
		if i > 0 {
			detail += "  "
		}
		detail += k + "=" + step.Outputs[k]
	}
	return detail
}
