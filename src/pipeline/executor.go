package pipeline

import (
	"context"
	"time"

	"github.com/sofmeright/slipway/src/event"
)

// Execute runs the steps in declared order against the classified event.
//
// Semantics:
//   - Guard false → skipped, never invoked.
//   - Action error → failed. A non-best-effort failure aborts the rest of
//     the sequence; aborted steps are recorded skipped, except steps with
//     Always=true, which still evaluate their guard and may run.
//   - Steps run strictly sequentially; step N+1 never starts before step N
//     is resolved, because later guards and actions read earlier outputs.
//
// Step failures never surface as an error from Execute — they are folded
// into StepResults and the overall outcome. Outcome is failure iff a
// non-best-effort, non-skipped step failed.
func Execute(ctx context.Context, steps []StepSpec, ev *event.TriggerEvent) *Run {
	run := &Run{Event: ev, Outcome: OutcomeSuccess}
	prior := &Results{}

	aborted := false
	for _, spec := range steps {
		res := StepResult{Name: spec.Name}

		switch {
		case aborted && !spec.Always:
			res.Status = StatusSkipped

		case spec.Guard != nil && !spec.Guard(ev, prior):
			res.Status = StatusSkipped

		default:
			start := time.Now()
			outputs, err := spec.Action(ctx, ev, prior)
			res.Duration = time.Since(start)
			res.Outputs = outputs

			if err != nil {
				res.Status = StatusFailed
				res.Err = &StepExecutionError{Step: spec.Name, Err: err}
				if !spec.BestEffort {
					run.Outcome = OutcomeFailure
					aborted = true
				}
			} else {
				res.Status = StatusSuccess
			}
		}

		run.Steps = append(run.Steps, res)
		prior.steps = append(prior.steps, res)
	}

	return run
}
