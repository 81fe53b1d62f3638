// Package pipeline runs an ordered list of guarded steps and collects their
// results. It knows nothing about docker or registries — actions are opaque
// closures, and the executor only decides whether and when they run.
package pipeline

import (
	"context"

	"github.com/sofmeright/slipway/src/event"
)

// Guard decides whether a step executes. It sees the trigger event and a
// read view over the results of strictly earlier steps. A nil Guard means
// the step always wants to run.
type Guard func(ev *event.TriggerEvent, prior *Results) bool

// Action invokes an external tool. The returned outputs become visible to
// later steps; a non-nil error marks the step failed.
type Action func(ctx context.Context, ev *event.TriggerEvent, prior *Results) (map[string]string, error)

// StepSpec declares one step of a pipeline.
type StepSpec struct {
	Name   string
	Guard  Guard
	Action Action

	// Always makes the step evaluate its guard (and possibly run) even
	// after a fatal failure earlier in the sequence.
	Always bool

	// BestEffort records a failure without aborting the run or flipping
	// the overall outcome.
	BestEffort bool
}

// NotPullRequest is the guard shared by the authenticate and inspect steps.
func NotPullRequest(ev *event.TriggerEvent, _ *Results) bool {
	return !ev.IsPullRequest()
}
