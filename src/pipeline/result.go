package pipeline

import (
	"time"

	"github.com/sofmeright/slipway/src/event"
)

// Status of a single step after the run reached it.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// StepResult captures the outcome of one step.
type StepResult struct {
	Name     string
	Status   Status
	Outputs  map[string]string
	Duration time.Duration
	Err      error
}

// Outcome of a whole run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// Run is the record of one pipeline invocation: the event that produced it,
// every step's result in declared order, and the overall outcome. It lives
// for the duration of one invocation and is discarded after reporting.
type Run struct {
	Event   *event.TriggerEvent
	Steps   []StepResult
	Outcome Outcome
}

// Results is the read view over completed steps handed to guards and
// actions. It only ever contains steps that finished strictly earlier in
// the sequence, which is what keeps output visibility ordered.
type Results struct {
	steps []StepResult
}

// Output returns the named output of an earlier step.
func (r *Results) Output(step, key string) (string, bool) {
	for _, s := range r.steps {
		if s.Name == step {
			v, ok := s.Outputs[key]
			return v, ok
		}
	}
	return "", false
}

// Status returns the recorded status of an earlier step.
func (r *Results) Status(step string) (Status, bool) {
	for _, s := range r.steps {
		if s.Name == step {
			return s.Status, true
		}
	}
	return "", false
}
