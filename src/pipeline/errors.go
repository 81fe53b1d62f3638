package pipeline

import "fmt"

// StepExecutionError wraps a failure returned by a step's action.
type StepExecutionError struct {
	Step string
	Err  error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepExecutionError) Unwrap() error { return e.Err }
