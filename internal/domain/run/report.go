package run

import "time"

// Outcome is the result of one provisioning step.
type Outcome string

// Step outcomes.
const (
	// OutcomeDone means the step changed the host.
	OutcomeDone Outcome = "done"
	// OutcomeSkipped means the step's marker already existed.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means the step returned an error.
	OutcomeFailed Outcome = "failed"
)

// Step is the outcome of a single named step.
type Step struct {
	// Name identifies the step, e.g. "fetch-archive" or "component:platform/android-15".
	Name string
	// Outcome is what happened.
	Outcome Outcome
	// Error holds the failure message for failed steps.
	Error string
	// Duration is how long the step took.
	Duration time.Duration
}

// Report collects the steps of a provisioning run.
type Report struct {
	// StartedAt is when the run began.
	StartedAt time.Time
	// FinishedAt is when the last step returned.
	FinishedAt time.Time
	// Steps are in execution order.
	Steps []Step
}

// NewReport starts a report at now.
func NewReport(now time.Time) *Report {
	return &Report{
		StartedAt: now,
		Steps:     make([]Step, 0, 8),
	}
}

// Add appends a step. A non-nil err forces OutcomeFailed.
func (r *Report) Add(name string, outcome Outcome, duration time.Duration, err error) {
	step := Step{
		Name:     name,
		Outcome:  outcome,
		Duration: duration,
	}

	if err != nil {
		step.Outcome = OutcomeFailed
		step.Error = err.Error()
	}

	r.Steps = append(r.Steps, step)
}

// Merge appends the steps of other.
func (r *Report) Merge(other *Report) {
	if other == nil {
		return
	}

	r.Steps = append(r.Steps, other.Steps...)
}

// Failed reports whether any step failed.
func (r *Report) Failed() bool {
	for _, step := range r.Steps {
		if step.Outcome == OutcomeFailed {
			return true
		}
	}

	return false
}

// Count returns how many steps ended with outcome.
func (r *Report) Count(outcome Outcome) int {
	n := 0

	for _, step := range r.Steps {
		if step.Outcome == outcome {
			n++
		}
	}

	return n
}
