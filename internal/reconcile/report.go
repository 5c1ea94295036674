package reconcile

import (
	"time"

	"github.com/conneroisu/hotsnip/internal/snippet"
)

// State is the lifecycle state of a Manager.
type State int32

const (
	// StateIdle is a manager that is not watching; passes only run on demand.
	StateIdle State = iota
	// StateWatching is a manager waiting for change batches.
	StateWatching
	// StateReconciling is a manager in the middle of a pass.
	StateReconciling
	// StateDisabled is a manager whose folder was unusable at start.
	StateDisabled
	// StateStopped is a manager that has released every hotkey.
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWatching:
		return "watching"
	case StateReconciling:
		return "reconciling"
	case StateDisabled:
		return "disabled"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Status is what happened to one file during a pass.
type Status string

const (
	StatusRegistered     Status = "registered"
	StatusSkipped        Status = "skipped"
	StatusParseFailed    Status = "parse-failed"
	StatusRegisterFailed Status = "register-failed"
)

// Failed reports whether the status is a failure rather than a skip.
func (s Status) Failed() bool {
	return s == StatusParseFailed || s == StatusRegisterFailed
}

// Outcome is the result of handling one file.
type Outcome struct {
	Path     string
	Status   Status
	Template *snippet.Template
	Err      error
}

// Report summarizes one reconciliation pass.
type Report struct {
	PassID    string
	StartedAt time.Time
	Duration  time.Duration
	FilesSeen int
	Outcomes  []Outcome
	// Err is set when the folder itself could not be listed.
	Err error
}

// Count returns the number of outcomes with status s.
func (r *Report) Count(s Status) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Failures returns the outcomes that failed.
func (r *Report) Failures() []Outcome {
	if r == nil {
		return nil
	}
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status.Failed() {
			failed = append(failed, o)
		}
	}
	return failed
}

// OK reports whether the pass listed the folder and every file either
// registered or was skipped.
func (r *Report) OK() bool {
	return r != nil && r.Err == nil && len(r.Failures()) == 0
}
