package sync

import (
	"time"
)

// Action is the terminal state of one file in a pass.
type Action string

const (
	ActionCreated          Action = "created"
	ActionUpdated          Action = "updated"
	ActionSkippedIdentical Action = "skipped-identical"
	ActionFailed           Action = "failed"
)

// Mode names the kind of pass that produced a report.
type Mode string

const (
	ModeUpload    Mode = "upload"
	ModeReconcile Mode = "reconcile"
)

// Outcome is the result for a single local file.
type Outcome struct {
	Path   string        `json:"path" yaml:"path"`
	Action Action        `json:"action" yaml:"action"`
	Size   int64         `json:"size" yaml:"size"`
	Err    *PerFileError `json:"-" yaml:"-"`
}

// Error returns the failure message, or "" when the file did not fail.
func (o Outcome) Error() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Report lists the outcomes of one pass in traversal order.
type Report struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Repository string    `json:"repository" yaml:"repository"`
	URL        string    `json:"url,omitempty" yaml:"url,omitempty"`
	Mode       Mode      `json:"mode" yaml:"mode"`
	Root       string    `json:"root" yaml:"root"`
	Author     string    `json:"author,omitempty" yaml:"author,omitempty"`
	Started    time.Time `json:"started" yaml:"started"`
	Finished   time.Time `json:"finished" yaml:"finished"`
	Outcomes   []Outcome `json:"outcomes" yaml:"outcomes"`
}

// Count returns how many outcomes ended in action.
func (r *Report) Count(action Action) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Action == action {
			n++
		}
	}
	return n
}

// Failed reports whether any file failed.
func (r *Report) Failed() bool {
	return r.Count(ActionFailed) > 0
}

// Bytes sums the sizes of the files that were written.
func (r *Report) Bytes() int64 {
	var n int64
	for _, o := range r.Outcomes {
		if o.Action == ActionCreated || o.Action == ActionUpdated {
			n += o.Size
		}
	}
	return n
}

func (r *Report) Duration() time.Duration {
	if r.Finished.IsZero() {
		return 0
	}
	return r.Finished.Sub(r.Started)
}
