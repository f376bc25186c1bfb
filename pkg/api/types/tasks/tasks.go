package tasks

import (
	"fmt"
	"maps"
	"path"
	"strings"
)

// Status of a task or a step, as reported by the orchestration API.
type Status string

const (
	NotStarted     Status = "NOT_STARTED"
	Running        Status = "RUNNING"
	Paused         Status = "PAUSED"
	Suspended      Status = "SUSPENDED"
	Buffered       Status = "BUFFERED"
	Succeeded      Status = "SUCCEEDED"
	FailedContinue Status = "FAILED_CONTINUE"
	Terminal       Status = "TERMINAL"
	Canceled       Status = "CANCELED"
	Stopped        Status = "STOPPED"
	Skipped        Status = "SKIPPED"
)

// IsCompleted reports the status will not change anymore.
func (s Status) IsCompleted() bool {
	switch s {
	case Succeeded, FailedContinue, Terminal, Canceled, Stopped, Skipped:
		return true
	default:
		return false
	}
}

// IsFailed reports the status is a completed, but not successful one.
func (s Status) IsFailed() bool {
	switch s {
	case FailedContinue, Terminal, Canceled, Stopped:
		return true
	default:
		return false
	}
}

// Job is a job descriptor.
//
// It is a json object which has "type" field and fields of the command payload.
type Job map[string]any

// NewJob creates a Job of jobType with fields.
//
// fields are copied shallowly; "type" in fields is overwritten.
func NewJob(jobType string, fields map[string]any) Job {
	j := Job{}
	maps.Copy(j, fields)
	j["type"] = jobType
	return j
}

func (j Job) Type() string {
	t, _ := j["type"].(string)
	return t
}

// TaskRequest is the request body to submit a task.
type TaskRequest struct {
	Job         []Job  `json:"job"`
	Application string `json:"application"`
	Description string `json:"description"`
}

// TaskRef is the response of task submission.
type TaskRef struct {
	// Ref is a path to the task, like "/tasks/01HXYZ..."
	Ref string `json:"ref"`
}

// Id of the task referred.
func (r TaskRef) Id() string {
	return path.Base(strings.TrimSuffix(r.Ref, "/"))
}

type Step struct {
	Name      string `json:"name"`
	Status    Status `json:"status"`
	StartTime int64  `json:"startTime,omitempty"`
	EndTime   int64  `json:"endTime,omitempty"`
}

// Task is a snapshot of a remote task.
//
// StartTime and EndTime are epoch milliseconds. Zero means "not yet".
type Task struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Application string `json:"application"`
	Status      Status `json:"status"`
	Steps       []Step `json:"steps,omitempty"`
	StartTime   int64  `json:"startTime,omitempty"`
	EndTime     int64  `json:"endTime,omitempty"`
}

// Progress counts steps.
//
// # Returns
//
// - done: the number of completed steps
//
// - total: the number of all steps
func (t Task) Progress() (done int, total int) {
	for _, s := range t.Steps {
		if s.Status.IsCompleted() {
			done += 1
		}
	}
	return done, len(t.Steps)
}

func (t Task) String() string {
	done, total := t.Progress()
	return fmt.Sprintf("task %s (%s): %s [%d/%d]", t.Id, t.Name, t.Status, done, total)
}
