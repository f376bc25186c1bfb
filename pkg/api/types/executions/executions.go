package executions

import (
	"time"

	"github.com/opst/pipedeck/pkg/api/types/tasks"
)

// Trigger describes what started an execution.
type Trigger struct {
	Type string `json:"type"`
	User string `json:"user,omitempty"`
}

// Execution is a run of a pipeline of an application.
type Execution struct {
	Id          string       `json:"id"`
	Name        string       `json:"name"`
	PipelineId  string       `json:"pipelineConfigId,omitempty"`
	Application string       `json:"application"`
	Status      tasks.Status `json:"status"`
	Trigger     Trigger      `json:"trigger"`
	StartTime   int64        `json:"startTime,omitempty"`
	EndTime     int64        `json:"endTime,omitempty"`
	BuildTime   int64        `json:"buildTime,omitempty"`
	Stages      []tasks.Step `json:"stages,omitempty"`
}

// Started returns the time when the execution started.
//
// When StartTime is not set, BuildTime is used.
func (e Execution) Started() time.Time {
	ms := e.StartTime
	if ms == 0 {
		ms = e.BuildTime
	}
	return time.UnixMilli(ms)
}

func (e Execution) IsActive() bool {
	return !e.Status.IsCompleted()
}

// Group is a set of executions under a heading.
type Group struct {
	Heading    string      `json:"heading"`
	Executions []Execution `json:"executions"`
}
