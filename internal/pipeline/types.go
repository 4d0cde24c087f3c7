// Package pipeline runs the processing steps in order and records run state
package pipeline

import (
	"time"
)

// Step is a single processing step in a run
type Step struct {
	Name       string                 `yaml:"name"`
	Module     string                 `yaml:"module"`
	Parameters map[string]interface{} `yaml:"parameters"`
}

// StepStatus is the current status of a step
type StepStatus string

const (
	StepStatusPending  StepStatus = "pending"
	StepStatusRunning  StepStatus = "running"
	StepStatusComplete StepStatus = "complete"
	StepStatusFailed   StepStatus = "failed"
)

// RunStatus is the current status of the whole run
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// StepState records the outcome of one step
type StepState struct {
	Name       string                 `yaml:"name"`
	Module     string                 `yaml:"module"`
	Status     StepStatus             `yaml:"status"`
	Outputs    map[string]string      `yaml:"outputs,omitempty"`
	Statistics map[string]interface{} `yaml:"statistics,omitempty"`
}

// Event is one entry in the run history
type Event struct {
	ID        string                 `yaml:"id"`
	Timestamp time.Time              `yaml:"timestamp"`
	Step      string                 `yaml:"step"`
	Type      string                 `yaml:"type"`
	Message   string                 `yaml:"message"`
	Data      map[string]interface{} `yaml:"data,omitempty"`
}

// RunState is the persisted state of a pipeline run
type RunState struct {
	ID        string      `yaml:"id"`
	Name      string      `yaml:"name"`
	Status    RunStatus   `yaml:"status"`
	StartTime time.Time   `yaml:"startTime"`
	EndTime   time.Time   `yaml:"endTime,omitempty"`
	Steps     []StepState `yaml:"steps"`
	Events    []Event     `yaml:"events"`
}
