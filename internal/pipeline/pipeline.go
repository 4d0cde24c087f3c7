package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/mod"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// LockFileName guards the output directory against concurrent runs
const LockFileName = ".clipcutter.lock"

// Executor runs a fixed sequence of steps against a module registry
type Executor struct {
	Name   string
	Output string
	Steps  []Step

	registry *mod.ModuleRegistry
}

// NewExecutor creates an executor for the given steps
func NewExecutor(name, output string, steps []Step, registry *mod.ModuleRegistry) *Executor {
	return &Executor{
		Name:     name,
		Output:   output,
		Steps:    steps,
		registry: registry,
	}
}

// Run executes every step in order, threading each step's outputs into the
// parameters of the ones after it. The output directory is locked for the
// duration of the run so two runs cannot interleave artifacts.
func (e *Executor) Run(ctx context.Context) (*RunState, error) {
	if err := os.MkdirAll(e.Output, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(e.Output, LockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock output directory: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("output directory %s is in use by another run", e.Output)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			utils.LogWarning("Failed to release output directory lock: %v", err)
		}
	}()

	state := &RunState{
		ID:        uuid.New().String(),
		Name:      e.Name,
		Status:    RunStatusRunning,
		StartTime: time.Now(),
	}
	for _, step := range e.Steps {
		state.Steps = append(state.Steps, StepState{
			Name:   step.Name,
			Module: step.Module,
			Status: StepStatusPending,
		})
	}

	// Outputs of completed steps, by logical name, for placeholder resolution
	outputs := map[string]string{
		"output": e.Output,
	}

	for i, step := range e.Steps {
		module, err := e.registry.Get(step.Module)
		if err != nil {
			return e.fail(state, i, fmt.Errorf("failed to get module %s: %w", step.Module, err))
		}

		params := resolveParams(step.Parameters, outputs)

		if err := module.Validate(params); err != nil {
			return e.fail(state, i, fmt.Errorf("invalid parameters for %s: %w", step.Name, err))
		}

		state.Steps[i].Status = StepStatusRunning
		e.addEvent(state, step.Name, "started", fmt.Sprintf("Started %s", step.Name), nil)
		utils.LogInfo("[%d/%d] %s", i+1, len(e.Steps), step.Name)

		result, err := module.Execute(ctx, params)
		if err != nil {
			e.addEvent(state, step.Name, "failed", err.Error(), nil)
			return e.fail(state, i, fmt.Errorf("step %s failed: %w", step.Name, err))
		}

		for name, path := range result.Outputs {
			outputs[name] = path
		}

		state.Steps[i].Status = StepStatusComplete
		state.Steps[i].Outputs = result.Outputs
		state.Steps[i].Statistics = result.Statistics
		e.addEvent(state, step.Name, "completed", fmt.Sprintf("Completed %s", step.Name), result.Statistics)
	}

	state.Status = RunStatusComplete
	state.EndTime = time.Now()

	if err := SaveState(e.Output, state); err != nil {
		utils.LogWarning("Failed to save run state: %v", err)
	}

	return state, nil
}

// fail marks the step and run as failed, persists the state, and returns err
func (e *Executor) fail(state *RunState, stepIndex int, err error) (*RunState, error) {
	state.Steps[stepIndex].Status = StepStatusFailed
	state.Status = RunStatusFailed
	state.EndTime = time.Now()

	if saveErr := SaveState(e.Output, state); saveErr != nil {
		utils.LogWarning("Failed to save run state: %v", saveErr)
	}

	return state, err
}

func (e *Executor) addEvent(state *RunState, step, eventType, message string, data map[string]interface{}) {
	state.Events = append(state.Events, Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Step:      step,
		Type:      eventType,
		Message:   message,
		Data:      data,
	})
}

// resolveParams copies the step parameters, replacing ${name} placeholders in
// string values with the matching output path of an earlier step
func resolveParams(parameters map[string]interface{}, outputs map[string]string) map[string]interface{} {
	params := make(map[string]interface{}, len(parameters))
	for k, v := range parameters {
		strVal, ok := v.(string)
		if !ok {
			params[k] = v
			continue
		}
		for name, path := range outputs {
			placeholder := "${" + name + "}"
			if strings.Contains(strVal, placeholder) {
				strVal = strings.ReplaceAll(strVal, placeholder, path)
			}
		}
		params[k] = strVal
	}
	return params
}
