// Package transcribe runs the whisper CLI to produce timestamped segments
package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/mod"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/store"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"
)

// CommandExecutor interface for executing commands
type CommandExecutor interface {
	ExecuteCommand(ctx context.Context, name string, args []string) ([]byte, error)
	LookPath(file string) (string, error)
}

// RealCommandExecutor implements actual command execution
type RealCommandExecutor struct{}

func (e *RealCommandExecutor) ExecuteCommand(ctx context.Context, name string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

func (e *RealCommandExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Module implements audio transcription functionality
type Module struct {
	cmdExecutor CommandExecutor
}

// Params contains the parameters for audio transcription
type Params struct {
	Input          string `json:"input"`          // Path to input audio file
	Output         string `json:"output"`         // Path to output directory
	Model          string `json:"model"`          // Whisper model size (default: "base")
	Language       string `json:"language"`       // Language for transcription (default: "en")
	BeamSize       int    `json:"beamSize"`       // Beam search width (default: 4)
	OutputFileName string `json:"outputFileName"` // Transcription file name (default: "transcription.json")
	CachePath      string `json:"cachePath"`      // Path to the transcription cache database
	NoCache        bool   `json:"noCache"`        // Bypass the transcription cache
}

// whisperOutput matches the JSON file the whisper CLI writes
type whisperOutput struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Segments []struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
}

// New creates a new transcribe module
func New() mod.Module {
	return &Module{
		cmdExecutor: &RealCommandExecutor{},
	}
}

// NewWithExecutor creates a new transcribe module with a custom command executor
func NewWithExecutor(executor CommandExecutor) mod.Module {
	return &Module{
		cmdExecutor: executor,
	}
}

// Name returns the module name
func (m *Module) Name() string {
	return "transcribe"
}

// Validate checks if the parameters are valid
func (m *Module) Validate(params map[string]interface{}) error {
	var p Params
	if err := mod.ParseParams(params, &p); err != nil {
		return err
	}

	if err := utils.ValidateInputPath(p.Input); err != nil {
		return err
	}

	if err := utils.ValidateOutputPath(p.Output); err != nil {
		return err
	}

	if err := utils.ValidateFileExtension(p.Input, []string{".wav", ".mp3", ".m4a", ".aac"}); err != nil {
		return err
	}

	if _, err := m.cmdExecutor.LookPath("whisper"); err != nil {
		return &utils.ValidationError{
			Field:   "whisper",
			Message: "whisper CLI not found in PATH",
			Err:     err,
		}
	}

	return nil
}

// Execute transcribes the audio file, consulting the cache first
func (m *Module) Execute(ctx context.Context, params map[string]interface{}) (mod.ModuleResult, error) {
	var p Params
	if err := mod.ParseParams(params, &p); err != nil {
		return mod.ModuleResult{}, err
	}

	if p.Model == "" {
		p.Model = "base"
	}
	if p.Language == "" {
		p.Language = "en"
	}
	if p.BeamSize == 0 {
		p.BeamSize = 4
	}
	if p.OutputFileName == "" {
		p.OutputFileName = "transcription.json"
	}

	if err := os.MkdirAll(p.Output, 0755); err != nil {
		return mod.ModuleResult{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	transcriptionPath := filepath.Join(p.Output, p.OutputFileName)

	cacheKey, cache := m.openCache(ctx, p)
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				utils.LogWarning("Failed to close transcription cache: %v", err)
			}
		}()

		segments, hit, err := cache.Get(ctx, cacheKey)
		if err != nil {
			utils.LogWarning("Cache lookup failed, transcribing instead: %v", err)
		} else if hit {
			utils.LogInfo("Using cached transcription (%d segments)", len(segments))
			if err := utils.SaveTranscription(segments, transcriptionPath); err != nil {
				return mod.ModuleResult{}, err
			}
			return m.result(transcriptionPath, len(segments), true), nil
		}
	}

	segments, err := m.runWhisper(ctx, p)
	if err != nil {
		return mod.ModuleResult{}, err
	}

	for _, segment := range segments {
		utils.LogVerbose("[%.2f -> %.2f] %s", segment.Start, segment.End, segment.Text)
	}

	if err := utils.SaveTranscription(segments, transcriptionPath); err != nil {
		return mod.ModuleResult{}, err
	}

	if cache != nil {
		if err := cache.Put(ctx, cacheKey, segments); err != nil {
			utils.LogWarning("Failed to store transcription in cache: %v", err)
		}
	}

	utils.LogSuccess("Transcription saved to %s (%d segments)", transcriptionPath, len(segments))
	return m.result(transcriptionPath, len(segments), false), nil
}

// openCache returns the cache and key when caching is usable for this run
func (m *Module) openCache(ctx context.Context, p Params) (store.Key, *store.TranscriptCache) {
	if p.NoCache || p.CachePath == "" {
		return store.Key{}, nil
	}

	hash, err := utils.HashFile(p.Input)
	if err != nil {
		utils.LogWarning("Failed to hash audio for cache key: %v", err)
		return store.Key{}, nil
	}

	cache, err := store.Open(p.CachePath)
	if err != nil {
		utils.LogWarning("Failed to open transcription cache: %v", err)
		return store.Key{}, nil
	}

	return store.Key{AudioHash: hash, Model: p.Model, Language: p.Language}, cache
}

// runWhisper invokes the whisper CLI and parses its JSON output
func (m *Module) runWhisper(ctx context.Context, p Params) ([]utils.Segment, error) {
	args := WhisperArgs(p)

	utils.LogInfo("Starting transcription of %s (model %s, language %s)...",
		filepath.Base(p.Input), p.Model, p.Language)

	output, err := m.cmdExecutor.ExecuteCommand(ctx, "whisper", args)
	if err != nil {
		return nil, fmt.Errorf("whisper command failed: %w: %s", err, string(output))
	}

	base := strings.TrimSuffix(filepath.Base(p.Input), filepath.Ext(p.Input))
	whisperJSON := filepath.Join(p.Output, base+".json")

	data, err := os.ReadFile(whisperJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to read whisper output %s: %w", whisperJSON, err)
	}

	var result whisperOutput
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse whisper output: %w", err)
	}

	if len(result.Segments) == 0 {
		return nil, fmt.Errorf("whisper produced no segments for %s", p.Input)
	}

	segments := make([]utils.Segment, 0, len(result.Segments))
	for _, seg := range result.Segments {
		segments = append(segments, utils.Segment{
			Text:  strings.TrimSpace(seg.Text),
			Start: seg.Start,
			End:   seg.End,
		})
	}

	return segments, nil
}

// WhisperArgs builds the whisper CLI argument list
func WhisperArgs(p Params) []string {
	return []string{
		p.Input,
		"--model", p.Model,
		"--language", p.Language,
		"--task", "transcribe",
		"--beam_size", fmt.Sprintf("%d", p.BeamSize),
		"--output_format", "json",
		"--output_dir", p.Output,
		"--fp16", "False",
	}
}

// result assembles the module result for a finished transcription
func (m *Module) result(transcriptionPath string, segmentCount int, fromCache bool) mod.ModuleResult {
	return mod.ModuleResult{
		Outputs: map[string]string{
			"transcription": transcriptionPath,
		},
		Statistics: map[string]interface{}{
			"segments":  segmentCount,
			"fromCache": fromCache,
		},
	}
}

// GetIO returns the module's input/output specification
func (m *Module) GetIO() mod.ModuleIO {
	return mod.ModuleIO{
		RequiredInputs: []mod.ModuleInput{
			{
				Name:        "input",
				Description: "Path to input audio file",
				Patterns:    []string{".wav", ".mp3", ".m4a", ".aac"},
				Type:        string(mod.InputTypeFile),
			},
			{
				Name:        "output",
				Description: "Path to output directory",
				Type:        string(mod.InputTypeDirectory),
			},
		},
		OptionalInputs: []mod.ModuleInput{
			{
				Name:        "model",
				Description: "Whisper model size (default: base)",
				Type:        string(mod.InputTypeData),
			},
			{
				Name:        "language",
				Description: "Language for transcription (default: en)",
				Type:        string(mod.InputTypeData),
			},
			{
				Name:        "beamSize",
				Description: "Beam search width (default: 4)",
				Type:        string(mod.InputTypeData),
			},
			{
				Name:        "cachePath",
				Description: "Path to the transcription cache database",
				Type:        string(mod.InputTypeFile),
			},
			{
				Name:        "noCache",
				Description: "Bypass the transcription cache",
				Type:        string(mod.InputTypeData),
			},
		},
		ProducedOutputs: []mod.ModuleOutput{
			{
				Name:        "transcription",
				Description: "Timestamped transcription segments",
				Patterns:    []string{".json"},
				Type:        string(mod.OutputTypeFile),
			},
		},
	}
}
