// Package extractaudio pulls a transcription-ready audio track out of a video
package extractaudio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/media"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/mod"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"
)

// execCommand allows us to mock exec.CommandContext in tests
var execCommand = exec.CommandContext

// probeMedia allows us to mock the ffprobe call in tests
var probeMedia = media.Probe

// Module implements the audio extraction functionality
type Module struct{}

// Params contains the parameters for audio extraction
type Params struct {
	Input      string `json:"input"`      // Path to input video file
	Output     string `json:"output"`     // Path to output directory
	OutputName string `json:"outputName"` // Custom output filename (optional)
	SampleRate int    `json:"sampleRate"` // Sample rate in Hz (default: 16000)
	Channels   int    `json:"channels"`   // Number of audio channels (default: 1)
}

// New creates a new extract audio module
func New() mod.Module {
	return &Module{}
}

// Name returns the module name
func (m *Module) Name() string {
	return "extractaudio"
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

	if err := utils.ValidateFileExtension(p.Input, []string{".mp4", ".mov", ".mkv", ".webm", ".avi"}); err != nil {
		return err
	}

	if p.OutputName != "" {
		if err := utils.ValidateFileExtension(p.OutputName, []string{".wav"}); err != nil {
			return err
		}
	}

	if err := utils.ValidateRequiredDependency("ffmpeg"); err != nil {
		return err
	}

	return nil
}

// Execute extracts a 16 kHz mono WAV from the input video
func (m *Module) Execute(ctx context.Context, params map[string]interface{}) (mod.ModuleResult, error) {
	var p Params
	if err := mod.ParseParams(params, &p); err != nil {
		return mod.ModuleResult{}, err
	}

	if p.SampleRate == 0 {
		p.SampleRate = 16000
	}
	if p.Channels == 0 {
		p.Channels = 1
	}
	if p.Output == "" {
		return mod.ModuleResult{}, fmt.Errorf("output directory path is required")
	}

	if err := os.MkdirAll(p.Output, 0755); err != nil {
		return mod.ModuleResult{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	// The rest of the pipeline is useless without speech to transcribe
	info, err := probeMedia(ctx, p.Input)
	if err != nil {
		return mod.ModuleResult{}, fmt.Errorf("failed to probe input video: %w", err)
	}
	if !info.HasAudio {
		return mod.ModuleResult{}, fmt.Errorf("no audio stream found in %s", p.Input)
	}

	audioPath := m.outputPath(p)

	utils.LogVerbose("Extracting audio from %s to %s", p.Input, audioPath)

	cmd := execCommand(ctx,
		"ffmpeg",
		"-i", p.Input,
		"-vn",
		"-ar", fmt.Sprintf("%d", p.SampleRate),
		"-ac", fmt.Sprintf("%d", p.Channels),
		"-c:a", "pcm_s16le",
		audioPath,
		"-y",
		"-loglevel", "error",
	)

	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return mod.ModuleResult{}, fmt.Errorf("ffmpeg command failed: %w: %s", err, stderr.String())
	}

	utils.LogSuccess("Successfully extracted audio to %s", audioPath)
	return mod.ModuleResult{
		Outputs: map[string]string{
			"audio": audioPath,
		},
		Metadata: map[string]interface{}{
			"duration": info.Duration,
		},
	}, nil
}

// outputPath resolves the target WAV path for the given params
func (m *Module) outputPath(p Params) string {
	if p.OutputName != "" {
		return filepath.Join(p.Output, p.OutputName)
	}
	base := strings.TrimSuffix(filepath.Base(p.Input), filepath.Ext(p.Input))
	return filepath.Join(p.Output, base+".wav")
}

// GetIO returns the module's input/output specification
func (m *Module) GetIO() mod.ModuleIO {
	return mod.ModuleIO{
		RequiredInputs: []mod.ModuleInput{
			{
				Name:        "input",
				Description: "Path to input video file",
				Patterns:    []string{".mp4", ".mov", ".mkv", ".webm", ".avi"},
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
				Name:        "outputName",
				Description: "Custom output filename",
				Type:        string(mod.InputTypeData),
			},
			{
				Name:        "sampleRate",
				Description: "Sample rate in Hz (default: 16000)",
				Type:        string(mod.InputTypeData),
			},
			{
				Name:        "channels",
				Description: "Number of audio channels (default: 1)",
				Type:        string(mod.InputTypeData),
			},
		},
		ProducedOutputs: []mod.ModuleOutput{
			{
				Name:        "audio",
				Description: "Extracted audio file",
				Patterns:    []string{".wav"},
				Type:        string(mod.OutputTypeFile),
			},
		},
	}
}
