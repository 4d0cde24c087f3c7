// Package download fetches source videos with yt-dlp
package download

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/mod"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"
)

// execCommand allows us to mock exec.CommandContext in tests
var execCommand = exec.CommandContext

// Module implements video download functionality
type Module struct{}

// Params contains the parameters for video download
type Params struct {
	URL    string `json:"url"`    // Source video URL
	Output string `json:"output"` // Directory to download into
}

// videoMetadata is the slice of yt-dlp's JSON dump we care about
type videoMetadata struct {
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
}

// New creates a new download module
func New() mod.Module {
	return &Module{}
}

// Name returns the module name
func (m *Module) Name() string {
	return "download"
}

// Validate checks if the parameters are valid
func (m *Module) Validate(params map[string]interface{}) error {
	var p Params
	if err := mod.ParseParams(params, &p); err != nil {
		return err
	}

	if p.URL == "" {
		return fmt.Errorf("url is required")
	}

	if err := utils.ValidateOutputPath(p.Output); err != nil {
		return err
	}

	if err := utils.ValidateRequiredDependency("yt-dlp"); err != nil {
		return err
	}

	return nil
}

// Execute downloads the video and returns the path of the merged mp4
func (m *Module) Execute(ctx context.Context, params map[string]interface{}) (mod.ModuleResult, error) {
	var p Params
	if err := mod.ParseParams(params, &p); err != nil {
		return mod.ModuleResult{}, err
	}

	if err := os.MkdirAll(p.Output, 0755); err != nil {
		return mod.ModuleResult{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	meta, err := m.probeMetadata(ctx, p.URL)
	if err != nil {
		return mod.ModuleResult{}, err
	}

	title := utils.SanitizeFilename(meta.Title)
	if title == "" {
		title = "video"
	}
	outputPath := filepath.Join(p.Output, title+".mp4")

	utils.LogInfo("Downloading %q (%.0fs)...", meta.Title, meta.Duration)

	cmd := execCommand(ctx, "yt-dlp", DownloadArgs(p.URL, outputPath)...)
	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return mod.ModuleResult{}, fmt.Errorf("yt-dlp download failed: %w: %s", err, stderr.String())
	}

	if _, err := os.Stat(outputPath); err != nil {
		return mod.ModuleResult{}, fmt.Errorf("downloaded file not found at %s: %w", outputPath, err)
	}

	utils.LogSuccess("Downloaded video to %s", outputPath)
	return mod.ModuleResult{
		Outputs: map[string]string{
			"video": outputPath,
		},
		Metadata: map[string]interface{}{
			"title":    meta.Title,
			"duration": meta.Duration,
		},
	}, nil
}

// probeMetadata asks yt-dlp for the video metadata without downloading
func (m *Module) probeMetadata(ctx context.Context, url string) (*videoMetadata, error) {
	cmd := execCommand(ctx, "yt-dlp", ProbeArgs(url)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp metadata probe failed: %w: %s", err, stderr.String())
	}

	var meta videoMetadata
	if err := json.Unmarshal(stdout.Bytes(), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp metadata: %w", err)
	}

	return &meta, nil
}

// ProbeArgs builds the yt-dlp argument list for a metadata probe
func ProbeArgs(url string) []string {
	return []string{
		"--dump-single-json",
		"--skip-download",
		"--no-playlist",
		url,
	}
}

// DownloadArgs builds the yt-dlp argument list for the actual download.
// Best video plus best audio, merged into mp4.
func DownloadArgs(url, outputPath string) []string {
	return []string{
		"-f", "bv*+ba/b",
		"--merge-output-format", "mp4",
		"--no-playlist",
		"-o", outputPath,
		url,
	}
}

// GetIO returns the module's input/output specification
func (m *Module) GetIO() mod.ModuleIO {
	return mod.ModuleIO{
		RequiredInputs: []mod.ModuleInput{
			{
				Name:        "url",
				Description: "Source video URL",
				Type:        string(mod.InputTypeData),
			},
			{
				Name:        "output",
				Description: "Directory to download into",
				Type:        string(mod.InputTypeDirectory),
			},
		},
		ProducedOutputs: []mod.ModuleOutput{
			{
				Name:        "video",
				Description: "Downloaded video file",
				Patterns:    []string{".mp4"},
				Type:        string(mod.OutputTypeFile),
			},
		},
	}
}
