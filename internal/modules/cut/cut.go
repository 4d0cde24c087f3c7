// Package cut turns selected highlights into vertical clips
package cut

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/media"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/mod"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/subtitles"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"
)

// execCommand allows us to mock exec.CommandContext in tests
var execCommand = exec.CommandContext

// randIntn allows deterministic overlay selection in tests
var randIntn = rand.Intn

// Target frame for vertical clips
const (
	frameWidth  = 1080
	frameHeight = 1920
)

// Module implements highlight clip production
type Module struct{}

// Params contains the parameters for clip production
type Params struct {
	Input              string `json:"input"`              // Path to highlights JSON (precise timestamps)
	Output             string `json:"output"`             // Final clip directory
	VideoFile          string `json:"videoFile"`          // Source video file
	TempDir            string `json:"tempDir"`            // Directory for intermediate artifacts
	UseAdditionalVideo bool   `json:"useAdditionalVideo"` // Composite a random overlay video
	OverlayDir         string `json:"overlayDir"`         // Overlay source pool
	AddSubtitles       bool   `json:"addSubtitles"`       // Burn subtitles into each clip
	SubtitlePosition   string `json:"subtitlePosition"`   // top, center or bottom
	Transcription      string `json:"transcription"`      // Transcription JSON, required for subtitles
	Summary            string `json:"summary"`            // highlights.yaml artifact to annotate with clip files
}

// New creates a new cut module
func New() mod.Module {
	return &Module{}
}

// Name returns the module name
func (m *Module) Name() string {
	return "cut"
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

	if err := utils.ValidateVideoFile(p.VideoFile); err != nil {
		return err
	}

	if err := utils.ValidateOutputPath(p.Output); err != nil {
		return err
	}

	if p.AddSubtitles && p.Transcription == "" {
		return fmt.Errorf("transcription is required when addSubtitles is set")
	}

	return nil
}

// Execute cuts every highlight into a finished vertical clip. A failed
// highlight is logged and skipped; the loop continues with the next one.
func (m *Module) Execute(ctx context.Context, params map[string]interface{}) (mod.ModuleResult, error) {
	var p Params
	if err := mod.ParseParams(params, &p); err != nil {
		return mod.ModuleResult{}, err
	}

	if p.TempDir == "" {
		p.TempDir = "temp"
	}
	if p.SubtitlePosition == "" {
		p.SubtitlePosition = "bottom"
	}

	highlights, err := loadHighlights(p.Input)
	if err != nil {
		return mod.ModuleResult{}, err
	}

	var segments []utils.Segment
	if p.AddSubtitles {
		segments, err = utils.LoadTranscription(p.Transcription)
		if err != nil {
			return mod.ModuleResult{}, err
		}
	}

	for _, dir := range []string{p.Output, p.TempDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return mod.ModuleResult{}, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	overlays := m.overlayPool(p)

	var produced []string
	for i, h := range highlights {
		utils.LogInfo("Processing highlight %d/%d (%.2fs to %.2fs)", i+1, len(highlights), h.Start, h.End)

		clipPath, err := m.produceClip(ctx, p, h, i+1, overlays, segments)
		if err != nil {
			utils.LogError("Failed to process highlight %d: %v", i+1, err)
			continue
		}

		produced = append(produced, clipPath)
		m.annotateSummary(p.Summary, i, clipPath)
		utils.LogSuccess("Created clip %s", filepath.Base(clipPath))
	}

	if len(produced) == 0 {
		return mod.ModuleResult{}, fmt.Errorf("no clips could be produced from %d highlights", len(highlights))
	}

	return mod.ModuleResult{
		Outputs: map[string]string{
			"clips": p.Output,
		},
		Statistics: map[string]interface{}{
			"highlights": len(highlights),
			"clips":      len(produced),
		},
	}, nil
}

// produceClip runs the cut, layout and optional subtitle passes for one highlight
func (m *Module) produceClip(ctx context.Context, p Params, h utils.Highlight, index int, overlays []string, segments []utils.Segment) (string, error) {
	cutPath := filepath.Join(p.TempDir, fmt.Sprintf("cut_%02d.mp4", index))
	if err := m.runFFmpeg(ctx, CutArgs(p.VideoFile, h.Start, h.End, cutPath)); err != nil {
		return "", fmt.Errorf("stream-copy cut failed: %w", err)
	}
	defer m.removeTemp(cutPath)

	layoutPath := filepath.Join(p.TempDir, fmt.Sprintf("layout_%02d.mp4", index))
	if err := m.applyLayout(ctx, p, cutPath, layoutPath, h.Duration(), overlays); err != nil {
		return "", fmt.Errorf("layout failed: %w", err)
	}
	defer m.removeTemp(layoutPath)

	finalPath := filepath.Join(p.Output, ClipFileName(p.VideoFile, index, time.Now()))

	if !p.AddSubtitles {
		if err := os.Rename(layoutPath, finalPath); err != nil {
			if err := utils.CopyFile(layoutPath, finalPath); err != nil {
				return "", fmt.Errorf("failed to place final clip: %w", err)
			}
		}
		return finalPath, nil
	}

	window := subtitles.ClipWindow(subtitles.ChunkSegments(segments), h.Start, h.End)

	assPath := filepath.Join(p.TempDir, fmt.Sprintf("subtitles_%02d.ass", index))
	assContent := subtitles.BuildASS(window, p.SubtitlePosition, frameWidth, frameHeight)
	if err := utils.WriteTextFile(assPath, assContent); err != nil {
		return "", fmt.Errorf("failed to write subtitle file: %w", err)
	}
	defer m.removeTemp(assPath)

	if err := subtitles.Burn(ctx, layoutPath, assPath, finalPath); err != nil {
		return "", err
	}

	// Keep the subtitle timings next to the clip for downstream editing
	subtitlesPath := strings.TrimSuffix(finalPath, filepath.Ext(finalPath)) + "_subtitles.json"
	if err := saveSubtitlesJSON(subtitlesPath, window); err != nil {
		utils.LogWarning("Failed to save subtitles JSON: %v", err)
	}

	return finalPath, nil
}

// applyLayout renders the 9:16 frame, split with an overlay when available
func (m *Module) applyLayout(ctx context.Context, p Params, inputPath, outputPath string, clipDuration float64, overlays []string) error {
	if p.UseAdditionalVideo && len(overlays) > 0 {
		overlay := overlays[randIntn(len(overlays))]

		offset := 0.0
		if info, err := media.Probe(ctx, overlay); err != nil {
			utils.LogWarning("Failed to probe overlay %s: %v", overlay, err)
		} else if info.Duration > clipDuration {
			offset = float64(randIntn(int(info.Duration-clipDuration) + 1))
		}

		utils.LogVerbose("Using overlay %s at offset %.0fs", filepath.Base(overlay), offset)
		return m.runFFmpeg(ctx, SplitLayoutArgs(inputPath, overlay, offset, clipDuration, outputPath))
	}

	return m.runFFmpeg(ctx, FullLayoutArgs(inputPath, outputPath))
}

// overlayPool lists candidate overlay videos, empty when disabled
func (m *Module) overlayPool(p Params) []string {
	if !p.UseAdditionalVideo || p.OverlayDir == "" {
		return nil
	}

	entries, err := os.ReadDir(p.OverlayDir)
	if err != nil {
		utils.LogWarning("Overlay directory %s not readable, using full layout: %v", p.OverlayDir, err)
		return nil
	}

	var pool []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".mp4", ".mov", ".mkv", ".webm", ".avi":
			pool = append(pool, filepath.Join(p.OverlayDir, entry.Name()))
		}
	}

	if len(pool) == 0 {
		utils.LogWarning("No overlay videos found in %s, using full layout", p.OverlayDir)
	}
	return pool
}

// runFFmpeg executes ffmpeg with captured stderr
func (m *Module) runFFmpeg(ctx context.Context, args []string) error {
	cmd := execCommand(ctx, "ffmpeg", args...)

	var stderr bytes.Buffer
	cmd.Stdout = nil
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg command failed: %w: %s", err, stderr.String())
	}
	return nil
}

// removeTemp deletes an intermediate file, logging on failure
func (m *Module) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		utils.LogWarning("Failed to remove temp file %s: %v", path, err)
	}
}

// annotateSummary records the produced clip file in the highlights.yaml artifact
func (m *Module) annotateSummary(summaryPath string, index int, clipPath string) {
	if summaryPath == "" {
		return
	}

	data, err := utils.ReadHighlightsFile(summaryPath)
	if err != nil {
		utils.LogWarning("Failed to read highlights summary: %v", err)
		return
	}
	if index >= len(data.Highlights) {
		return
	}

	data.Highlights[index].ClipFile = filepath.Base(clipPath)
	if err := utils.WriteHighlightsFile(summaryPath, data); err != nil {
		utils.LogWarning("Failed to update highlights summary: %v", err)
	}
}

// loadHighlights reads the precise highlight timestamps JSON
func loadHighlights(path string) ([]utils.Highlight, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read highlights file: %w", err)
	}

	var highlights []utils.Highlight
	if err := json.Unmarshal(data, &highlights); err != nil {
		return nil, fmt.Errorf("failed to parse highlights JSON: %w", err)
	}

	if len(highlights) == 0 {
		return nil, fmt.Errorf("highlights file %s is empty", path)
	}
	return highlights, nil
}

// saveSubtitlesJSON writes the clip-relative subtitle chunks
func saveSubtitlesJSON(path string, segments []utils.Segment) error {
	data, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal subtitles: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// CutArgs builds the stream-copy cut argument list. Seeking before the
// input keeps the cut fast; stream copy avoids a re-encode.
func CutArgs(videoFile string, start, end float64, outputPath string) []string {
	return []string{
		"-ss", fmt.Sprintf("%.3f", start),
		"-to", fmt.Sprintf("%.3f", end),
		"-i", videoFile,
		"-c", "copy",
		"-y",
		"-loglevel", "error",
		outputPath,
	}
}

// FullLayoutFilter is the crop/scale chain for the full 9:16 layout
func FullLayoutFilter() string {
	return fmt.Sprintf("crop='min(iw,ih*9/16)':'min(ih,iw*16/9)',scale=%d:%d", frameWidth, frameHeight)
}

// SplitLayoutFilter is the filter graph for the stacked layout: the
// overlay fills the top half, the main video the bottom half
func SplitLayoutFilter() string {
	half := frameHeight / 2
	return fmt.Sprintf(
		"[0:v]crop='min(iw,ih*9/8)':'min(ih,iw*8/9)',scale=%d:%d[main];"+
			"[1:v]crop='min(iw,ih*9/8)':'min(ih,iw*8/9)',scale=%d:%d[extra];"+
			"[extra][main]vstack=inputs=2[v]",
		frameWidth, half, frameWidth, half)
}

// FullLayoutArgs builds the ffmpeg argument list for the full layout
func FullLayoutArgs(inputPath, outputPath string) []string {
	return []string{
		"-i", inputPath,
		"-vf", FullLayoutFilter(),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "aac",
		"-y",
		"-loglevel", "error",
		outputPath,
	}
}

// SplitLayoutArgs builds the ffmpeg argument list for the stacked layout.
// The overlay is looped to cover the clip, muted by mapping only the main
// clip's audio, and started at a random offset into its own timeline.
func SplitLayoutArgs(inputPath, overlayPath string, overlayOffset, clipDuration float64, outputPath string) []string {
	args := []string{"-i", inputPath, "-stream_loop", "-1"}
	if overlayOffset > 0 {
		args = append(args, "-ss", fmt.Sprintf("%.3f", overlayOffset))
	}
	args = append(args,
		"-t", fmt.Sprintf("%.3f", clipDuration),
		"-i", overlayPath,
		"-filter_complex", SplitLayoutFilter(),
		"-map", "[v]",
		"-map", "0:a?",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "aac",
		"-shortest",
		"-y",
		"-loglevel", "error",
		outputPath,
	)
	return args
}

// ClipFileName builds the final clip name: <base>_highlight_<NN>_<timestamp>.mp4
func ClipFileName(videoFile string, index int, now time.Time) string {
	base := strings.TrimSuffix(filepath.Base(videoFile), filepath.Ext(videoFile))
	base = utils.SanitizeFilename(base)
	return fmt.Sprintf("%s_highlight_%02d_%s.mp4", base, index, now.Format("20060102_150405"))
}

// GetIO returns the module's input/output specification
func (m *Module) GetIO() mod.ModuleIO {
	return mod.ModuleIO{
		RequiredInputs: []mod.ModuleInput{
			{
				Name:        "input",
				Description: "Path to highlights JSON with precise timestamps",
				Patterns:    []string{".json"},
				Type:        string(mod.InputTypeFile),
			},
			{
				Name:        "videoFile",
				Description: "Path to the source video file",
				Patterns:    []string{".mp4", ".mov", ".mkv", ".webm", ".avi"},
				Type:        string(mod.InputTypeFile),
			},
			{
				Name:        "output",
				Description: "Final clip directory",
				Type:        string(mod.InputTypeDirectory),
			},
		},
		OptionalInputs: []mod.ModuleInput{
			{
				Name:        "tempDir",
				Description: "Directory for intermediate artifacts",
				Type:        string(mod.InputTypeDirectory),
			},
			{
				Name:        "overlayDir",
				Description: "Overlay source pool",
				Type:        string(mod.InputTypeDirectory),
			},
			{
				Name:        "transcription",
				Description: "Transcription JSON, required for subtitles",
				Patterns:    []string{".json"},
				Type:        string(mod.InputTypeFile),
			},
			{
				Name:        "summary",
				Description: "highlights.yaml artifact to annotate with clip files",
				Patterns:    []string{".yaml"},
				Type:        string(mod.InputTypeFile),
			},
		},
		ProducedOutputs: []mod.ModuleOutput{
			{
				Name:        "clips",
				Description: "Directory containing the finished clips",
				Patterns:    []string{".mp4"},
				Type:        string(mod.OutputTypeDirectory),
			},
		},
	}
}
