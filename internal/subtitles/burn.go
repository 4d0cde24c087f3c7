package subtitles

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"
)

// execCommand allows us to mock exec.CommandContext in tests
var execCommand = exec.CommandContext

// Burn renders the ASS file onto the video. The ffmpeg subtitles filter
// mangles absolute paths on some platforms, so the command runs inside a
// temp dir and references the subtitle file relatively.
func Burn(ctx context.Context, videoPath, assPath, outputPath string) error {
	tempDir, err := os.MkdirTemp(filepath.Dir(assPath), "burn-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tempDir); err != nil {
			utils.LogWarning("Failed to remove temp dir %s: %v", tempDir, err)
		}
	}()

	tempSubtitle := filepath.Join(tempDir, "subtitles.ass")
	if err := utils.CopyFile(assPath, tempSubtitle); err != nil {
		return fmt.Errorf("failed to stage subtitle file: %w", err)
	}

	absVideo, err := filepath.Abs(videoPath)
	if err != nil {
		return fmt.Errorf("failed to resolve video path: %w", err)
	}
	absOutput, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}

	args := BurnArgs(absVideo, filepath.Base(tempSubtitle), absOutput)

	cmd := execCommand(ctx, "ffmpeg", args...)
	cmd.Dir = tempDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	utils.LogVerbose("Burning subtitles into %s", filepath.Base(videoPath))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg subtitle burn failed: %w: %s", err, stderr.String())
	}

	return nil
}

// BurnArgs builds the ffmpeg argument list for a subtitle burn
func BurnArgs(videoPath, subtitleFile, outputPath string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-vf", fmt.Sprintf("subtitles=%s", subtitleFile),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "copy",
		"-loglevel", "error",
		outputPath,
	}
}
