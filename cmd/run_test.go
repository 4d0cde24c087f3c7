package cmd

import (
	"path/filepath"
	"testing"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	registry, err := newRegistry()
	require.NoError(t, err)

	for _, name := range []string{"download", "extractaudio", "transcribe", "highlights", "cut"} {
		module, err := registry.Get(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, module.Name())
	}
}

func TestBuildStepsLocalFile(t *testing.T) {
	cfg := config.NewProcessingConfig()
	cfg.Input = "talk.mp4"

	steps := buildSteps(cfg)
	require.Len(t, steps, 4)

	assert.Equal(t, "extractaudio", steps[0].Module)
	assert.Equal(t, "talk.mp4", steps[0].Parameters["input"])

	assert.Equal(t, "transcribe", steps[1].Module)
	assert.Equal(t, "${audio}", steps[1].Parameters["input"])
	assert.Equal(t, filepath.Join(cfg.TempDir, "transcriptions.db"), steps[1].Parameters["cachePath"])

	assert.Equal(t, "highlights", steps[2].Module)
	assert.Equal(t, "${transcription}", steps[2].Parameters["input"])
	assert.Equal(t, "talk.mp4", steps[2].Parameters["videoFile"])
	// Highlight files are deliverables, they go next to the clips
	assert.Equal(t, cfg.OutputDir, steps[2].Parameters["output"])

	assert.Equal(t, "cut", steps[3].Module)
	assert.Equal(t, "${highlights}", steps[3].Parameters["input"])
	assert.Equal(t, cfg.OutputDir, steps[3].Parameters["output"])
}

func TestBuildStepsDownload(t *testing.T) {
	cfg := config.NewProcessingConfig()
	cfg.DownloadVideo = true
	cfg.URL = "https://www.youtube.com/watch?v=abc123"

	steps := buildSteps(cfg)
	require.Len(t, steps, 5)

	assert.Equal(t, "download", steps[0].Module)
	assert.Equal(t, cfg.URL, steps[0].Parameters["url"])

	// Later steps pick the downloaded file up through the placeholder
	assert.Equal(t, "${video}", steps[1].Parameters["input"])
	assert.Equal(t, "${video}", steps[3].Parameters["videoFile"])
	assert.Equal(t, "${video}", steps[4].Parameters["videoFile"])
}

func TestBuildStepsSubtitlesLanguage(t *testing.T) {
	cfg := config.NewProcessingConfig()
	cfg.Input = "talk.mp4"
	cfg.AddSubtitles = true
	cfg.SubtitlesLanguage = "ru"

	steps := buildSteps(cfg)
	require.Len(t, steps, 5)

	// A second whisper pass runs after the analysis so the cut step's
	// ${transcription} resolves to the subtitles language
	assert.Equal(t, "highlights", steps[2].Module)
	assert.Equal(t, "transcribe", steps[3].Module)
	assert.Equal(t, "transcribe subtitles", steps[3].Name)
	assert.Equal(t, "ru", steps[3].Parameters["language"])
	assert.Equal(t, "subtitles_transcription.json", steps[3].Parameters["outputFileName"])
	assert.Equal(t, "cut", steps[4].Module)
}

func TestBuildStepsSubtitlesSameLanguage(t *testing.T) {
	cfg := config.NewProcessingConfig()
	cfg.Input = "talk.mp4"
	cfg.AddSubtitles = true
	cfg.SubtitlesLanguage = cfg.Language

	// The first transcription already matches, no extra pass
	steps := buildSteps(cfg)
	require.Len(t, steps, 4)
	assert.Equal(t, "cut", steps[3].Module)
}
