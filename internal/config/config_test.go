package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessingConfigDefaults(t *testing.T) {
	cfg := NewProcessingConfig()

	assert.Equal(t, DefaultLanguage, cfg.Language)
	assert.Equal(t, DefaultNumHighlights, cfg.NumHighlights)
	assert.Equal(t, DefaultMinLength, cfg.MinLength)
	assert.Equal(t, DefaultMaxLength, cfg.MaxLength)
	assert.Equal(t, DefaultPosition, cfg.SubtitlePosition)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.True(t, cfg.UseAdditionalVideo)
	assert.False(t, cfg.AddSubtitles)
}

func TestValidate(t *testing.T) {
	valid := func() *ProcessingConfig {
		cfg := NewProcessingConfig()
		cfg.Input = "video.mp4"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*ProcessingConfig)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *ProcessingConfig) {},
		},
		{
			name:    "zero highlights",
			mutate:  func(c *ProcessingConfig) { c.NumHighlights = 0 },
			wantErr: "number of highlights",
		},
		{
			name:    "negative highlights",
			mutate:  func(c *ProcessingConfig) { c.NumHighlights = -3 },
			wantErr: "number of highlights",
		},
		{
			name:    "zero min length",
			mutate:  func(c *ProcessingConfig) { c.MinLength = 0 },
			wantErr: "minimum highlight length",
		},
		{
			name:    "zero max length",
			mutate:  func(c *ProcessingConfig) { c.MaxLength = 0 },
			wantErr: "maximum highlight length",
		},
		{
			name:    "bad subtitle position",
			mutate:  func(c *ProcessingConfig) { c.SubtitlePosition = "middle" },
			wantErr: "subtitle position",
		},
		{
			name:    "bad language tag",
			mutate:  func(c *ProcessingConfig) { c.Language = "not a language" },
			wantErr: "transcription language",
		},
		{
			name: "bad subtitles language only checked when enabled",
			mutate: func(c *ProcessingConfig) {
				c.SubtitlesLanguage = "???"
			},
		},
		{
			name: "bad subtitles language rejected when enabled",
			mutate: func(c *ProcessingConfig) {
				c.AddSubtitles = true
				c.SubtitlesLanguage = "???"
			},
			wantErr: "subtitles language",
		},
		{
			name: "download requires url",
			mutate: func(c *ProcessingConfig) {
				c.DownloadVideo = true
				c.Input = ""
			},
			wantErr: "source URL",
		},
		{
			name:    "local run requires input",
			mutate:  func(c *ProcessingConfig) { c.Input = "" },
			wantErr: "input video file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateResetsInvertedRange(t *testing.T) {
	cfg := NewProcessingConfig()
	cfg.Input = "video.mp4"
	cfg.MinLength = 60
	cfg.MaxLength = 30

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultMinLength, cfg.MinLength)
	assert.Equal(t, DefaultMaxLength, cfg.MaxLength)
}

func TestValidateResetsEqualRange(t *testing.T) {
	cfg := NewProcessingConfig()
	cfg.Input = "video.mp4"
	cfg.MinLength = 30
	cfg.MaxLength = 30

	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultMinLength, cfg.MinLength)
	assert.Equal(t, DefaultMaxLength, cfg.MaxLength)
}

func TestPrompterYesNo(t *testing.T) {
	tests := []struct {
		name  string
		input string
		def   bool
		want  bool
	}{
		{name: "empty uses default true", input: "\n", def: true, want: true},
		{name: "empty uses default false", input: "\n", def: false, want: false},
		{name: "yes", input: "y\n", def: false, want: true},
		{name: "no", input: "no\n", def: true, want: false},
		{name: "garbage then yes", input: "maybe\nyes\n", def: false, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out strings.Builder
			p := NewPrompter(strings.NewReader(tt.input), &out)
			got, err := p.YesNo("Question?", tt.def)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrompterInt(t *testing.T) {
	var out strings.Builder
	p := NewPrompter(strings.NewReader("abc\n0\n7\n"), &out)

	got, err := p.Int("Number of highlights", 10, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Contains(t, out.String(), "valid number")
	assert.Contains(t, out.String(), "at least 1")
}

func TestPrompterLanguageCode(t *testing.T) {
	var out strings.Builder
	p := NewPrompter(strings.NewReader("english\nru\n"), &out)

	got, err := p.LanguageCode("Language", "en")
	require.NoError(t, err)
	assert.Equal(t, "ru", got)
}

func TestPrompterPosition(t *testing.T) {
	var out strings.Builder
	p := NewPrompter(strings.NewReader("middle\ncenter\n"), &out)

	got, err := p.Position("Position", PositionBottom)
	require.NoError(t, err)
	assert.Equal(t, PositionCenter, got)
}

func TestInteractiveConfig(t *testing.T) {
	// Answers: no download, video name, language, highlights, min, max,
	// subtitles yes, subtitles language, position, overlay no
	input := strings.Join([]string{
		"n",          // download?
		"talk.mp4",   // video name
		"",           // language default
		"5",          // highlights
		"20",         // min length
		"45",         // max length
		"y",          // subtitles
		"ru",         // subtitles language
		"top",        // position
		"n",          // overlay
	}, "\n") + "\n"

	var out strings.Builder
	p := NewPrompter(strings.NewReader(input), &out)

	cfg, err := p.InteractiveConfig()
	require.NoError(t, err)

	assert.False(t, cfg.DownloadVideo)
	// Bare file names resolve into the videos directory
	assert.Equal(t, filepath.Join(DefaultVideosDir, "talk.mp4"), cfg.Input)
	assert.Equal(t, DefaultLanguage, cfg.Language)
	assert.Equal(t, 5, cfg.NumHighlights)
	assert.Equal(t, 20, cfg.MinLength)
	assert.Equal(t, 45, cfg.MaxLength)
	assert.True(t, cfg.AddSubtitles)
	assert.Equal(t, "ru", cfg.SubtitlesLanguage)
	assert.Equal(t, PositionTop, cfg.SubtitlePosition)
	assert.False(t, cfg.UseAdditionalVideo)
}

func TestInteractiveConfigKeepsExplicitPath(t *testing.T) {
	input := strings.Join([]string{
		"n",                  // download?
		"clips/my talk.mp4",  // already a path, used as given
		"", "", "", "",       // language, highlights, min, max defaults
		"n",                  // subtitles
		"",                   // overlay default
	}, "\n") + "\n"

	var out strings.Builder
	cfg, err := NewPrompter(strings.NewReader(input), &out).InteractiveConfig()
	require.NoError(t, err)
	assert.Equal(t, "clips/my talk.mp4", cfg.Input)
}
