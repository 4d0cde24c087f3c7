// Package config holds the processing configuration for a pipeline run
package config

import (
	"fmt"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"

	"golang.org/x/text/language"
)

// Subtitle position choices
const (
	PositionTop    = "top"
	PositionCenter = "center"
	PositionBottom = "bottom"
)

// Defaults for the processing configuration
const (
	DefaultLanguage      = "en"
	DefaultNumHighlights = 10
	DefaultMinLength     = 15
	DefaultMaxLength     = 40
	DefaultPosition      = PositionBottom
	DefaultModel         = "open-mistral-nemo"
	DefaultOutputDir     = "output"
	DefaultVideosDir     = "videos"
	DefaultTempDir       = "temp"
	DefaultOverlayDir    = "additional_videos"
)

// ProcessingConfig is the configuration record driving a single pipeline run
type ProcessingConfig struct {
	DownloadVideo      bool   // fetch from URL instead of a local file
	URL                string // source URL when downloading
	Input              string // local video path when not downloading
	Language           string // transcription language (ISO 639 code)
	NumHighlights      int    // highlights requested from the model
	MinLength          int    // minimum clip length in seconds
	MaxLength          int    // maximum clip length in seconds
	AddSubtitles       bool   // burn subtitles into each clip
	SubtitlesLanguage  string // language for the subtitle pass
	SubtitlePosition   string // one of bottom, center, top
	UseAdditionalVideo bool   // composite a random overlay underneath
	OutputDir          string // final clip directory
	VideosDir          string // download directory
	TempDir            string // intermediate artifacts
	OverlayDir         string // overlay source pool
	Model              string // Mistral model name
	NoCache            bool   // bypass the transcription cache
}

// NewProcessingConfig returns a configuration populated with defaults
func NewProcessingConfig() *ProcessingConfig {
	return &ProcessingConfig{
		Language:           DefaultLanguage,
		NumHighlights:      DefaultNumHighlights,
		MinLength:          DefaultMinLength,
		MaxLength:          DefaultMaxLength,
		SubtitlesLanguage:  DefaultLanguage,
		SubtitlePosition:   DefaultPosition,
		UseAdditionalVideo: true,
		OutputDir:          DefaultOutputDir,
		VideosDir:          DefaultVideosDir,
		TempDir:            DefaultTempDir,
		OverlayDir:         DefaultOverlayDir,
		Model:              DefaultModel,
	}
}

// Validate checks value ranges and normalizes the configuration.
// An inverted min/max range is reset to defaults with a warning rather
// than rejected, matching the interactive flow.
func (c *ProcessingConfig) Validate() error {
	if c.NumHighlights <= 0 {
		return fmt.Errorf("number of highlights must be positive, got %d", c.NumHighlights)
	}

	if c.MinLength <= 0 {
		return fmt.Errorf("minimum highlight length must be positive, got %d", c.MinLength)
	}
	if c.MaxLength <= 0 {
		return fmt.Errorf("maximum highlight length must be positive, got %d", c.MaxLength)
	}

	if c.MinLength >= c.MaxLength {
		utils.LogWarning("Maximum length must be greater than minimum length. Using defaults (%d/%d).",
			DefaultMinLength, DefaultMaxLength)
		c.MinLength = DefaultMinLength
		c.MaxLength = DefaultMaxLength
	}

	switch c.SubtitlePosition {
	case PositionTop, PositionCenter, PositionBottom:
	default:
		return fmt.Errorf("subtitle position must be one of top, center, bottom; got %q", c.SubtitlePosition)
	}

	if err := validateLanguageTag(c.Language); err != nil {
		return fmt.Errorf("transcription language: %w", err)
	}
	if c.AddSubtitles {
		if err := validateLanguageTag(c.SubtitlesLanguage); err != nil {
			return fmt.Errorf("subtitles language: %w", err)
		}
	}

	if c.DownloadVideo {
		if c.URL == "" {
			return fmt.Errorf("a source URL is required when downloading")
		}
	} else if c.Input == "" {
		return fmt.Errorf("an input video file is required when not downloading")
	}

	return nil
}

// validateLanguageTag checks that a language code parses as a BCP 47 tag
func validateLanguageTag(code string) error {
	if code == "" {
		return fmt.Errorf("language code is empty")
	}
	if _, err := language.Parse(code); err != nil {
		return fmt.Errorf("invalid language code %q: %w", code, err)
	}
	return nil
}
