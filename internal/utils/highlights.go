package utils

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Highlight is a time-bounded segment of the source video chosen by the
// language model as engaging content. Times are in seconds.
type Highlight struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Content string  `json:"content"`
}

// Duration returns the highlight length in seconds
func (h Highlight) Duration() float64 {
	return h.End - h.Start
}

// HighlightClip is a single highlight entry in the highlights.yaml artifact
type HighlightClip struct {
	Title     string `yaml:"title"`
	StartTime string `yaml:"startTime"`
	EndTime   string `yaml:"endTime"`
	Content   string `yaml:"content"`
	ClipFile  string `yaml:"clipFile,omitempty"`
}

// HighlightsData represents the structure of the highlights.yaml file
type HighlightsData struct {
	SourceVideo string          `yaml:"sourceVideo"`
	Highlights  []HighlightClip `yaml:"highlights"`
}

// ReadHighlightsFile reads and parses a highlights.yaml file
func ReadHighlightsFile(filePath string) (*HighlightsData, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var highlightsData HighlightsData
	if err := yaml.Unmarshal(data, &highlightsData); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &highlightsData, nil
}

// WriteHighlightsFile writes a highlights.yaml file
func WriteHighlightsFile(filePath string, data *HighlightsData) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, out, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// ListHighlights logs the highlights available for upload
func ListHighlights(data *HighlightsData) {
	LogInfo("Available highlight clips:")
	for i, clip := range data.Highlights {
		LogInfo("%d. Title: %s", i+1, Emphasis(clip.Title))
		LogInfo("   Range: %s - %s", clip.StartTime, clip.EndTime)
		if start, err := ParseTimestamp(clip.StartTime); err == nil {
			if end, err := ParseTimestamp(clip.EndTime); err == nil {
				LogInfo("   Duration: %.0fs", end-start)
			}
		}
		if clip.ClipFile != "" {
			LogInfo("   File: %s", clip.ClipFile)
		}
		LogInfo("---")
	}
}

// FormatTimestamp converts seconds to an HH:MM:SS string
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ParseTimestamp converts an HH:MM:SS string to seconds
func ParseTimestamp(timestamp string) (float64, error) {
	if err := ValidateTimestampFormat(timestamp); err != nil {
		return 0, err
	}

	var h, m, s int
	if _, err := fmt.Sscanf(timestamp, "%d:%d:%d", &h, &m, &s); err != nil {
		return 0, fmt.Errorf("failed to parse timestamp %s: %w", timestamp, err)
	}

	return float64(h*3600 + m*60 + s), nil
}

// TitleFromContent derives a short clip title from highlight content
func TitleFromContent(content string, maxWords int) string {
	words := strings.Fields(content)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	title := strings.Join(words, " ")
	return strings.TrimRight(title, ".,!?;:")
}
