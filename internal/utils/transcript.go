package utils

import (
	"encoding/json"
	"fmt"
	"os"
)

// Segment is a single timestamped piece of transcribed speech.
// Times are in seconds from the start of the media.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns the segment length in seconds
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// LoadTranscription reads a transcription JSON file (a list of segments)
func LoadTranscription(filePath string) ([]Segment, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcription file: %w", err)
	}

	var segments []Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fmt.Errorf("failed to parse transcription JSON: %w", err)
	}

	return segments, nil
}

// SaveTranscription writes segments to a transcription JSON file
func SaveTranscription(segments []Segment, filePath string) error {
	data, err := json.MarshalIndent(segments, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcription: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write transcription file: %w", err)
	}

	return nil
}
