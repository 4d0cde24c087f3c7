package highlights

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"
)

// ParseHighlightsResponse decodes the model's reply into highlights.
// Models wrap JSON in markdown fences or chatter around it often enough
// that a strict decode of the raw reply is not good enough.
func ParseHighlightsResponse(response string) ([]utils.Highlight, error) {
	candidate := stripCodeFences(response)

	var highlights []utils.Highlight
	if err := json.Unmarshal([]byte(candidate), &highlights); err == nil {
		return validateHighlights(highlights)
	}

	extracted, ok := extractJSONArray(candidate)
	if !ok {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	if err := json.Unmarshal([]byte(extracted), &highlights); err != nil {
		return nil, fmt.Errorf("failed to decode highlights array: %w", err)
	}

	return validateHighlights(highlights)
}

// validateHighlights drops entries with inverted or missing time ranges
func validateHighlights(highlights []utils.Highlight) ([]utils.Highlight, error) {
	var valid []utils.Highlight
	for _, h := range highlights {
		if h.End <= h.Start {
			utils.LogWarning("Dropping highlight with invalid range %.2f-%.2f", h.Start, h.End)
			continue
		}
		valid = append(valid, h)
	}

	if len(valid) == 0 {
		return nil, fmt.Errorf("response contained no usable highlights")
	}
	return valid, nil
}

// stripCodeFences removes a surrounding markdown code block, if any
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// extractJSONArray returns the first balanced top-level JSON array in s
func extractJSONArray(s string) (string, bool) {
	start := strings.Index(s, "[")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// FixTimestamps snaps a highlight's start and end back onto transcript
// segment boundaries by matching its first and last sentences. The model
// is unreliable with timestamps even when told to copy them verbatim.
func FixTimestamps(h utils.Highlight, segments []utils.Segment) utils.Highlight {
	sentences := splitSentences(h.Content)
	if len(sentences) == 0 {
		return h
	}

	first := sentences[0]
	last := sentences[len(sentences)-1]

	var startSegment, endSegment *utils.Segment
	for i := range segments {
		seg := &segments[i]
		if startSegment == nil && strings.Contains(seg.Text, first) {
			startSegment = seg
		}
		if strings.Contains(seg.Text, last) {
			endSegment = seg
		}
		if startSegment != nil && endSegment != nil {
			break
		}
	}

	if startSegment != nil {
		h.Start = startSegment.Start
	}
	if endSegment != nil {
		h.End = endSegment.End
	}
	return h
}

// splitSentences splits text on sentence-ending punctuation followed by
// whitespace
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(strings.TrimSpace(text))
	for i := 0; i < len(runes); i++ {
		current.WriteRune(runes[i])
		if isSentenceEnd(runes[i]) && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
