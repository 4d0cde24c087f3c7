package subtitles

import (
	"fmt"
	"strings"
	"testing"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/config"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkSegmentsMaxWords(t *testing.T) {
	segments := []utils.Segment{
		{Text: "one two three four five six seven", Start: 0, End: 7},
	}

	chunks := ChunkSegments(segments)
	require.Len(t, chunks, 3)

	assert.Equal(t, "one two three", chunks[0].Text)
	assert.Equal(t, "four five six", chunks[1].Text)
	assert.Equal(t, "seven", chunks[2].Text)

	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(strings.Fields(chunk.Text)), MaxChunkWords)
	}
}

func TestChunkSegmentsProportionalTiming(t *testing.T) {
	// 6 words over 6 seconds: each 3-word chunk gets half the duration
	chunks := ChunkSegments([]utils.Segment{
		{Text: "a b c d e f", Start: 10, End: 16},
	})
	require.Len(t, chunks, 2)

	assert.InDelta(t, 10, chunks[0].Start, 0.001)
	assert.InDelta(t, 13, chunks[0].End, 0.001)
	assert.InDelta(t, 13, chunks[1].Start, 0.001)
	assert.InDelta(t, 16, chunks[1].End, 0.001)
}

func TestChunkSegmentsSkipsEmpty(t *testing.T) {
	chunks := ChunkSegments([]utils.Segment{
		{Text: "   ", Start: 0, End: 1},
		{Text: "real words", Start: 1, End: 2},
	})
	require.Len(t, chunks, 1)
	assert.Equal(t, "real words", chunks[0].Text)
}

func TestClipWindow(t *testing.T) {
	segments := []utils.Segment{
		{Text: "before", Start: 0, End: 9},
		{Text: "straddles start", Start: 9, End: 12},
		{Text: "inside", Start: 12, End: 18},
		{Text: "straddles end", Start: 18, End: 22},
		{Text: "after", Start: 25, End: 30},
	}

	window := ClipWindow(segments, 10, 20)
	require.Len(t, window, 1)
	assert.Equal(t, "inside", window[0].Text)
	assert.InDelta(t, 2, window[0].Start, 0.001)
	assert.InDelta(t, 8, window[0].End, 0.001)
}

func TestBuildASS(t *testing.T) {
	segments := []utils.Segment{
		{Text: "hello world", Start: 0, End: 1.5},
		{Text: "second line", Start: 1.5, End: 3},
	}

	doc := BuildASS(segments, config.PositionBottom, 1080, 1920)

	assert.Contains(t, doc, "PlayResX: 1080")
	assert.Contains(t, doc, "PlayResY: 1920")
	// Font size is 6% of frame height
	frameHeight := 1920
	fontSize := int(float64(frameHeight) * 0.06)
	assert.Contains(t, doc, fmt.Sprintf(",%d,", fontSize))
	assert.Contains(t, doc, "Dialogue: 0,0:00:00.00,0:00:01.50,Default,hello world")
	assert.Contains(t, doc, "Dialogue: 0,0:00:01.50,0:00:03.00,Default,second line")
}

func TestBuildASSMargins(t *testing.T) {
	segments := []utils.Segment{{Text: "x", Start: 0, End: 1}}

	tests := []struct {
		position string
		marginV  int
	}{
		{config.PositionTop, int(1920 * 0.15)},
		{config.PositionCenter, int(1920 * 0.45)},
		{config.PositionBottom, int(1920 * 0.80)},
	}

	for _, tt := range tests {
		t.Run(tt.position, func(t *testing.T) {
			doc := BuildASS(segments, tt.position, 1080, 1920)
			assert.Contains(t, doc, fmt.Sprintf(",%d\n", tt.marginV))
		})
	}
}

func TestAssTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00:00.00"},
		{1.5, "0:00:01.50"},
		{61.25, "0:01:01.25"},
		{3725.99, "1:02:05.98"},
		{-2, "0:00:00.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, assTimestamp(tt.seconds))
	}
}

func TestEscapeText(t *testing.T) {
	assert.Equal(t, "(tag) text", escapeText("{tag} text"))
	assert.Equal(t, "a\\\\b", escapeText(`a\b`))
	assert.Equal(t, "line\\None", escapeText("line\none"))
}
