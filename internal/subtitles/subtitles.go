// Package subtitles builds short-phrase subtitles for vertical clips and
// burns them into video with ffmpeg
package subtitles

import (
	"fmt"
	"strings"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/config"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"
)

// MaxChunkWords is the maximum number of words shown at once
const MaxChunkWords = 3

// Vertical placement of the subtitle baseline, as a fraction of video
// height from the top. Bottom and top leave the platform UI safe zones
// (avatar/description at the top, buttons and music at the bottom) clear.
const (
	topFraction    = 0.15
	centerFraction = 0.45
	bottomFraction = 0.80
)

// ChunkSegments splits each segment into chunks of at most MaxChunkWords
// words, with chunk timing allotted proportionally to word count
func ChunkSegments(segments []utils.Segment) []utils.Segment {
	var chunks []utils.Segment
	for _, seg := range segments {
		words := strings.Fields(seg.Text)
		if len(words) == 0 {
			continue
		}

		duration := seg.End - seg.Start
		for i := 0; i < len(words); i += MaxChunkWords {
			end := i + MaxChunkWords
			if end > len(words) {
				end = len(words)
			}
			chunk := words[i:end]

			chunkStart := seg.Start + duration*(float64(i)/float64(len(words)))
			chunkEnd := chunkStart + duration*(float64(len(chunk))/float64(len(words)))

			chunks = append(chunks, utils.Segment{
				Text:  strings.Join(chunk, " "),
				Start: chunkStart,
				End:   chunkEnd,
			})
		}
	}
	return chunks
}

// ClipWindow keeps the segments fully inside [start, end] and re-bases
// their times to be clip-relative
func ClipWindow(segments []utils.Segment, start, end float64) []utils.Segment {
	var window []utils.Segment
	for _, seg := range segments {
		if seg.Start < start || seg.End > end {
			continue
		}
		window = append(window, utils.Segment{
			Text:  seg.Text,
			Start: seg.Start - start,
			End:   seg.End - start,
		})
	}
	return window
}

// BuildASS renders segments as an ASS subtitle document sized for the
// given frame, with the style block placing text per the position choice
func BuildASS(segments []utils.Segment, position string, width, height int) string {
	fontSize := int(float64(height) * 0.06)
	marginV := verticalMargin(position, height)

	var b strings.Builder

	b.WriteString("[Script Info]\n")
	b.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&b, "PlayResX: %d\n", width)
	fmt.Fprintf(&b, "PlayResY: %d\n", height)
	b.WriteString("WrapStyle: 0\n\n")

	b.WriteString("[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, OutlineColour, Bold, Outline, Shadow, Alignment, MarginL, MarginR, MarginV\n")
	// Alignment 8 = top center; the style margin carries the vertical offset
	fmt.Fprintf(&b, "Style: Default,Roboto Medium,%d,&H00FFFFFF,&H00000000,1,2,0,8,%d,%d,%d\n\n",
		fontSize, width*15/100, width*15/100, marginV)

	b.WriteString("[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Text\n")
	for _, seg := range segments {
		fmt.Fprintf(&b, "Dialogue: 0,%s,%s,Default,%s\n",
			assTimestamp(seg.Start), assTimestamp(seg.End), escapeText(seg.Text))
	}

	return b.String()
}

// verticalMargin returns the pixel offset from the top of the frame
func verticalMargin(position string, height int) int {
	switch position {
	case config.PositionTop:
		return int(float64(height) * topFraction)
	case config.PositionCenter:
		return int(float64(height) * centerFraction)
	default:
		return int(float64(height) * bottomFraction)
	}
}

// assTimestamp formats seconds as H:MM:SS.cc
func assTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	centis := int((seconds - float64(total)) * 100)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, centis)
}

// escapeText guards against characters ASS treats specially
func escapeText(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, "{", "(")
	text = strings.ReplaceAll(text, "}", ")")
	text = strings.ReplaceAll(text, "\n", "\\N")
	return text
}
