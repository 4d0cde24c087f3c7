// Package media wraps ffprobe for media metadata inspection
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// execCommand allows us to mock exec.CommandContext in tests
var execCommand = exec.CommandContext

// Info holds the probed metadata of a media file
type Info struct {
	Duration   float64
	Width      int
	Height     int
	FPS        float64
	VideoCodec string
	HasAudio   bool
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
	Format  probeFormat   `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

// Probe runs ffprobe against a media file and parses its JSON output
func Probe(ctx context.Context, filePath string) (*Info, error) {
	cmd := execCommand(ctx, "ffprobe",
		"-v", "error",
		"-show_streams",
		"-show_format",
		"-of", "json",
		filePath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe failed for %s: %w: %s", filePath, err, stderr.String())
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &Info{}

	if out.Format.Duration != "" {
		d, err := strconv.ParseFloat(out.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse duration %q: %w", out.Format.Duration, err)
		}
		info.Duration = d
	}

	for _, stream := range out.Streams {
		switch stream.CodecType {
		case "video":
			if info.Width == 0 {
				info.Width = stream.Width
				info.Height = stream.Height
				info.VideoCodec = stream.CodecName
				info.FPS = parseFrameRate(stream.AvgFrameRate)
			}
		case "audio":
			info.HasAudio = true
		}
	}

	return info, nil
}

// parseFrameRate converts an ffprobe rational like "30000/1001" to a float
func parseFrameRate(rate string) float64 {
	if rate == "" || rate == "0/0" {
		return 0
	}
	parts := strings.SplitN(rate, "/", 2)
	if len(parts) == 1 {
		f, _ := strconv.ParseFloat(parts[0], 64)
		return f
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
