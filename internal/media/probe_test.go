package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const probeJSON = `{
	"streams": [
		{"codec_type": "video", "codec_name": "h264", "width": 1920, "height": 1080, "avg_frame_rate": "30000/1001"},
		{"codec_type": "audio", "codec_name": "aac"}
	],
	"format": {"duration": "123.456"}
}`

// fakeExecCommand routes the probe through the helper process
func fakeExecCommand(ctx context.Context, command string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", command}
	cs = append(cs, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = []string{
		"GO_WANT_HELPER_PROCESS=1",
		"HELPER_OUTPUT=" + os.Getenv("HELPER_OUTPUT"),
		"HELPER_FAIL=" + os.Getenv("HELPER_FAIL"),
	}
	return cmd
}

// TestHelperProcess is not a real test, it's used to mock exec.CommandContext
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if os.Getenv("HELPER_FAIL") == "1" {
		fmt.Fprintln(os.Stderr, "ffprobe: no such file")
		os.Exit(1)
	}
	fmt.Print(os.Getenv("HELPER_OUTPUT"))
	os.Exit(0)
}

func TestProbe(t *testing.T) {
	execCommand = fakeExecCommand
	defer func() { execCommand = exec.CommandContext }()

	t.Setenv("HELPER_OUTPUT", probeJSON)
	t.Setenv("HELPER_FAIL", "")

	info, err := Probe(context.Background(), "input.mp4")
	require.NoError(t, err)

	assert.InDelta(t, 123.456, info.Duration, 0.001)
	assert.Equal(t, 1920, info.Width)
	assert.Equal(t, 1080, info.Height)
	assert.Equal(t, "h264", info.VideoCodec)
	assert.InDelta(t, 29.97, info.FPS, 0.01)
	assert.True(t, info.HasAudio)
}

func TestProbeNoAudio(t *testing.T) {
	execCommand = fakeExecCommand
	defer func() { execCommand = exec.CommandContext }()

	t.Setenv("HELPER_OUTPUT", `{
		"streams": [{"codec_type": "video", "codec_name": "vp9", "width": 640, "height": 360, "avg_frame_rate": "25/1"}],
		"format": {"duration": "10.0"}
	}`)
	t.Setenv("HELPER_FAIL", "")

	info, err := Probe(context.Background(), "silent.webm")
	require.NoError(t, err)
	assert.False(t, info.HasAudio)
	assert.Equal(t, 25.0, info.FPS)
}

func TestProbeCommandFailure(t *testing.T) {
	execCommand = fakeExecCommand
	defer func() { execCommand = exec.CommandContext }()

	t.Setenv("HELPER_OUTPUT", "")
	t.Setenv("HELPER_FAIL", "1")

	_, err := Probe(context.Background(), "missing.mp4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file")
}

func TestProbeBadJSON(t *testing.T) {
	execCommand = fakeExecCommand
	defer func() { execCommand = exec.CommandContext }()

	t.Setenv("HELPER_OUTPUT", "not json")
	t.Setenv("HELPER_FAIL", "")

	_, err := Probe(context.Background(), "input.mp4")
	assert.Error(t, err)
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		rate string
		want float64
	}{
		{"30000/1001", 29.97},
		{"25/1", 25},
		{"30", 30},
		{"0/0", 0},
		{"", 0},
		{"abc/def", 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, parseFrameRate(tt.rate), 0.01, tt.rate)
	}
}
