package cut

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeExecCommand records each ffmpeg invocation and routes it through the
// helper process, which creates the output file like ffmpeg would
var recordedArgs [][]string

func fakeExecCommand(ctx context.Context, command string, args ...string) *exec.Cmd {
	recordedArgs = append(recordedArgs, append([]string{command}, args...))
	cs := []string{"-test.run=TestHelperProcess", "--", command}
	cs = append(cs, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = []string{
		"GO_WANT_HELPER_PROCESS=1",
		"HELPER_FAIL=" + os.Getenv("HELPER_FAIL"),
	}
	return cmd
}

// TestHelperProcess is not a real test, it's used to mock exec.CommandContext.
// ffmpeg's output path is always the last argument.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	if os.Getenv("HELPER_FAIL") == "1" {
		fmt.Fprintln(os.Stderr, "ffmpeg: filter failed")
		os.Exit(1)
	}

	args := os.Args
	out := args[len(args)-1]
	if err := os.WriteFile(out, []byte("clip data"), 0644); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}

func writeHighlights(t *testing.T, dir string, highlights []utils.Highlight) string {
	t.Helper()
	data, err := json.Marshal(highlights)
	require.NoError(t, err)
	path := filepath.Join(dir, "highlights.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func writeVideo(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("video"), 0644))
	return path
}

func TestModule_Name(t *testing.T) {
	assert.Equal(t, "cut", New().Name())
}

func TestModule_Validate(t *testing.T) {
	utils.ExecLookPath = func(name string) (string, error) { return "/usr/bin/" + name, nil }
	defer func() { utils.ExecLookPath = exec.LookPath }()

	dir := t.TempDir()
	input := writeHighlights(t, dir, []utils.Highlight{{Start: 1, End: 20, Content: "x"}})
	video := writeVideo(t, dir, "talk.mp4")
	module := New()

	assert.NoError(t, module.Validate(map[string]interface{}{
		"input":     input,
		"videoFile": video,
		"output":    dir,
	}))

	assert.Error(t, module.Validate(map[string]interface{}{
		"input":  input,
		"output": dir,
	}))

	err := module.Validate(map[string]interface{}{
		"input":        input,
		"videoFile":    video,
		"output":       dir,
		"addSubtitles": true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transcription is required")
}

func TestModule_ExecuteFullLayout(t *testing.T) {
	execCommand = fakeExecCommand
	recordedArgs = nil
	defer func() { execCommand = exec.CommandContext }()
	t.Setenv("HELPER_FAIL", "")

	dir := t.TempDir()
	tempDir := filepath.Join(dir, "temp")
	outDir := filepath.Join(dir, "out")
	video := writeVideo(t, dir, "talk.mp4")
	input := writeHighlights(t, dir, []utils.Highlight{
		{Start: 10, End: 35, Content: "first"},
		{Start: 60, End: 90, Content: "second"},
	})

	result, err := New().Execute(context.Background(), map[string]interface{}{
		"input":     input,
		"videoFile": video,
		"output":    outDir,
		"tempDir":   tempDir,
	})
	require.NoError(t, err)

	assert.Equal(t, outDir, result.Outputs["clips"])
	assert.Equal(t, 2, result.Statistics["highlights"])
	assert.Equal(t, 2, result.Statistics["clips"])

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	pattern := regexp.MustCompile(`^talk_highlight_\d{2}_\d{8}_\d{6}\.mp4$`)
	for _, entry := range entries {
		assert.Regexp(t, pattern, entry.Name())
	}

	// Two passes per highlight: stream-copy cut then layout re-encode
	require.Len(t, recordedArgs, 4)
	assert.Contains(t, recordedArgs[0], "-ss")
	assert.Contains(t, recordedArgs[0], "copy")
	assert.Contains(t, recordedArgs[1], FullLayoutFilter())

	// Intermediates are cleaned up
	leftovers, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestModule_ExecuteSplitLayout(t *testing.T) {
	execCommand = fakeExecCommand
	recordedArgs = nil
	randIntn = func(n int) int { return 0 }
	defer func() {
		execCommand = exec.CommandContext
		randIntn = rand.Intn
	}()
	t.Setenv("HELPER_FAIL", "")

	dir := t.TempDir()
	overlayDir := filepath.Join(dir, "overlays")
	require.NoError(t, os.MkdirAll(overlayDir, 0755))
	writeVideo(t, overlayDir, "gameplay.mp4")

	video := writeVideo(t, dir, "talk.mp4")
	input := writeHighlights(t, dir, []utils.Highlight{{Start: 5, End: 25, Content: "x"}})

	result, err := New().Execute(context.Background(), map[string]interface{}{
		"input":              input,
		"videoFile":          video,
		"output":             filepath.Join(dir, "out"),
		"tempDir":            filepath.Join(dir, "temp"),
		"useAdditionalVideo": true,
		"overlayDir":         overlayDir,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Statistics["clips"])

	var sawStack bool
	for _, args := range recordedArgs {
		for _, arg := range args {
			if strings.Contains(arg, "vstack") {
				sawStack = true
			}
		}
	}
	assert.True(t, sawStack, "expected a stacked layout pass")
}

func TestModule_ExecuteAnnotatesSummary(t *testing.T) {
	execCommand = fakeExecCommand
	recordedArgs = nil
	defer func() { execCommand = exec.CommandContext }()
	t.Setenv("HELPER_FAIL", "")

	dir := t.TempDir()
	video := writeVideo(t, dir, "talk.mp4")
	input := writeHighlights(t, dir, []utils.Highlight{{Start: 5, End: 25, Content: "x"}})

	summaryPath := filepath.Join(dir, "highlights.yaml")
	require.NoError(t, utils.WriteHighlightsFile(summaryPath, &utils.HighlightsData{
		Highlights: []utils.HighlightClip{
			{StartTime: "00:00:05", EndTime: "00:00:25", Title: "x"},
		},
	}))

	_, err := New().Execute(context.Background(), map[string]interface{}{
		"input":     input,
		"videoFile": video,
		"output":    filepath.Join(dir, "out"),
		"tempDir":   filepath.Join(dir, "temp"),
		"summary":   summaryPath,
	})
	require.NoError(t, err)

	data, err := utils.ReadHighlightsFile(summaryPath)
	require.NoError(t, err)
	require.Len(t, data.Highlights, 1)
	assert.Regexp(t, `^talk_highlight_01_\d{8}_\d{6}\.mp4$`, data.Highlights[0].ClipFile)
}

func TestModule_ExecuteSkipsFailedHighlight(t *testing.T) {
	execCommand = fakeExecCommand
	recordedArgs = nil
	defer func() { execCommand = exec.CommandContext }()
	t.Setenv("HELPER_FAIL", "1")

	dir := t.TempDir()
	video := writeVideo(t, dir, "talk.mp4")
	input := writeHighlights(t, dir, []utils.Highlight{{Start: 5, End: 25, Content: "x"}})

	_, err := New().Execute(context.Background(), map[string]interface{}{
		"input":     input,
		"videoFile": video,
		"output":    filepath.Join(dir, "out"),
		"tempDir":   filepath.Join(dir, "temp"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no clips could be produced")
}

func TestModule_ExecuteEmptyHighlights(t *testing.T) {
	dir := t.TempDir()
	video := writeVideo(t, dir, "talk.mp4")
	input := writeHighlights(t, dir, []utils.Highlight{})

	_, err := New().Execute(context.Background(), map[string]interface{}{
		"input":     input,
		"videoFile": video,
		"output":    dir,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is empty")
}

func TestCutArgs(t *testing.T) {
	args := CutArgs("talk.mp4", 10.5, 35.25, "/tmp/cut_01.mp4")
	assert.Equal(t, []string{
		"-ss", "10.500",
		"-to", "35.250",
		"-i", "talk.mp4",
		"-c", "copy",
		"-y",
		"-loglevel", "error",
		"/tmp/cut_01.mp4",
	}, args)
}

func TestFullLayoutFilter(t *testing.T) {
	assert.Equal(t,
		"crop='min(iw,ih*9/16)':'min(ih,iw*16/9)',scale=1080:1920",
		FullLayoutFilter())
}

func TestSplitLayoutFilter(t *testing.T) {
	filter := SplitLayoutFilter()
	// Both halves are 1080x960, overlay stacked above the main video
	assert.Contains(t, filter, "scale=1080:960[main]")
	assert.Contains(t, filter, "scale=1080:960[extra]")
	assert.Contains(t, filter, "[extra][main]vstack=inputs=2[v]")
}

func TestSplitLayoutArgs(t *testing.T) {
	args := SplitLayoutArgs("in.mp4", "overlay.mp4", 12, 20, "out.mp4")

	// The seek applies to the overlay input only
	assert.Equal(t, []string{"-i", "in.mp4", "-stream_loop", "-1", "-ss", "12.000"}, args[:6])
	assert.Contains(t, args, "-filter_complex")
	assert.Contains(t, args, "[v]")
	assert.Contains(t, args, "0:a?")
	assert.Contains(t, args, "-shortest")

	// No seek when the overlay starts from the beginning
	args = SplitLayoutArgs("in.mp4", "overlay.mp4", 0, 20, "out.mp4")
	assert.NotContains(t, args, "-ss")
}

func TestClipFileName(t *testing.T) {
	now := time.Date(2026, 8, 25, 14, 30, 45, 0, time.UTC)
	name := ClipFileName("/videos/My Talk.mp4", 3, now)
	assert.Equal(t, "My Talk_highlight_03_20260825_143045.mp4", name)
}
