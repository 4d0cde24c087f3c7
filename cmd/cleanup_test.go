package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clipName(index int, age time.Duration) string {
	ts := time.Now().Add(-age).Format("20060102_150405")
	return fmt.Sprintf("talk_highlight_%02d_%s.mp4", index, ts)
}

func writeClips(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("clip"), 0644))
	}
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestClipNamePattern(t *testing.T) {
	tests := []struct {
		name    string
		matches bool
	}{
		{"talk_highlight_01_20260825_143045.mp4", true},
		{"My Talk_highlight_12_20251231_235959.mp4", true},
		{"talk_highlight_01.mp4", false},
		{"random_video.mp4", false},
		{"talk_highlight_01_20260825_143045.wav", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.matches, clipNamePattern.MatchString(tt.name), tt.name)
	}
}

func TestCleanTempDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cut_01.mp4"), []byte("x"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "burn-abc"), 0755))

	require.NoError(t, cleanTempDir(dir, false))
	assert.Empty(t, listDir(t, dir))
}

func TestCleanTempDirDryRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cut_01.mp4"), []byte("x"), 0644))

	require.NoError(t, cleanTempDir(dir, true))
	assert.Len(t, listDir(t, dir), 1)
}

func TestCleanTempDirMissingIsNoop(t *testing.T) {
	assert.NoError(t, cleanTempDir(filepath.Join(t.TempDir(), "missing"), false))
}

func TestCleanClipsKeepLatest(t *testing.T) {
	dir := t.TempDir()
	oldest := clipName(1, 72*time.Hour)
	middle := clipName(2, 48*time.Hour)
	newest := clipName(3, time.Hour)
	writeClips(t, dir, oldest, middle, newest)

	require.NoError(t, cleanClips(dir, 1, 0, false))

	remaining := listDir(t, dir)
	require.Len(t, remaining, 1)
	assert.Equal(t, newest, remaining[0])
}

func TestCleanClipsOlderThan(t *testing.T) {
	dir := t.TempDir()
	old := clipName(1, 10*24*time.Hour)
	recent := clipName(2, time.Hour)
	writeClips(t, dir, old, recent)

	require.NoError(t, cleanClips(dir, 0, 7, false))

	remaining := listDir(t, dir)
	require.Len(t, remaining, 1)
	assert.Equal(t, recent, remaining[0])
}

func TestCleanClipsIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	writeClips(t, dir, clipName(1, 72*time.Hour), clipName(2, time.Hour))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "highlights.yaml"), []byte("x"), 0644))

	require.NoError(t, cleanClips(dir, 1, 0, false))

	remaining := listDir(t, dir)
	assert.Len(t, remaining, 2)
	assert.Contains(t, remaining, "highlights.yaml")
}

func TestCleanClipsDryRun(t *testing.T) {
	dir := t.TempDir()
	writeClips(t, dir, clipName(1, 72*time.Hour), clipName(2, time.Hour))

	require.NoError(t, cleanClips(dir, 1, 0, true))
	assert.Len(t, listDir(t, dir), 2)
}

func TestCleanClipsNoCriteriaIsNoop(t *testing.T) {
	// Without --keep-latest or --older-than nothing is pruned
	assert.NoError(t, cleanClips(filepath.Join(t.TempDir(), "missing"), 0, 0, false))
}

func TestCleanClipsMissingDirectory(t *testing.T) {
	err := cleanClips(filepath.Join(t.TempDir(), "missing"), 1, 0, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
