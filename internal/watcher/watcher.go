// Package watcher runs the pipeline for every new video dropped into a directory
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"

	"github.com/fsnotify/fsnotify"
)

// Supported video extensions
var videoExtensions = []string{
	".mp4", ".mov", ".avi", ".mkv", ".wmv", ".flv", ".webm", ".m4v", ".mpg", ".mpeg", ".3gp",
}

// isVideoFile checks if a file has a video extension
func isVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, videoExt := range videoExtensions {
		if ext == videoExt {
			return true
		}
	}
	return false
}

// Handler processes one newly arrived video file
type Handler func(ctx context.Context, path string) error

// Watcher watches an inbox directory for new video files
type Watcher struct {
	Dir           string
	SettleDelay   time.Duration
	MaxConcurrent int

	handler Handler
}

// New creates a watcher for dir that calls handler for every new video
func New(dir string, handler Handler) *Watcher {
	return &Watcher{
		Dir:           dir,
		SettleDelay:   2 * time.Second,
		MaxConcurrent: 1,
		handler:       handler,
	}
}

// Run watches the directory until ctx is cancelled. In-flight handlers are
// allowed to finish before Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	info, err := os.Stat(w.Dir)
	if err != nil {
		return fmt.Errorf("failed to stat watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path %s is not a directory", w.Dir)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		if err := fsWatcher.Close(); err != nil {
			utils.LogWarning("Failed to close watcher: %v", err)
		}
	}()

	if err := fsWatcher.Add(w.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.Dir, err)
	}

	maxConcurrent := w.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	semaphore := make(chan struct{}, maxConcurrent)

	var wg sync.WaitGroup
	defer wg.Wait()

	utils.LogInfo("Watching %s for new videos...", w.Dir)

	for {
		select {
		case <-ctx.Done():
			utils.LogInfo("Stopping watcher...")
			return nil
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) || !isVideoFile(event.Name) {
				continue
			}

			path := event.Name
			wg.Add(1)
			go func() {
				defer wg.Done()

				select {
				case semaphore <- struct{}{}:
				case <-ctx.Done():
					return
				}
				defer func() { <-semaphore }()

				if err := w.waitForSettle(ctx, path); err != nil {
					utils.LogWarning("Skipping %s: %v", path, err)
					return
				}

				utils.LogInfo("Processing new video: %s", path)
				if err := w.handler(ctx, path); err != nil {
					utils.LogError("Failed to process %s: %v", path, err)
				}
			}()
		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			utils.LogWarning("Watcher error: %v", err)
		}
	}
}

// waitForSettle waits until the file size stops changing. Files dropped into
// the inbox are often still being copied when the Create event fires.
func (w *Watcher) waitForSettle(ctx context.Context, path string) error {
	var lastSize int64 = -1

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.SettleDelay):
		}

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("file disappeared while settling: %w", err)
		}

		if info.Size() == lastSize {
			return nil
		}
		lastSize = info.Size()
	}
}
