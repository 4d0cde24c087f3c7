package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"

	"github.com/spf13/cobra"
)

var (
	cleanupTempDir  string
	cleanupClipsDir string
	keepLatest      int
	olderThanDays   int
	cleanupDryRun   bool
	cleanupKeepTemp bool
)

// clipNamePattern matches produced clip names and captures their timestamp
var clipNamePattern = regexp.MustCompile(`_highlight_\d+_(\d{8}_\d{6})\.mp4$`)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove temp artifacts and old clips",
	Long:  `Delete intermediate artifacts and prune produced clips by age or count.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cleanupKeepTemp {
			if err := cleanTempDir(cleanupTempDir, cleanupDryRun); err != nil {
				return err
			}
		}
		return cleanClips(cleanupClipsDir, keepLatest, olderThanDays, cleanupDryRun)
	},
}

// cleanTempDir removes everything inside the temp directory
func cleanTempDir(dir string, dryRun bool) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		utils.LogVerbose("Temp directory %s does not exist, nothing to clean", dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read temp directory: %w", err)
	}

	for _, entry := range entries {
		fullPath := filepath.Join(dir, entry.Name())
		if dryRun {
			utils.LogInfo("Would delete %s", fullPath)
			continue
		}
		utils.LogVerbose("Deleting %s", fullPath)
		if err := os.RemoveAll(fullPath); err != nil {
			utils.LogError("Error deleting %s: %v", fullPath, err)
		}
	}

	if !dryRun {
		utils.LogSuccess("Temp directory cleaned")
	}
	return nil
}

// cleanClips prunes produced clips by age and count
func cleanClips(dir string, keep, olderThan int, dryRun bool) error {
	if keep <= 0 && olderThan <= 0 {
		return nil
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("clips directory %s does not exist", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read clips directory: %w", err)
	}

	type clip struct {
		name      string
		timestamp time.Time
	}

	var clips []clip
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := clipNamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		ts, err := time.ParseInLocation("20060102_150405", match[1], time.Local)
		if err != nil {
			continue
		}
		clips = append(clips, clip{name: entry.Name(), timestamp: ts})
	}

	if len(clips) == 0 {
		utils.LogInfo("No clips found in %s", dir)
		return nil
	}

	// Oldest first
	sort.Slice(clips, func(i, j int) bool {
		return clips[i].timestamp.Before(clips[j].timestamp)
	})

	toDelete := make(map[string]bool)

	if keep > 0 && len(clips) > keep {
		for _, c := range clips[:len(clips)-keep] {
			toDelete[c.name] = true
		}
	}

	if olderThan > 0 {
		cutoff := time.Now().AddDate(0, 0, -olderThan)
		for _, c := range clips {
			if c.timestamp.Before(cutoff) {
				toDelete[c.name] = true
			}
		}
	}

	if len(toDelete) == 0 {
		utils.LogInfo("No clips to delete")
		return nil
	}

	var names []string
	for name := range toDelete {
		names = append(names, name)
	}
	sort.Strings(names)

	utils.LogInfo("Found %d clips to delete:\n- %s", len(names), strings.Join(names, "\n- "))

	if dryRun {
		utils.LogInfo("Dry run - no clips were deleted")
		return nil
	}

	for _, name := range names {
		fullPath := filepath.Join(dir, name)
		utils.LogVerbose("Deleting %s", fullPath)
		if err := os.Remove(fullPath); err != nil {
			utils.LogError("Error deleting %s: %v", fullPath, err)
		}
	}

	utils.LogSuccess("Cleanup completed")
	return nil
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupTempDir, "temp-dir", "temp", "Temp directory to clean")
	cleanupCmd.Flags().StringVarP(&cleanupClipsDir, "dir", "d", "output", "Clips directory to prune")
	cleanupCmd.Flags().IntVarP(&keepLatest, "keep-latest", "k", 0, "Keep this many latest clips")
	cleanupCmd.Flags().IntVarP(&olderThanDays, "older-than", "o", 0, "Delete clips older than this many days")
	cleanupCmd.Flags().BoolVar(&cleanupKeepTemp, "keep-temp", false, "Do not touch the temp directory")
	cleanupCmd.Flags().BoolVarP(&cleanupDryRun, "dry-run", "n", false, "Show what would be deleted without actually deleting")
	rootCmd.AddCommand(cleanupCmd)
}
