package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/modules/upload"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"

	"github.com/spf13/cobra"
)

var (
	uploadInput       string
	uploadClipsDir    string
	uploadCredentials string
	uploadPlaylistID  string
	uploadPrivacy     string
	uploadCategoryID  string
	uploadPeriodicity int
	uploadTime        string
	uploadStartDate   string
	uploadTags        string
	uploadListOnly    bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Schedule produced clips as YouTube Shorts",
	Long: `Read the highlights artifact, find free publish slots on the channel,
and upload the produced clips as scheduled Shorts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		params := map[string]interface{}{
			"input":               uploadInput,
			"clipsDir":            uploadClipsDir,
			"credentials":         uploadCredentials,
			"playlistId":          uploadPlaylistID,
			"privacyStatus":       uploadPrivacy,
			"categoryId":          uploadCategoryID,
			"schedulePeriodicity": uploadPeriodicity,
			"scheduleTime":        uploadTime,
			"startDate":           uploadStartDate,
			"tags":                uploadTags,
			"listOnly":            uploadListOnly,
		}

		module := upload.New()
		if err := module.Validate(params); err != nil {
			return fmt.Errorf("invalid upload parameters: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if _, err := module.Execute(ctx, params); err != nil {
			return fmt.Errorf("upload failed: %w", err)
		}

		utils.LogSuccess("Upload completed successfully")
		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVarP(&uploadInput, "input", "i", "output/highlights.yaml", "Highlights artifact to upload from")
	uploadCmd.Flags().StringVarP(&uploadClipsDir, "clips-dir", "d", "output", "Directory containing the produced clips")
	uploadCmd.Flags().StringVarP(&uploadCredentials, "credentials", "c", "", "Google OAuth client credentials file")
	uploadCmd.Flags().StringVarP(&uploadPlaylistID, "playlist-id", "p", "", "Playlist to add every clip to")
	uploadCmd.Flags().StringVar(&uploadPrivacy, "privacy", "private", "Privacy status: private, unlisted, public")
	uploadCmd.Flags().StringVar(&uploadCategoryID, "category-id", "24", "YouTube category ID")
	uploadCmd.Flags().IntVar(&uploadPeriodicity, "periodicity", 1, "Days between consecutive clips")
	uploadCmd.Flags().StringVarP(&uploadTime, "schedule-time", "t", "12:00", "Publish time of day (HH:MM, UTC)")
	uploadCmd.Flags().StringVar(&uploadStartDate, "start-date", "", "Earliest publish date (YYYY-MM-DD, default today)")
	uploadCmd.Flags().StringVar(&uploadTags, "tags", "", "Comma-separated tags applied to every clip")
	uploadCmd.Flags().BoolVar(&uploadListOnly, "list-only", false, "Print the schedule without uploading")
	rootCmd.AddCommand(uploadCmd)
}
