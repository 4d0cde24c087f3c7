package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/config"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/validator"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/watcher"

	"github.com/spf13/cobra"
)

var (
	watchDir           string
	watchMaxConcurrent int
	watchCfg           = config.NewProcessingConfig()
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch a directory and process every new video",
	Long: `Watch an inbox directory and run the clip cutting pipeline for every
video file dropped into it. Videos are processed one at a time unless
--max-concurrent raises the limit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validator.ValidateExternalTools(); err != nil {
			return fmt.Errorf("dependency validation failed: %w", err)
		}

		// The watcher supplies the input per file; validate the rest up front
		template := *watchCfg
		template.Input = "placeholder"
		if err := template.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		w := watcher.New(watchDir, func(ctx context.Context, path string) error {
			cfg := watchRunConfig(watchCfg, path)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runPipeline(ctx, cfg)
		})
		w.MaxConcurrent = watchMaxConcurrent

		if err := w.Run(ctx); err != nil {
			return fmt.Errorf("watch failed: %w", err)
		}

		utils.LogInfo("Watcher stopped")
		return nil
	},
}

// watchRunConfig derives a per-file configuration. Each watched video gets
// its own output and temp subdirectory, so concurrent runs cannot contend
// for the output directory lock or overwrite each other's intermediates.
func watchRunConfig(base *config.ProcessingConfig, path string) *config.ProcessingConfig {
	cfg := *base
	cfg.Input = path

	name := utils.SanitizeFilename(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
	if name == "" {
		name = "video"
	}
	cfg.OutputDir = filepath.Join(base.OutputDir, name)
	cfg.TempDir = filepath.Join(base.TempDir, name)
	return &cfg
}

func init() {
	watchCmd.Flags().StringVarP(&watchDir, "dir", "d", "", "Directory to watch for new videos (required)")
	watchCmd.Flags().IntVar(&watchMaxConcurrent, "max-concurrent", 1, "Maximum videos processed at once")
	watchCmd.Flags().StringVar(&watchCfg.Language, "language", config.DefaultLanguage, "Transcription language (ISO code)")
	watchCmd.Flags().IntVarP(&watchCfg.NumHighlights, "num-highlights", "n", config.DefaultNumHighlights, "Number of highlights to request")
	watchCmd.Flags().IntVar(&watchCfg.MinLength, "min-length", config.DefaultMinLength, "Minimum highlight length in seconds")
	watchCmd.Flags().IntVar(&watchCfg.MaxLength, "max-length", config.DefaultMaxLength, "Maximum highlight length in seconds")
	watchCmd.Flags().BoolVarP(&watchCfg.AddSubtitles, "subtitles", "s", false, "Burn subtitles into each clip")
	watchCmd.Flags().StringVar(&watchCfg.SubtitlesLanguage, "subtitles-language", config.DefaultLanguage, "Subtitles language (ISO code)")
	watchCmd.Flags().StringVar(&watchCfg.SubtitlePosition, "subtitle-position", config.DefaultPosition, "Subtitle position: top, center, bottom")
	watchCmd.Flags().BoolVarP(&watchCfg.UseAdditionalVideo, "additional-video", "a", true, "Composite a random overlay video")
	watchCmd.Flags().StringVarP(&watchCfg.OutputDir, "output", "o", config.DefaultOutputDir, "Final clip directory")
	watchCmd.Flags().StringVarP(&watchCfg.Model, "model", "m", config.DefaultModel, "Mistral model to use")
	watchCmd.Flags().BoolVar(&watchCfg.NoCache, "no-cache", false, "Bypass the transcription cache")
	_ = watchCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(watchCmd)
}
