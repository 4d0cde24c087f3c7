package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/EvgeniQwerty/ai-clip-cutter/internal/config"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/mod"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/modules/cut"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/modules/download"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/modules/extractaudio"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/modules/highlights"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/modules/transcribe"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/pipeline"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/validator"

	"github.com/spf13/cobra"
)

var runCfg = config.NewProcessingConfig()

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the clip cutting pipeline",
	Long: `Download or take a local video, transcribe it, select highlights with
the Mistral API, and cut them into vertical clips.

When invoked without flags on a terminal, the configuration is collected
interactively.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Validate that external dependencies are installed
		if err := validator.ValidateExternalTools(); err != nil {
			return fmt.Errorf("dependency validation failed: %w", err)
		}

		cfg := runCfg
		if cmd.Flags().NFlag() == 0 {
			if !config.IsInteractive() {
				return fmt.Errorf("no flags given and stdin is not a terminal; see 'clipcutter run --help'")
			}
			interactive, err := config.NewPrompter(os.Stdin, os.Stdout).InteractiveConfig()
			if err != nil {
				return fmt.Errorf("failed to collect configuration: %w", err)
			}
			interactive.NoCache = cfg.NoCache
			cfg = interactive
		}

		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := runPipeline(ctx, cfg); err != nil {
			return err
		}

		utils.LogSuccess("Pipeline completed successfully")
		return nil
	},
}

// newRegistry registers every pipeline module
func newRegistry() (*mod.ModuleRegistry, error) {
	registry := mod.NewModuleRegistry()
	for _, m := range []mod.Module{
		download.New(),
		extractaudio.New(),
		transcribe.New(),
		highlights.New(),
		cut.New(),
	} {
		if err := registry.Register(m); err != nil {
			return nil, fmt.Errorf("failed to register module %s: %w", m.Name(), err)
		}
	}
	return registry, nil
}

// buildSteps translates the processing configuration into the pipeline steps
func buildSteps(cfg *config.ProcessingConfig) []pipeline.Step {
	var steps []pipeline.Step

	videoFile := cfg.Input
	if cfg.DownloadVideo {
		// The cut and highlights steps pick the downloaded path up through
		// the ${video} placeholder
		videoFile = "${video}"
		steps = append(steps, pipeline.Step{
			Name:   "download",
			Module: "download",
			Parameters: map[string]interface{}{
				"url":    cfg.URL,
				"output": cfg.VideosDir,
			},
		})
	}

	steps = append(steps,
		pipeline.Step{
			Name:   "extract audio",
			Module: "extractaudio",
			Parameters: map[string]interface{}{
				"input":  videoFile,
				"output": cfg.TempDir,
			},
		},
		pipeline.Step{
			Name:   "transcribe",
			Module: "transcribe",
			Parameters: map[string]interface{}{
				"input":     "${audio}",
				"output":    cfg.TempDir,
				"language":  cfg.Language,
				"noCache":   cfg.NoCache,
				"cachePath": filepath.Join(cfg.TempDir, "transcriptions.db"),
			},
		},
		pipeline.Step{
			Name:   "analyze",
			Module: "highlights",
			Parameters: map[string]interface{}{
				"input":         "${transcription}",
				"output":        cfg.OutputDir,
				"videoFile":     videoFile,
				"numHighlights": cfg.NumHighlights,
				"minLength":     cfg.MinLength,
				"maxLength":     cfg.MaxLength,
				"model":         cfg.Model,
			},
		},
	)

	// Subtitles in another language need their own whisper pass; the cut
	// step then picks the later transcription up through ${transcription}
	if cfg.AddSubtitles && cfg.SubtitlesLanguage != "" && cfg.SubtitlesLanguage != cfg.Language {
		steps = append(steps, pipeline.Step{
			Name:   "transcribe subtitles",
			Module: "transcribe",
			Parameters: map[string]interface{}{
				"input":          "${audio}",
				"output":         cfg.TempDir,
				"language":       cfg.SubtitlesLanguage,
				"outputFileName": "subtitles_transcription.json",
				"noCache":        cfg.NoCache,
				"cachePath":      filepath.Join(cfg.TempDir, "transcriptions.db"),
			},
		})
	}

	steps = append(steps,
		pipeline.Step{
			Name:   "cut",
			Module: "cut",
			Parameters: map[string]interface{}{
				"input":              "${highlights}",
				"output":             cfg.OutputDir,
				"videoFile":          videoFile,
				"tempDir":            cfg.TempDir,
				"useAdditionalVideo": cfg.UseAdditionalVideo,
				"overlayDir":         cfg.OverlayDir,
				"addSubtitles":       cfg.AddSubtitles,
				"subtitlePosition":   cfg.SubtitlePosition,
				"transcription":      "${transcription}",
				"summary":            "${summary}",
			},
		},
	)

	return steps
}

// runPipeline executes the full pipeline for the given configuration
func runPipeline(ctx context.Context, cfg *config.ProcessingConfig) error {
	registry, err := newRegistry()
	if err != nil {
		return err
	}

	executor := pipeline.NewExecutor("clip cutting", cfg.OutputDir, buildSteps(cfg), registry)
	if _, err := executor.Run(ctx); err != nil {
		return fmt.Errorf("pipeline execution failed: %w", err)
	}
	return nil
}

func init() {
	runCmd.Flags().BoolVarP(&runCfg.DownloadVideo, "download", "d", false, "Download the source video from a URL")
	runCmd.Flags().StringVarP(&runCfg.URL, "url", "u", "", "Source video URL (with --download)")
	runCmd.Flags().StringVarP(&runCfg.Input, "input", "i", "", "Local source video file")
	runCmd.Flags().StringVar(&runCfg.Language, "language", config.DefaultLanguage, "Transcription language (ISO code)")
	runCmd.Flags().IntVarP(&runCfg.NumHighlights, "num-highlights", "n", config.DefaultNumHighlights, "Number of highlights to request")
	runCmd.Flags().IntVar(&runCfg.MinLength, "min-length", config.DefaultMinLength, "Minimum highlight length in seconds")
	runCmd.Flags().IntVar(&runCfg.MaxLength, "max-length", config.DefaultMaxLength, "Maximum highlight length in seconds")
	runCmd.Flags().BoolVarP(&runCfg.AddSubtitles, "subtitles", "s", false, "Burn subtitles into each clip")
	runCmd.Flags().StringVar(&runCfg.SubtitlesLanguage, "subtitles-language", config.DefaultLanguage, "Subtitles language (ISO code)")
	runCmd.Flags().StringVar(&runCfg.SubtitlePosition, "subtitle-position", config.DefaultPosition, "Subtitle position: top, center, bottom")
	runCmd.Flags().BoolVarP(&runCfg.UseAdditionalVideo, "additional-video", "a", true, "Composite a random overlay video")
	runCmd.Flags().StringVarP(&runCfg.OutputDir, "output", "o", config.DefaultOutputDir, "Final clip directory")
	runCmd.Flags().StringVarP(&runCfg.Model, "model", "m", config.DefaultModel, "Mistral model to use")
	runCmd.Flags().BoolVar(&runCfg.NoCache, "no-cache", false, "Bypass the transcription cache")
	rootCmd.AddCommand(runCmd)
}
