package cmd

import (
	"github.com/EvgeniQwerty/ai-clip-cutter/internal/utils"
	"github.com/spf13/cobra"
)

var (
	// verbosityLevel is the command-line flag for setting the log level
	verbosityLevel string
)

var rootCmd = &cobra.Command{
	Use:   "clipcutter",
	Short: "An AI-powered highlight clip cutter for long-form videos",
	Long: `Clipcutter downloads or takes a local video, transcribes it, asks a
language model to pick the most interesting moments, and cuts them into
vertical clips with optional subtitles and overlay video.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Set the global log level based on the flag
		logLevel := utils.LogLevelFromString(verbosityLevel)
		utils.SetLogLevel(logLevel)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Initialize global flags
	rootCmd.PersistentFlags().StringVarP(&verbosityLevel, "log-level", "l", "normal",
		"Set the logging verbosity level: quiet, normal, verbose, debug")
}
