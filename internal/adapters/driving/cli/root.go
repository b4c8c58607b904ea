// Package cli implements the briefing command line interface.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/meridian-labs/briefing/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "briefing",
	Short: "Briefing is a retrieval-augmented chat assistant",
	Long: `Briefing answers questions over your ingested documents and news
articles. It retrieves the most relevant chunks for each question,
assembles them into the model prompt and keeps per-session
conversation history.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.briefing/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
