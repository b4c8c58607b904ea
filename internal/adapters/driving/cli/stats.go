package cli

import (
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index and catalog statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	stats, err := a.conversation.Stats(cmd.Context())
	if err != nil {
		return err
	}

	cmd.Printf("Vectors:  %d\n", stats.TotalVectorCount)
	cmd.Printf("Sources:  %d\n", stats.SourceCount)
	if stats.IndexAvailable {
		cmd.Println("Index:    available")
	} else {
		cmd.Println("Index:    unavailable")
	}
	return nil
}
