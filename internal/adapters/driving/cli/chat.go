package cli

import (
	"github.com/spf13/cobra"

	"github.com/meridian-labs/briefing/internal/adapters/driving/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	Long: `Opens the terminal chat interface. Each answer cites the articles
it drew on; conversation history lives in the configured session
store.`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	return tui.Run(cmd.Context(), a.conversation)
}
