package cli

import (
	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset [session-id]",
	Short: "Delete a conversation session",
	Args:  cobra.ExactArgs(1),
	RunE:  runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.conversation.Reset(cmd.Context(), args[0]); err != nil {
		return err
	}
	cmd.Printf("Session %s cleared\n", args[0])
	return nil
}
