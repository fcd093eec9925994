package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ppiankov/verdict/internal/tui"
)

var noColor bool

// chatCmd represents the chat command
var chatCmd = &cobra.Command{
	Use:   "chat [claim]",
	Short: "Verify claims and ask follow-up questions interactively",
	Long: `Chat opens an interactive terminal session. Type a claim to verify it,
then ask questions about the verdict. Use "/new <claim>" to verify another
claim; the previous conversation is cleared.

Example:
  verdict chat
  verdict chat "The Great Wall is visible from space."`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colors")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Logs would corrupt the terminal UI
	cfg.Log.Level = "error"

	st, err := newStack(cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := st.newSession()
	if len(args) == 1 {
		s.SubmitClaim(ctx, args[0])
	}

	return tui.Run(ctx, s, tui.Options{NoColor: noColor})
}
