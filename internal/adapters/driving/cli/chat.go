package cli

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/documind/internal/adapters/driving/tui"
)

var chatTopK int

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Ask questions interactively",
	Long: `Opens a full-screen chat over the indexed documents. Each answer lists the
passages it was built from.

Keys: enter sends, ctrl+s toggles sources, ctrl+l clears the conversation,
esc or ctrl+c quits.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().IntVarP(&chatTopK, "top-k", "k", 0, "number of passages to retrieve (0 = configured default)")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	if err := connect(cmd, true); err != nil {
		return err
	}
	if answerService == nil {
		return errors.New("answer service not configured")
	}

	model, err := tui.NewApp(&tui.Ports{Answer: answerService, Index: indexService})
	if err != nil {
		return err
	}
	model = model.WithContext(cmd.Context()).WithTopK(chatTopK)

	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
