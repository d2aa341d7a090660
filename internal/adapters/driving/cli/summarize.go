package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// summaryInputRunes caps the text sent for summarisation.
const summaryInputRunes = 12000

var summarizeCmd = &cobra.Command{
	Use:     "summarize [file]",
	Aliases: []string{"summarise"},
	Short:   "Summarise a document",
	Long: `Extracts the text of a PDF, DOCX or TXT file and asks the language model
for a concise summary. The file is not added to the index. Long documents
are cut to their opening text.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if err := connect(cmd, true); err != nil {
		return err
	}
	if ingestService == nil || answerService == nil {
		return errors.New("summary service not configured")
	}

	chunks, err := ingestService.ExtractChunks(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	text := strings.Join(texts, "\n\n")
	if r := []rune(text); len(r) > summaryInputRunes {
		text = string(r[:summaryInputRunes])
	}

	summary, err := answerService.Summarise(cmd.Context(), text)
	if err != nil {
		return fmt.Errorf("summarize failed: %w", err)
	}
	cmd.Println(summary)
	return nil
}
