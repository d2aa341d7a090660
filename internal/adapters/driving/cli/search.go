package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/documind/internal/core/domain"
)

const searchSnippetRunes = 200

var (
	searchTopK int
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed passages",
	Long: `Embeds the query and lists the most similar passages in the index,
closest first. Search needs no language model.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "maximum number of results (0 = configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	if err := connect(cmd, false); err != nil {
		return err
	}
	if retriever == nil {
		return errors.New("search service not configured")
	}

	results, err := retriever.Search(cmd.Context(), query, searchTopK)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		if results == nil {
			results = []domain.SearchResult{}
		}
		return printJSON(cmd, results)
	}

	return outputSearchTable(cmd, results)
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println(render(cmd, headingStyle, "Results:"))
	cmd.Println()
	for i, r := range results {
		c := domain.CitationFromResult(r)
		cmd.Printf("  [%d] %s (page %s, distance %.3f)\n", i+1, c.Document, c.Page, r.Distance)
		cmd.Println(render(cmd, mutedStyle, "      "+snippet(r.Text, searchSnippetRunes)))
		cmd.Println()
	}
	return nil
}
