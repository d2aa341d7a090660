package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/documind/internal/core/domain"
)

var indexJSON bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect or clear the vector index",
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	RunE:  runIndexStats,
}

var indexClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every passage from the index",
	RunE:  runIndexClear,
}

func init() {
	indexStatsCmd.Flags().BoolVar(&indexJSON, "json", false, "output statistics as JSON")
	indexCmd.AddCommand(indexStatsCmd)
	indexCmd.AddCommand(indexClearCmd)
	rootCmd.AddCommand(indexCmd)
}

func runIndexStats(cmd *cobra.Command, _ []string) error {
	if err := connect(cmd, false); err != nil {
		return err
	}
	if indexService == nil {
		return errors.New("index service not configured")
	}

	stats, err := indexService.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get index stats: %w", err)
	}
	recovery := indexService.Recovery()

	if indexJSON {
		return printJSON(cmd, struct {
			domain.IndexStats
			Recovery domain.RecoveryStep `json:"recovery"`
		}{stats, recovery})
	}

	cmd.Printf("Collection: %s\n", stats.Name)
	cmd.Printf("Passages:   %d\n", stats.Count)
	if stats.Path != "" {
		cmd.Printf("Location:   %s\n", stats.Path)
	}
	if stats.EmbeddingModel != "" {
		cmd.Printf("Embedding:  %s (%d dimensions)\n", stats.EmbeddingModel, stats.Dimension)
	}
	cmd.Printf("Opened via: %s\n", recovery)
	if recovery == domain.RecoveryInMemory {
		cmd.Println(render(cmd, warnStyle, "Warning: the index is in memory and will not persist."))
	}
	return nil
}

func runIndexClear(cmd *cobra.Command, _ []string) error {
	if err := connect(cmd, false); err != nil {
		return err
	}
	if indexService == nil {
		return errors.New("index service not configured")
	}

	if err := indexService.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear index: %w", err)
	}
	cmd.Println("Index cleared.")
	return nil
}
