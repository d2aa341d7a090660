package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/documind/internal/adapters/driving/watch"
	"github.com/custodia-labs/documind/internal/core/ports/driving"
)

var (
	ingestReplace bool
	ingestWatch   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files or directories...]",
	Short: "Add documents to the index",
	Long: `Extracts text from PDF, DOCX and TXT files, splits it into overlapping
chunks, embeds each chunk and stores it in the vector index.

Directories are searched recursively for supported files. A file that
cannot be read is reported and the remaining files are still ingested.

Use --watch to keep running and re-ingest files as they change.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReplace, "replace", false, "remove a document's existing passages before adding it")
	ingestCmd.Flags().StringVar(&ingestWatch, "watch", "", "keep watching this directory and re-ingest changed files")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && ingestWatch == "" {
		return errors.New("requires at least one file, or --watch <dir>")
	}

	if err := connect(cmd, false); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	if len(args) > 0 {
		paths, err := collectFiles(args)
		if err != nil {
			return err
		}
		if len(paths) == 0 {
			return errors.New("no supported documents found (.pdf, .docx, .txt)")
		}

		report, err := ingestService.IngestFiles(cmd.Context(), paths, driving.IngestOptions{Replace: ingestReplace})
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		printIngestReport(cmd, report)

		if failed := len(report.Failures()); failed == len(report.Files) && ingestWatch == "" {
			return fmt.Errorf("all %d file(s) failed to ingest", failed)
		}
	}

	if ingestWatch != "" {
		w := watch.New(ingestWatch, ingestService, watch.WithReportHandler(func(r driving.IngestReport) {
			printIngestReport(cmd, r)
		}))
		cmd.Printf("Watching %s for changes (Ctrl+C to stop)\n", ingestWatch)
		return w.Run(cmd.Context())
	}
	return nil
}

// collectFiles expands directories into the supported files below them.
// Plain file arguments are passed through so the report names them even
// when they cannot be read.
func collectFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		var found []string
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path != arg && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() && watch.Supported(path) {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", arg, err)
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}

func printIngestReport(cmd *cobra.Command, report driving.IngestReport) {
	for _, f := range report.Files {
		if f.Failed() {
			cmd.Printf("  x %s: %v\n", f.Path, f.Err)
			continue
		}
		line := fmt.Sprintf("  + %s: %d page(s), %d chunk(s)", f.Document, f.Pages, f.Chunks)
		if f.Removed > 0 {
			line += fmt.Sprintf(", replaced %d", f.Removed)
		}
		cmd.Println(line)
	}

	stats := report.Stats
	cmd.Printf("Indexed %d chunk(s) from %d document(s)", stats.TotalChunks, stats.Documents)
	if stats.TotalChunks > 0 {
		cmd.Printf(", average %.0f characters", stats.AvgChunkSize)
	}
	cmd.Println()
}
