// Package pdf extracts per-page text from PDF files using poppler's pdftotext.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// ToolName is the external binary used for extraction.
const ToolName = "pdftotext"

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// pageBreak separates pages in pdftotext output.
const pageBreak = "\f"

// Extractor handles PDF documents.
type Extractor struct {
	runner driven.CommandRunner
}

// New creates a PDF extractor that runs pdftotext through runner.
func New(runner driven.CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// SourceType returns the format this extractor handles.
func (e *Extractor) SourceType() domain.SourceType {
	return domain.SourceTypePDF
}

// Extensions returns the file extensions this extractor handles.
func (e *Extractor) Extensions() []string {
	return []string{".pdf"}
}

// Extract returns one Page per non-empty PDF page. TotalPages counts every
// page, including the skipped empty ones.
func (e *Extractor) Extract(ctx context.Context, path, filename string) ([]domain.Page, error) {
	if err := CheckAvailable(); err != nil {
		return nil, fmt.Errorf("%w: %v. %s", domain.ErrExtraction, err, InstallInstructions())
	}

	res, err := e.runner.Run(ctx, ToolName, "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrExtraction, filename, err)
	}
	if res.ExitCode != 0 {
		msg := strings.TrimSpace(string(res.Stderr))
		if msg == "" {
			msg = fmt.Sprintf("exit status %d", res.ExitCode)
		}
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrExtraction, filename, msg)
	}

	return splitPages(string(res.Stdout)), nil
}

// splitPages cuts pdftotext output on form feeds.
func splitPages(out string) []domain.Page {
	raw := strings.Split(out, pageBreak)
	// pdftotext terminates the last page with a form feed.
	if len(raw) > 1 && strings.TrimSpace(raw[len(raw)-1]) == "" {
		raw = raw[:len(raw)-1]
	}

	total := len(raw)
	pages := make([]domain.Page, 0, total)
	for i, text := range raw {
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, domain.Page{
			Text:       text,
			Number:     i + 1,
			TotalPages: total,
		})
	}
	return pages
}

// CheckAvailable reports whether pdftotext can be found.
func CheckAvailable() error {
	if _, err := lookPath(ToolName); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return "Install pdftotext (poppler): macOS: brew install poppler; " +
		"Debian/Ubuntu: apt install poppler-utils; Fedora: dnf install poppler-utils"
}
