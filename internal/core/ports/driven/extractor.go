package driven

import (
	"context"

	"github.com/custodia-labs/documind/internal/core/domain"
)

// Extractor reads the text of a file as an ordered sequence of pages.
type Extractor interface {
	// Extract reads the file at path. filename is the display name used for
	// provenance and may differ from the base of path.
	Extract(ctx context.Context, path, filename string) ([]domain.Page, error)

	// SourceType returns the format this extractor handles.
	SourceType() domain.SourceType

	// Extensions returns the lower-cased file extensions handled, with dot.
	Extensions() []string
}

// ExtractorRegistry selects the extractor for a file.
type ExtractorRegistry interface {
	// ForFile returns the extractor registered for the file's extension.
	// Unknown extensions return an error wrapping domain.ErrUnsupportedType.
	ForFile(filename string) (Extractor, error)

	// Register adds an extractor for all of its extensions.
	Register(e Extractor)

	// SupportedExtensions returns every registered extension, sorted.
	SupportedExtensions() []string
}
