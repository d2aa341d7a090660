// Package chunker provides a recursive, separator-aware text splitter.
package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/documind/internal/core/domain"
	"github.com/custodia-labs/documind/internal/core/ports/driven"
)

// Ensure Splitter implements the interface.
var _ driven.Chunker = (*Splitter)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// DefaultSeparators are tried in order: paragraph, line, word, character.
// The empty separator splits between runes.
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// Span is a byte range [Start, End) of the input text.
type Span struct {
	Start int
	End   int
}

// Splitter cuts text into chunks no longer than the chunk size, preferring
// the coarsest separator that yields small enough pieces.
// Lengths are counted in runes.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithSeparators replaces the separator priority list.
func WithSeparators(seps ...string) Option {
	return func(s *Splitter) {
		if len(seps) > 0 {
			s.separators = append([]string(nil), seps...)
		}
	}
}

// New creates a new splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize:  DefaultChunkSize,
		overlap:    DefaultChunkOverlap,
		separators: DefaultSeparators,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Ensure overlap doesn't exceed chunk size
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// ChunkSize returns the configured chunk size.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split returns the chunks of text, trimmed of surrounding whitespace.
// Blank chunks are dropped. Text that already fits is returned unchanged
// as a single chunk, and empty text yields no chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if runeLen(text) <= s.chunkSize {
		return []string{text}
	}

	spans := s.Spans(text)
	out := make([]string, 0, len(spans))
	for _, sp := range spans {
		if chunk := strings.TrimSpace(text[sp.Start:sp.End]); chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}

// Spans returns the raw chunk ranges of text. Consecutive spans may overlap;
// together they cover the whole input.
func (s *Splitter) Spans(text string) []Span {
	if text == "" {
		return nil
	}
	atoms := s.atomize(text, 0, s.separators)
	return s.merge(text, atoms)
}

// ChunkPages splits every page and assigns deterministic chunk ids.
// Chunk indices restart at zero on each page.
func (s *Splitter) ChunkPages(document string, sourceType domain.SourceType, pages []domain.Page) []domain.Chunk {
	var chunks []domain.Chunk
	for _, page := range pages {
		for i, text := range s.Split(page.Text) {
			chunks = append(chunks, domain.Chunk{
				Text:       text,
				Document:   document,
				Page:       page.Number,
				ChunkID:    domain.ChunkID(document, page.Number, i),
				SourceType: sourceType,
			})
		}
	}
	return chunks
}

// piece is an atomic span with its rune length.
type piece struct {
	Span
	n int
}

// atomize breaks text into contiguous pieces no longer than the chunk size,
// recursing into finer separators for oversize pieces. A piece that still
// does not fit once separators are exhausted is kept whole.
func (s *Splitter) atomize(text string, offset int, seps []string) []piece {
	sep, rest := pickSeparator(text, seps)

	var out []piece
	for _, sp := range splitKeep(text, sep) {
		seg := text[sp.Start:sp.End]
		n := runeLen(seg)
		if n <= s.chunkSize || len(rest) == 0 {
			out = append(out, piece{Span{offset + sp.Start, offset + sp.End}, n})
			continue
		}
		out = append(out, s.atomize(seg, offset+sp.Start, rest)...)
	}
	return out
}

// merge greedily packs pieces into spans of at most chunkSize runes. When a
// span is emitted, the next span starts overlap runes before its end,
// cutting into a piece when the trailing whole pieces are shorter.
func (s *Splitter) merge(text string, pieces []piece) []Span {
	var (
		spans []Span
		cur   []piece
		total int
	)

	for _, p := range pieces {
		if total+p.n > s.chunkSize && len(cur) > 0 {
			spans = append(spans, Span{cur[0].Start, cur[len(cur)-1].End})

			var last piece
			for total > s.overlap {
				last = cur[0]
				total -= cur[0].n
				cur = cur[1:]
			}
			if need := s.overlap - total; need > 0 && last.End > last.Start {
				head := tailPiece(text, last, need)
				cur = append([]piece{head}, cur...)
				total += head.n
			}
			for total+p.n > s.chunkSize && total > 0 {
				total -= cur[0].n
				cur = cur[1:]
			}
		}
		cur = append(cur, p)
		total += p.n
	}
	if len(cur) > 0 {
		spans = append(spans, Span{cur[0].Start, cur[len(cur)-1].End})
	}
	return spans
}

// tailPiece returns the last n runes of p.
func tailPiece(text string, p piece, n int) piece {
	start := p.End
	for i := 0; i < n && start > p.Start; i++ {
		_, w := utf8.DecodeLastRuneInString(text[p.Start:start])
		start -= w
	}
	return piece{Span{start, p.End}, runeLen(text[start:p.End])}
}

// pickSeparator returns the first separator present in text and the
// separators after it.
func pickSeparator(text string, seps []string) (string, []string) {
	for i, sep := range seps {
		if sep == "" || strings.Contains(text, sep) {
			return sep, seps[i+1:]
		}
	}
	// No separator applies, so the last one yields the text whole.
	return seps[len(seps)-1], nil
}

// splitKeep splits text before each occurrence of sep, so the separator
// stays attached to the start of the following piece. Empty pieces are
// omitted. The empty separator splits between runes.
func splitKeep(text, sep string) []Span {
	var out []Span
	if sep == "" {
		for i := 0; i < len(text); {
			_, w := utf8.DecodeRuneInString(text[i:])
			out = append(out, Span{i, i + w})
			i += w
		}
		return out
	}

	start := 0
	searchFrom := 0
	for {
		idx := strings.Index(text[searchFrom:], sep)
		if idx < 0 {
			break
		}
		cut := searchFrom + idx
		if cut > start {
			out = append(out, Span{start, cut})
			start = cut
		}
		searchFrom = cut + len(sep)
	}
	if start < len(text) {
		out = append(out, Span{start, len(text)})
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
