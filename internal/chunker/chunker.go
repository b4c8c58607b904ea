// Package chunker splits source text into overlapping segments sized
// for embedding, preferring to break on word boundaries.
package chunker

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/meridian-labs/briefing/internal/core/domain"
)

// DefaultChunkSize is the default number of bytes per chunk.
const DefaultChunkSize = 1000

// DefaultOverlap is the default number of overlapping bytes between
// consecutive hard-cut chunks.
const DefaultOverlap = 200

// boundaryFraction is how much of the window must be consumed before a
// whitespace break is acceptable. A chunk is never shortened by more
// than 20% just to land on a word boundary.
const boundaryFraction = 0.8

// Chunker splits text into chunks. It is stateless and safe for
// concurrent use.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in bytes.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between hard-cut chunks in bytes.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker. A chunk size that does not exceed the overlap
// is rejected: the cursor would stop advancing on hard cuts.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.chunkSize <= c.overlap {
		return nil, fmt.Errorf("chunker: chunk size %d must exceed overlap %d: %w",
			c.chunkSize, c.overlap, domain.ErrInvalidInput)
	}
	return c, nil
}

// ChunkSize returns the configured chunk size.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap returns the configured overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split walks the text in windows of the chunk size. At each window
// boundary short of the end it breaks at the last whitespace in the
// window when that whitespace lies past 80% of the window; the next
// window then starts immediately after the whitespace, with NO overlap.
// Otherwise it hard-cuts mid-word and advances by chunkSize-overlap.
//
// The asymmetry between the two branches is deliberate and load-bearing:
// "fixing" it to apply overlap after word-boundary breaks would move
// every chunk boundary and change the record ids of re-ingested
// content. Keep it.
//
// Window boundaries are snapped back to rune starts so a hard cut
// never splits a multi-byte character; chunks are always valid UTF-8.
//
// Chunks are whitespace-trimmed; empty chunks are discarded. Empty
// input yields no chunks, input shorter than the chunk size yields
// exactly one.
func (c *Chunker) Split(sourceID, text string) []domain.Chunk {
	var chunks []domain.Chunk
	index := 0

	emit := func(raw string, start, end int) {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return
		}
		chunks = append(chunks, domain.Chunk{
			SourceID:    sourceID,
			Index:       index,
			Text:        trimmed,
			StartOffset: start,
			EndOffset:   end,
		})
		index++
	}

	cursor := 0
	for cursor < len(text) {
		end := cursor + c.chunkSize
		if end >= len(text) {
			emit(text[cursor:], cursor, len(text))
			break
		}
		end = c.snapBack(text, cursor, end)

		window := text[cursor:end]
		ws := strings.LastIndexFunc(window, unicode.IsSpace)
		if ws > int(boundaryFraction*float64(c.chunkSize)) {
			emit(window[:ws], cursor, cursor+ws)
			_, size := utf8.DecodeRuneInString(window[ws:])
			cursor += ws + size
			continue
		}

		emit(window, cursor, end)
		cursor = c.snapBack(text, cursor, cursor+c.chunkSize-c.overlap)
	}

	return chunks
}

// snapBack moves i back to the nearest rune start at or before it. When
// that would stall the cursor it steps forward by one full rune instead,
// so Split always makes progress.
func (c *Chunker) snapBack(text string, cursor, i int) int {
	for i > cursor && !utf8.RuneStart(text[i]) {
		i--
	}
	if i <= cursor {
		_, size := utf8.DecodeRuneInString(text[cursor:])
		i = cursor + size
	}
	return i
}
