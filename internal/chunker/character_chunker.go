package chunker

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
)

// CharacterChunker splits each page on a fixed separator and greedily merges
// the pieces into chunks of at most chunkSize runes. Consecutive chunks share
// up to chunkOverlap runes of trailing pieces. A single piece longer than
// chunkSize becomes its own oversized chunk.
type CharacterChunker struct {
	chunkSize    int
	chunkOverlap int
	separator    string
	logger       *slog.Logger
}

// NewCharacterChunker creates a character chunker. Non-positive sizes fall
// back to 1000 runes with 30 runes of overlap.
func NewCharacterChunker(chunkSize, chunkOverlap int, separator string, logger *slog.Logger) *CharacterChunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 30
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CharacterChunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separator:    separator,
		logger:       logger,
	}
}

func (c *CharacterChunker) Name() string { return "character" }

func (c *CharacterChunker) Params() domain.ChunkParams {
	return domain.ChunkParams{Size: c.chunkSize, Overlap: c.chunkOverlap, Separator: c.separator}
}

// Chunk splits every page of the document. Positions run across the whole
// document in page order.
func (c *CharacterChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, page := range document.Pages {
		for _, text := range c.SplitText(page.Text) {
			idx := len(chunks)
			chunks = append(chunks, domain.Chunk{
				ID:       document.ID + ":" + strconv.Itoa(idx),
				Position: idx,
				Page:     page.Number,
				Source:   document.Path,
				Text:     text,
			})
		}
	}
	return chunks, nil
}

// SplitText splits a single text into chunks.
func (c *CharacterChunker) SplitText(text string) []string {
	var raw []string
	if c.separator == "" {
		raw = strings.Split(text, "")
	} else {
		raw = strings.Split(text, c.separator)
	}
	splits := raw[:0]
	for _, s := range raw {
		if s != "" {
			splits = append(splits, s)
		}
	}
	return c.merge(splits)
}

func (c *CharacterChunker) merge(splits []string) []string {
	sepLen := utf8.RuneCountInString(c.separator)
	sep := func(n int) int {
		if n > 0 {
			return sepLen
		}
		return 0
	}

	var out []string
	var current []string
	total := 0
	for _, piece := range splits {
		n := utf8.RuneCountInString(piece)
		if total+n+sep(len(current)) > c.chunkSize {
			if total > c.chunkSize {
				c.logger.Warn("chunk longer than chunk size", "size", total, "chunk_size", c.chunkSize)
			}
			if len(current) > 0 {
				if doc := c.join(current); doc != "" {
					out = append(out, doc)
				}
				// Keep trailing pieces as overlap for the next chunk.
				for total > c.chunkOverlap || (total+n+sep(len(current)) > c.chunkSize && total > 0) {
					total -= utf8.RuneCountInString(current[0]) + sep(len(current)-1)
					current = current[1:]
				}
			}
		}
		current = append(current, piece)
		total += n + sep(len(current)-1)
	}
	if doc := c.join(current); doc != "" {
		out = append(out, doc)
	}
	return out
}

func (c *CharacterChunker) join(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, c.separator))
}
