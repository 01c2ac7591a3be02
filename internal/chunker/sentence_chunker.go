package chunker

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
)

// SentenceChunker splits each page into sentence-based chunks with overlap.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 || overlapSentences >= sentencesPerChunk {
		overlapSentences = 0
	}
	return &SentenceChunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

func (c *SentenceChunker) Name() string { return "sentence" }

// Params reports sizes in sentences rather than runes.
func (c *SentenceChunker) Params() domain.ChunkParams {
	return domain.ChunkParams{Size: c.sentencesPerChunk, Overlap: c.overlapSentences}
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	for _, page := range document.Pages {
		for _, text := range c.group(page.Text) {
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

func (c *SentenceChunker) group(text string) []string {
	sentences := c.splitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	var out []string
	for i := 0; i < len(sentences); {
		end := min(i+c.sentencesPerChunk, len(sentences))
		out = append(out, strings.Join(sentences[i:end], " "))
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
	}
	return out
}
