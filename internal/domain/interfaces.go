package domain

import (
	"context"
	"time"
)

// Page is the plain text of one page of the reference document.
type Page struct {
	Number int
	Text   string
}

// Document represents the reference document loaded into the system.
type Document struct {
	ID    string
	Path  string
	Pages []Page
}

// Chunk is a bounded span of document text used as the unit of retrieval.
// Position is the chunk's place in the document-wide chunk sequence and is
// its identity inside an index.
type Chunk struct {
	ID       string
	Position int
	Page     int
	Source   string
	Text     string
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// IndexMeta describes how a persisted index was built.
type IndexMeta struct {
	Embedder     string
	Model        string
	Dimension    int
	Chunker      string
	ChunkSize    int
	ChunkOverlap int
	Separator    string
	Source       string
	ChunkCount   int
	Summary      string
	CreatedAt    time.Time
}

// Snapshot is the persisted form of an index: every chunk with its vector,
// in position order, plus the build metadata.
type Snapshot struct {
	Meta    IndexMeta
	Chunks  []Chunk
	Vectors [][]float32
}

// Answer is the result of one pass through the query pipeline.
type Answer struct {
	Question string
	Text     string
	Sources  []SearchResult
	Prompt   string
	Model    string
	Elapsed  time.Duration
}

// ChunkParams are the splitting parameters recorded in IndexMeta.
type ChunkParams struct {
	Size      int
	Overlap   int
	Separator string
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Name() string
	Params() ChunkParams
	Chunk(document Document) ([]Chunk, error)
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// Completer sends a rendered prompt to a hosted language model and returns
// the generated text.
type Completer interface {
	Model() string
	Complete(ctx context.Context, prompt string) (string, error)
}
