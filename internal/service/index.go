package service

import (
	"context"
	"fmt"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/embedding"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/vectorstore"
)

// Index is the built vector index: the chunk sequence, the embedder that
// produced its vectors and the backend that searches them. It is read-only
// once built.
type Index struct {
	meta     domain.IndexMeta
	chunks   []domain.Chunk
	embedder embedding.Embedder
	store    vectorstore.Storage
}

func newIndex(meta domain.IndexMeta, chunks []domain.Chunk, embedder embedding.Embedder, store vectorstore.Storage) *Index {
	return &Index{meta: meta, chunks: chunks, embedder: embedder, store: store}
}

// Meta describes how the index was built.
func (ix *Index) Meta() domain.IndexMeta { return ix.meta }

// Len returns the number of chunks in the index.
func (ix *Index) Len() int { return len(ix.chunks) }

// Search returns the topK chunks most similar to query, or every chunk when
// the index holds fewer. When the query embeds to the zero vector (it shares
// no vocabulary with the index) the ranking falls back to lexical overlap.
func (ix *Index) Search(ctx context.Context, query string, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 2
	}
	topK = min(topK, len(ix.chunks))
	vec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("service: embed query: %w", err)
	}
	if isZero(vec) {
		return lexicalSearch(ix.chunks, query, topK), nil
	}
	res, err := ix.store.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("service: search: %w", err)
	}
	return res, nil
}

func isZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
