package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float32
	norms     []float64
	chunks    []domain.Chunk
}

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.norms = nil
	s.chunks = nil
	return nil
}

func (s *Storage) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for i, v := range vectors {
		s.chunks = append(s.chunks, chunks[i])
		s.vectors = append(s.vectors, v)
		s.norms = append(s.norms, norm(v))
	}
	return nil
}

// Search returns up to topK chunks ordered by descending cosine similarity.
// Equal scores are ordered by chunk position.
func (s *Storage) Search(_ context.Context, vector []float32, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 2
	}
	if len(vector) != s.dimension {
		return nil, errors.New("query dimension mismatch")
	}
	qn := norm(vector)
	results := make([]domain.SearchResult, len(s.vectors))
	for i := range s.vectors {
		score := 0.0
		if qn > 0 && s.norms[i] > 0 {
			score = dot(s.vectors[i], vector) / (qn * s.norms[i])
		}
		results[i] = domain.SearchResult{Chunk: s.chunks[i], Score: score}
	}
	sort.SliceStable(results, func(a, b int) bool {
		if results[a].Score != results[b].Score {
			return results[a].Score > results[b].Score
		}
		return results[a].Chunk.Position < results[b].Chunk.Position
	})
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

func (s *Storage) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

func (s *Storage) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.norms = nil
	s.chunks = nil
	return nil
}

func dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}
