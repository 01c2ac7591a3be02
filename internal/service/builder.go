package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/embedding"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/indexdb"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/loader"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/vectorstore"
)

// BuildOptions configures the index builder.
type BuildOptions struct {
	// Verify rejects a persisted index whose IndexMeta disagrees with the
	// configured embedder or chunker.
	Verify              bool
	SummaryMaxSentences int
	BatchSize           int
}

// DefaultBuildOptions returns sensible defaults.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{Verify: true, SummaryMaxSentences: 3, BatchSize: 256}
}

// IndexBuilder loads the persisted index or builds it from the document.
// It does so at most once; later calls return the cached index.
type IndexBuilder struct {
	chunker    domain.Chunker
	embedder   embedding.Embedder
	store      vectorstore.Storage
	summarizer domain.Summarizer
	opts       BuildOptions
	logger     *slog.Logger

	mu    sync.Mutex
	built bool
	index *Index
}

// NewIndexBuilder wires the builder. summarizer may be nil.
func NewIndexBuilder(chunker domain.Chunker, embedder embedding.Embedder, store vectorstore.Storage,
	summarizer domain.Summarizer, opts BuildOptions, logger *slog.Logger) *IndexBuilder {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IndexBuilder{
		chunker:    chunker,
		embedder:   embedder,
		store:      store,
		summarizer: summarizer,
		opts:       opts,
		logger:     logger,
	}
}

// EnsureIndex returns the index persisted at indexPath, building and
// persisting it from documentPath first when none exists.
func (b *IndexBuilder) EnsureIndex(ctx context.Context, documentPath, indexPath string) (*Index, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return b.index, nil
	}

	var (
		idx *Index
		err error
	)
	switch {
	case indexdb.Exists(indexPath):
		idx, err = b.load(ctx, indexPath)
	case dirExists(indexPath):
		err = fmt.Errorf("%w: %s exists but holds no %s", domain.ErrIndexCorrupt, indexPath, indexdb.FileName)
	default:
		idx, err = b.build(ctx, documentPath, indexPath)
	}
	if err != nil {
		return nil, err
	}
	b.built = true
	b.index = idx
	return idx, nil
}

// Close releases the search backend's connection, if it holds one.
func (b *IndexBuilder) Close() error {
	if c, ok := b.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (b *IndexBuilder) load(ctx context.Context, indexPath string) (*Index, error) {
	start := time.Now()
	snap, err := indexdb.Load(ctx, indexPath)
	if err != nil {
		return nil, err
	}
	if b.opts.Verify {
		if err := b.verify(snap.Meta); err != nil {
			return nil, err
		}
	}
	if err := b.embedder.Prepare(texts(snap.Chunks)); err != nil {
		return nil, fmt.Errorf("service: prepare embedder: %w", err)
	}
	if d := b.embedder.Dimension(); b.opts.Verify && d > 0 && d != snap.Meta.Dimension {
		return nil, &domain.MismatchError{
			Field:     "dimension",
			Persisted: strconv.Itoa(snap.Meta.Dimension),
			Current:   strconv.Itoa(d),
		}
	}
	if err := b.populate(ctx, snap, false); err != nil {
		return nil, err
	}
	b.logger.Info("index loaded",
		"path", indexPath,
		"chunks", len(snap.Chunks),
		"embedder", snap.Meta.Embedder,
		"model", snap.Meta.Model,
		"elapsed", time.Since(start))
	return newIndex(snap.Meta, snap.Chunks, b.embedder, b.store), nil
}

func (b *IndexBuilder) build(ctx context.Context, documentPath, indexPath string) (*Index, error) {
	start := time.Now()
	doc, err := loader.Load(documentPath)
	if err != nil {
		return nil, err
	}
	chunks, err := b.chunker.Chunk(doc)
	if err != nil {
		return nil, fmt.Errorf("service: chunk: %w", err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("service: %s produced no chunks", documentPath)
	}
	b.logger.Info("document chunked", "path", documentPath, "pages", len(doc.Pages), "chunks", len(chunks))

	if err := b.embedder.Prepare(texts(chunks)); err != nil {
		return nil, fmt.Errorf("service: prepare embedder: %w", err)
	}
	vectors := make([][]float32, len(chunks))
	for i, ch := range chunks {
		vec, err := b.embedder.Embed(ctx, ch.Text)
		if err != nil {
			return nil, fmt.Errorf("service: embed chunk %d: %w", ch.Position, err)
		}
		if i > 0 && len(vec) != len(vectors[0]) {
			return nil, fmt.Errorf("service: chunk %d embedding has %d dims, want %d", ch.Position, len(vec), len(vectors[0]))
		}
		vectors[i] = vec
		if (i+1)%100 == 0 {
			b.logger.Debug("embedding chunks", "done", i+1, "total", len(chunks))
		}
	}

	meta := b.currentMeta()
	meta.Dimension = len(vectors[0])
	meta.Source = documentPath
	meta.ChunkCount = len(chunks)
	meta.CreatedAt = time.Now().UTC()
	if b.summarizer != nil {
		summary, err := b.summarizer.Summarize(loader.Text(doc), b.opts.SummaryMaxSentences)
		if err != nil {
			b.logger.Warn("summary failed", "err", err)
		}
		meta.Summary = summary
	}

	snap := &domain.Snapshot{Meta: meta, Chunks: chunks, Vectors: vectors}
	if err := indexdb.Save(ctx, indexPath, snap); err != nil {
		return nil, fmt.Errorf("service: persist index: %w", err)
	}
	if err := b.populate(ctx, snap, true); err != nil {
		return nil, err
	}
	b.logger.Info("index built",
		"path", indexPath,
		"chunks", len(chunks),
		"dimension", meta.Dimension,
		"elapsed", time.Since(start))
	return newIndex(meta, chunks, b.embedder, b.store), nil
}

// populate loads the snapshot's vectors into the search backend. A backend
// that already holds the snapshot's chunks is reused unless fresh is set.
func (b *IndexBuilder) populate(ctx context.Context, snap *domain.Snapshot, fresh bool) error {
	if err := b.store.Init(ctx, snap.Meta.Dimension); err != nil {
		return fmt.Errorf("service: init store: %w", err)
	}
	n, err := b.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("service: count store: %w", err)
	}
	if !fresh && n == len(snap.Chunks) {
		ok, err := b.inSync(ctx, snap)
		if err != nil {
			return err
		}
		if ok {
			b.logger.Info("search backend in sync", "points", n)
			return nil
		}
	}
	if n > 0 {
		b.logger.Info("resyncing search backend", "points", n, "chunks", len(snap.Chunks))
		if err := b.store.Clear(ctx); err != nil {
			return fmt.Errorf("service: clear store: %w", err)
		}
	}
	for lo := 0; lo < len(snap.Chunks); lo += b.opts.BatchSize {
		hi := min(lo+b.opts.BatchSize, len(snap.Chunks))
		if err := b.store.Upsert(ctx, snap.Chunks[lo:hi], snap.Vectors[lo:hi]); err != nil {
			return fmt.Errorf("service: upsert chunks %d-%d: %w", lo, hi-1, err)
		}
	}
	return nil
}

// inSync reports whether the backend holds this snapshot's chunks rather than
// another document's with the same count. Chunk ids carry the document's
// content hash, so the first and last chunk are looked up by their own
// vectors and their ids compared.
func (b *IndexBuilder) inSync(ctx context.Context, snap *domain.Snapshot) (bool, error) {
	if len(snap.Chunks) == 0 {
		return true, nil
	}
	for _, i := range []int{0, len(snap.Chunks) - 1} {
		res, err := b.store.Search(ctx, snap.Vectors[i], 1)
		if err != nil {
			return false, fmt.Errorf("service: check store: %w", err)
		}
		if len(res) == 0 || res[0].Chunk.ID != snap.Chunks[i].ID {
			return false, nil
		}
	}
	return true, nil
}

func (b *IndexBuilder) currentMeta() domain.IndexMeta {
	p := b.chunker.Params()
	return domain.IndexMeta{
		Embedder:     b.embedder.Name(),
		Model:        b.embedder.Model(),
		Chunker:      b.chunker.Name(),
		ChunkSize:    p.Size,
		ChunkOverlap: p.Overlap,
		Separator:    p.Separator,
	}
}

// verify reports the first build setting that differs from persisted.
func (b *IndexBuilder) verify(persisted domain.IndexMeta) error {
	current := b.currentMeta()
	checks := []struct {
		field       string
		have, wants string
	}{
		{"embedder", persisted.Embedder, current.Embedder},
		{"model", persisted.Model, current.Model},
		{"chunker", persisted.Chunker, current.Chunker},
		{"chunk_size", strconv.Itoa(persisted.ChunkSize), strconv.Itoa(current.ChunkSize)},
		{"chunk_overlap", strconv.Itoa(persisted.ChunkOverlap), strconv.Itoa(current.ChunkOverlap)},
		{"separator", persisted.Separator, current.Separator},
	}
	for _, c := range checks {
		if c.have != c.wants {
			return &domain.MismatchError{Field: c.field, Persisted: c.have, Current: c.wants}
		}
	}
	return nil
}

func texts(chunks []domain.Chunk) []string {
	out := make([]string, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.Text
	}
	return out
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return !errors.Is(err, os.ErrNotExist)
	}
	return info.IsDir()
}
