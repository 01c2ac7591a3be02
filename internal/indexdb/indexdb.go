// Package indexdb persists a built vector index as a SQLite database inside
// the index directory.
package indexdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
)

// FileName is the database file inside an index directory.
const FileName = "index.db"

const schema = `
CREATE TABLE IF NOT EXISTS meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
    position  INTEGER PRIMARY KEY,
    id        TEXT NOT NULL,
    page      INTEGER NOT NULL,
    source    TEXT NOT NULL,
    text      TEXT NOT NULL,
    embedding BLOB NOT NULL
);
`

// Open opens (creating if needed) a SQLite database with the pure-Go driver.
func Open(path string) (*sql.DB, error) { return sql.Open("sqlite", path) }

// EnsureSchema creates the index tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Exists reports whether dir holds a persisted index.
func Exists(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, FileName))
	return err == nil && info.Mode().IsRegular()
}

// Save writes snap to dir. The database is built in a temporary sibling
// directory and renamed into place, so dir is either absent or complete.
func Save(ctx context.Context, dir string, snap *domain.Snapshot) (err error) {
	if len(snap.Chunks) != len(snap.Vectors) {
		return fmt.Errorf("indexdb: %d chunks but %d vectors", len(snap.Chunks), len(snap.Vectors))
	}
	if _, statErr := os.Stat(dir); statErr == nil {
		return fmt.Errorf("indexdb: %s already exists", dir)
	}
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("indexdb: create parent: %w", err)
	}
	tmp, err := os.MkdirTemp(parent, filepath.Base(dir)+".tmp-*")
	if err != nil {
		return fmt.Errorf("indexdb: create temp dir: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(tmp)
		}
	}()

	if err = write(ctx, filepath.Join(tmp, FileName), snap); err != nil {
		return err
	}
	if err = os.Rename(tmp, dir); err != nil {
		return fmt.Errorf("indexdb: rename into place: %w", err)
	}
	return nil
}

func write(ctx context.Context, path string, snap *domain.Snapshot) error {
	db, err := Open(path)
	if err != nil {
		return fmt.Errorf("indexdb: open: %w", err)
	}
	defer db.Close()
	if err := EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("indexdb: schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("indexdb: begin: %w", err)
	}
	defer tx.Rollback()

	metaStmt, err := tx.PrepareContext(ctx, `INSERT INTO meta(key, value) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("indexdb: prepare meta: %w", err)
	}
	defer metaStmt.Close()
	for _, kv := range encodeMeta(snap.Meta, len(snap.Chunks)) {
		if _, err := metaStmt.ExecContext(ctx, kv[0], kv[1]); err != nil {
			return fmt.Errorf("indexdb: insert meta %s: %w", kv[0], err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks(position, id, page, source, text, embedding) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("indexdb: prepare chunks: %w", err)
	}
	defer chunkStmt.Close()
	for i, ch := range snap.Chunks {
		if _, err := chunkStmt.ExecContext(ctx, ch.Position, ch.ID, ch.Page, ch.Source, ch.Text, EncodeEmbedding(snap.Vectors[i])); err != nil {
			return fmt.Errorf("indexdb: insert chunk %d: %w", ch.Position, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("indexdb: commit: %w", err)
	}
	return nil
}

// Load reads the index persisted in dir. Any failure to read an existing
// index is reported as domain.ErrIndexCorrupt.
func Load(ctx context.Context, dir string) (*domain.Snapshot, error) {
	if !Exists(dir) {
		return nil, fmt.Errorf("indexdb: %s: %w", dir, os.ErrNotExist)
	}
	db, err := Open(filepath.Join(dir, FileName))
	if err != nil {
		return nil, corrupt(err)
	}
	defer db.Close()

	meta, err := readMeta(ctx, db)
	if err != nil {
		return nil, corrupt(err)
	}
	chunks, vectors, err := readChunks(ctx, db, meta.Dimension)
	if err != nil {
		return nil, corrupt(err)
	}
	if len(chunks) != meta.ChunkCount {
		return nil, corrupt(fmt.Errorf("meta records %d chunks, found %d", meta.ChunkCount, len(chunks)))
	}
	return &domain.Snapshot{Meta: meta, Chunks: chunks, Vectors: vectors}, nil
}

func corrupt(err error) error {
	return fmt.Errorf("indexdb: %w: %v", domain.ErrIndexCorrupt, err)
}

func encodeMeta(m domain.IndexMeta, chunkCount int) [][2]string {
	created := m.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return [][2]string{
		{"embedder", m.Embedder},
		{"model", m.Model},
		{"dimension", strconv.Itoa(m.Dimension)},
		{"chunker", m.Chunker},
		{"chunk_size", strconv.Itoa(m.ChunkSize)},
		{"chunk_overlap", strconv.Itoa(m.ChunkOverlap)},
		{"separator", m.Separator},
		{"source", m.Source},
		{"chunk_count", strconv.Itoa(chunkCount)},
		{"summary", m.Summary},
		{"created_at", created.UTC().Format(time.RFC3339Nano)},
	}
}

func readMeta(ctx context.Context, db *sql.DB) (domain.IndexMeta, error) {
	var m domain.IndexMeta
	rows, err := db.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return m, err
	}
	defer rows.Close()
	kv := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return m, err
		}
		kv[k] = v
	}
	if err := rows.Err(); err != nil {
		return m, err
	}

	m.Embedder = kv["embedder"]
	m.Model = kv["model"]
	m.Chunker = kv["chunker"]
	m.Separator = kv["separator"]
	m.Source = kv["source"]
	m.Summary = kv["summary"]
	ints := []struct {
		key string
		dst *int
	}{
		{"dimension", &m.Dimension},
		{"chunk_size", &m.ChunkSize},
		{"chunk_overlap", &m.ChunkOverlap},
		{"chunk_count", &m.ChunkCount},
	}
	for _, f := range ints {
		v, ok := kv[f.key]
		if !ok {
			return m, fmt.Errorf("meta key %q missing", f.key)
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return m, fmt.Errorf("meta key %q: %w", f.key, err)
		}
		*f.dst = n
	}
	if v := kv["created_at"]; v != "" {
		if m.CreatedAt, err = time.Parse(time.RFC3339Nano, v); err != nil {
			return m, fmt.Errorf("meta key created_at: %w", err)
		}
	}
	if m.Dimension <= 0 {
		return m, errors.New("meta dimension must be positive")
	}
	return m, nil
}

func readChunks(ctx context.Context, db *sql.DB, dim int) ([]domain.Chunk, [][]float32, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT position, id, page, source, text, embedding FROM chunks ORDER BY position`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var chunks []domain.Chunk
	var vectors [][]float32
	for rows.Next() {
		var ch domain.Chunk
		var blob []byte
		if err := rows.Scan(&ch.Position, &ch.ID, &ch.Page, &ch.Source, &ch.Text, &blob); err != nil {
			return nil, nil, err
		}
		if ch.Position != len(chunks) {
			return nil, nil, fmt.Errorf("chunk positions not contiguous at %d", ch.Position)
		}
		vec, err := DecodeEmbedding(blob)
		if err != nil {
			return nil, nil, fmt.Errorf("chunk %d: %w", ch.Position, err)
		}
		if len(vec) != dim {
			return nil, nil, fmt.Errorf("chunk %d: embedding has %d dims, want %d", ch.Position, len(vec), dim)
		}
		chunks = append(chunks, ch)
		vectors = append(vectors, vec)
	}
	return chunks, vectors, rows.Err()
}
