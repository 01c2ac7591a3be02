package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Chunker.ChunkSize != 1000 || cfg.Chunker.ChunkOverlap != 30 {
		t.Errorf("chunker defaults = %d/%d, want 1000/30", cfg.Chunker.ChunkSize, cfg.Chunker.ChunkOverlap)
	}
	if cfg.Retrieval.TopK != 2 {
		t.Errorf("top_k = %d, want 2", cfg.Retrieval.TopK)
	}
	if cfg.LLM.APIKeyEnv != "GROQ_API_KEY" {
		t.Errorf("api_key_env = %q", cfg.LLM.APIKeyEnv)
	}
	if !cfg.Index.Verify {
		t.Errorf("index.verify should default to true")
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
document:
  path: docs/handbook.pdf
embedder:
  type: tfidf
llm:
  model: llama-3.1-8b-instant
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Document.Path != "docs/handbook.pdf" {
		t.Errorf("document.path = %q", cfg.Document.Path)
	}
	if cfg.Embedder.Type != "tfidf" {
		t.Errorf("embedder.type = %q", cfg.Embedder.Type)
	}
	if cfg.LLM.Model != "llama-3.1-8b-instant" {
		t.Errorf("llm.model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("llm.base_url default lost: %q", cfg.LLM.BaseURL)
	}
	if cfg.Chunker.Separator != "\n\n" {
		t.Errorf("separator = %q", cfg.Chunker.Separator)
	}
}

func TestApplyDefaultsForOpenAIEmbedder(t *testing.T) {
	cfg, err := parse([]byte("embedder:\n  type: openai\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Embedder.OpenAI == nil || cfg.Embedder.OpenAI.Model != "text-embedding-3-small" {
		t.Fatalf("openai defaults not applied: %+v", cfg.Embedder.OpenAI)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"overlap too large", "chunker:\n  chunk_size: 100\n  chunk_overlap: 100\n", "chunk_overlap"},
		{"negative top_k", "retrieval:\n  top_k: -1\n", "top_k"},
		{"qdrant without section", "vector_store:\n  type: qdrant\n", "qdrant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse([]byte(tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("parse error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Server.Addr = ":9000"
	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Server.Addr != ":9000" {
		t.Errorf("server.addr = %q", got.Server.Addr)
	}
}
