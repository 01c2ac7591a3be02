// Package app assembles the components named in the configuration.
package app

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/chunker"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/config"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/embedding"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/embedding/ollama"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/embedding/openai"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/embedding/tfidf"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/llm"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/service"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/summarizer"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/vectorstore"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/vectorstore/memory"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/vectorstore/qdrant"
)

// summaryInputRunes bounds how much of the document the summarizer reads.
const summaryInputRunes = 200_000

// NewLogger builds the process logger from the log section.
func NewLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewChunker returns the configured chunker.
func NewChunker(cfg config.ChunkerConfig, logger *slog.Logger) (domain.Chunker, error) {
	switch cfg.Type {
	case "character", "":
		return chunker.NewCharacterChunker(cfg.ChunkSize, cfg.ChunkOverlap, cfg.Separator, logger), nil
	case "sentence":
		return chunker.NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentences), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Type)
	}
}

// NewEmbedder returns the configured embedder.
func NewEmbedder(cfg config.EmbedderConfig) (embedding.Embedder, error) {
	switch cfg.Type {
	case "ollama", "":
		oc := config.OllamaEmbedderConfig{}
		if cfg.Ollama != nil {
			oc = *cfg.Ollama
		}
		return ollama.NewClient(ollama.Config{
			BaseURL: oc.BaseURL,
			Model:   oc.Model,
			Timeout: time.Duration(oc.TimeoutSecs) * time.Second,
		}), nil
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

// NewStore returns the configured search backend.
func NewStore(cfg config.VectorStoreConfig) (vectorstore.Storage, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.NewStorage(), nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, fmt.Errorf("qdrant config missing")
		}
		st, err := qdrant.NewStorage(qdrant.Config{
			Addr:       cfg.Qdrant.Addr,
			Collection: cfg.Qdrant.Collection,
		})
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}

// NewSummarizer returns the configured summarizer, or nil for "none".
func NewSummarizer(cfg config.SummarizerConfig) (domain.Summarizer, error) {
	switch cfg.Type {
	case "frequency", "":
		return summarizer.NewFrequencySummarizer(summaryInputRunes), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Type)
	}
}

// NewCompleter returns the hosted model client. It fails with
// domain.ErrMissingCredential when the API key is not set.
func NewCompleter(cfg config.LLMConfig, logger *slog.Logger) (*llm.Client, error) {
	return llm.New(llm.Config{
		BaseURL:     cfg.BaseURL,
		APIKeyEnv:   cfg.APIKeyEnv,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     time.Duration(cfg.TimeoutSecs) * time.Second,
		MaxRetries:  cfg.MaxRetries,
		RateLimit:   cfg.RateLimit,
		Logger:      logger,
	})
}

// NewIndexBuilder wires the index builder from the configuration.
func NewIndexBuilder(cfg *config.AppConfig, logger *slog.Logger) (*service.IndexBuilder, error) {
	ch, err := NewChunker(cfg.Chunker, logger)
	if err != nil {
		return nil, err
	}
	emb, err := NewEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	st, err := NewStore(cfg.VectorStore)
	if err != nil {
		return nil, err
	}
	sum, err := NewSummarizer(cfg.Summarizer)
	if err != nil {
		return nil, err
	}
	opts := service.DefaultBuildOptions()
	opts.Verify = cfg.Index.Verify
	opts.SummaryMaxSentences = cfg.Summarizer.MaxSentences
	return service.NewIndexBuilder(ch, emb, st, sum, opts, logger), nil
}
