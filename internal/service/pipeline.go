package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/prompt"
)

// Pipeline answers questions against a built index. It keeps no state
// between questions.
type Pipeline struct {
	index     *Index
	completer domain.Completer
	topK      int
	logger    *slog.Logger
}

func NewPipeline(index *Index, completer domain.Completer, topK int, logger *slog.Logger) *Pipeline {
	if topK <= 0 {
		topK = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{index: index, completer: completer, topK: topK, logger: logger}
}

// Answer retrieves the topK chunks for question, renders them into the QA
// prompt and returns the model's reply.
func (p *Pipeline) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}
	start := time.Now()

	sources, err := p.index.Search(ctx, question, p.topK)
	if err != nil {
		return nil, err
	}
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = s.Chunk.Text
	}
	rendered, err := prompt.Render(prompt.JoinContext(parts), question)
	if err != nil {
		return nil, fmt.Errorf("service: render prompt: %w", err)
	}

	text, err := p.completer.Complete(ctx, rendered)
	if err != nil {
		if !errors.Is(err, domain.ErrRemoteModel) {
			err = &domain.RemoteModelError{Model: p.completer.Model(), Err: err}
		}
		p.logger.Error("completion failed", "model", p.completer.Model(), "err", err)
		return nil, err
	}

	ans := &domain.Answer{
		Question: question,
		Text:     strings.TrimSpace(text),
		Sources:  sources,
		Prompt:   rendered,
		Model:    p.completer.Model(),
		Elapsed:  time.Since(start),
	}
	p.logger.Info("question answered",
		"chunks", len(sources),
		"prompt_chars", len(rendered),
		"elapsed", ans.Elapsed)
	return ans, nil
}
