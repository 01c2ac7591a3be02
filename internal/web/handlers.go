package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/yuin/goldmark"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
)

// Asker answers a single question.
type Asker interface {
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	asker   Asker
	meta    domain.IndexMeta
	md      goldmark.Markdown
	started time.Time
	logger  *slog.Logger
}

// NewHandler creates a Handler answering with asker over an index described by meta.
func NewHandler(asker Asker, meta domain.IndexMeta, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{asker: asker, meta: meta, md: goldmark.New(), started: time.Now(), logger: logger}
}

type askRequest struct {
	Question string `json:"question"`
}

type askSource struct {
	Page   int     `json:"page"`
	Score  float64 `json:"score"`
	Text   string  `json:"text"`
	Source string  `json:"source"`
}

type askResponse struct {
	Answer    string      `json:"answer"`
	Sources   []askSource `json:"sources"`
	Model     string      `json:"model"`
	ElapsedMS int64       `json:"elapsed_ms"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// HandlePage handles GET / and POST /. A question arrives as ?q= or as the
// "question" form field.
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	data := pageData{Summary: h.meta.Summary}
	status := http.StatusOK
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			status = http.StatusBadRequest
			data.Error = "Invalid form: " + err.Error()
		}
		data.Question = r.PostFormValue("question")
	} else {
		data.Question = r.URL.Query().Get("q")
	}

	if data.Error == "" && (r.Method == http.MethodPost || data.Question != "") {
		ans, err := h.asker.Answer(r.Context(), data.Question)
		if err != nil {
			status = statusFor(err)
			data.Error = userMessage(err)
			h.logger.Warn("question failed", "err", err, "request_id", RequestID(r.Context()))
		} else {
			data.Answer = h.renderMarkdown(ans.Text)
			data.Model = ans.Model
			data.Elapsed = ans.Elapsed.Round(time.Millisecond).String()
			for _, s := range ans.Sources {
				data.Sources = append(data.Sources, sourceView{Page: s.Chunk.Page, Score: s.Score, Text: s.Chunk.Text})
			}
		}
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		h.logger.Error("render page", "err", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// HandleAsk handles POST /api/ask requests.
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON: " + err.Error(), RequestID: RequestID(r.Context())})
		return
	}
	ans, err := h.asker.Answer(r.Context(), req.Question)
	if err != nil {
		h.logger.Warn("question failed", "err", err, "request_id", RequestID(r.Context()))
		sendJSON(w, statusFor(err), errorResponse{Error: userMessage(err), RequestID: RequestID(r.Context())})
		return
	}
	resp := askResponse{
		Answer:    ans.Text,
		Sources:   make([]askSource, 0, len(ans.Sources)),
		Model:     ans.Model,
		ElapsedMS: ans.Elapsed.Milliseconds(),
	}
	for _, s := range ans.Sources {
		resp.Sources = append(resp.Sources, askSource{Page: s.Chunk.Page, Score: s.Score, Text: s.Chunk.Text, Source: s.Chunk.Source})
	}
	sendJSON(w, http.StatusOK, resp)
}

// HandleHealth handles GET /api/health requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"chunks": h.meta.ChunkCount,
	})
}

// HandleStats handles GET /api/stats requests.
func (h *Handler) HandleStats(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]any{
		"source":        h.meta.Source,
		"chunks":        h.meta.ChunkCount,
		"embedder":      h.meta.Embedder,
		"model":         h.meta.Model,
		"dimension":     h.meta.Dimension,
		"chunker":       h.meta.Chunker,
		"chunk_size":    h.meta.ChunkSize,
		"chunk_overlap": h.meta.ChunkOverlap,
		"built_at":      h.meta.CreatedAt,
		"uptime_secs":   int64(time.Since(h.started).Seconds()),
	})
}

func (h *Handler) renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := h.md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRemoteModel):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyQuestion):
		return "Please enter a question."
	case errors.Is(err, domain.ErrRemoteModel):
		return "The language model could not answer: " + err.Error()
	default:
		return err.Error()
	}
}

// sendJSON writes a JSON response with the given status code.
func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
