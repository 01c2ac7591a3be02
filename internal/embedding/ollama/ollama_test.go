package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbed(t *testing.T) {
	var lastReq embedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&lastReq)
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.5, -0.25, 1}})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/", Model: "all-minilm"})
	if c.Dimension() != 0 {
		t.Fatalf("dimension before first call = %d", c.Dimension())
	}
	vec, err := c.Embed(context.Background(), "aspirin")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 3 || vec[0] != 0.5 || vec[1] != -0.25 {
		t.Fatalf("vec = %v", vec)
	}
	if lastReq.Model != "all-minilm" || lastReq.Prompt != "aspirin" {
		t.Errorf("request = %+v", lastReq)
	}
	if c.Dimension() != 3 {
		t.Errorf("dimension = %d", c.Dimension())
	}
	if c.Name() != "ollama" || c.Model() != "all-minilm" {
		t.Errorf("name/model = %s/%s", c.Name(), c.Model())
	}
}

func TestEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"all-minilm\" not found, try pulling it first"}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Embed(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestEmbedDimensionChange(t *testing.T) {
	n := 2
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(embedResponse{Embedding: make([]float64, n)})
		n++
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.Embed(context.Background(), "a"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Embed(context.Background(), "b"); err == nil {
		t.Fatal("expected dimension change error")
	}
}
