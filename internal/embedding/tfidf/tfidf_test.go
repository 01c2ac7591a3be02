package tfidf

import (
	"context"
	"math"
	"testing"
)

func TestEmbedBeforePrepare(t *testing.T) {
	e := NewEmbedder()
	if _, err := e.Embed(context.Background(), "aspirin"); err == nil {
		t.Fatal("expected error before Prepare")
	}
	if e.Dimension() != 0 {
		t.Fatalf("Dimension = %d before Prepare", e.Dimension())
	}
}

func TestPrepareEmpty(t *testing.T) {
	if err := NewEmbedder().Prepare(nil); err == nil {
		t.Fatal("expected error for empty corpus")
	}
	if err := NewEmbedder().Prepare([]string{"the and of"}); err == nil {
		t.Fatal("expected error for stopword-only corpus")
	}
}

func TestEmbedNormalizedAndStable(t *testing.T) {
	corpus := []string{
		"Aspirin is used to reduce pain, fever, and inflammation.",
		"Insulin regulates blood glucose levels.",
	}
	e := NewEmbedder()
	if err := e.Prepare(corpus); err != nil {
		t.Fatal(err)
	}
	v, err := e.Embed(context.Background(), corpus[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(v) != e.Dimension() {
		t.Fatalf("len = %d, dim = %d", len(v), e.Dimension())
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("norm^2 = %f, want 1", norm)
	}

	other := NewEmbedder()
	if err := other.Prepare(corpus); err != nil {
		t.Fatal(err)
	}
	w, _ := other.Embed(context.Background(), corpus[0])
	for i := range v {
		if v[i] != w[i] {
			t.Fatalf("re-prepared embedder differs at %d: %v vs %v", i, v[i], w[i])
		}
	}
}

func TestEmbedUnknownTermsIsZero(t *testing.T) {
	e := NewEmbedder()
	if err := e.Prepare([]string{"aspirin fever"}); err != nil {
		t.Fatal(err)
	}
	v, err := e.Embed(context.Background(), "zzz qqq")
	if err != nil {
		t.Fatal(err)
	}
	for _, x := range v {
		if x != 0 {
			t.Fatalf("expected zero vector, got %v", v)
		}
	}
}
