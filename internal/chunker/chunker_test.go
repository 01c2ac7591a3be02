package chunker

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCharacterChunkerMergesWithOverlap(t *testing.T) {
	c := NewCharacterChunker(7, 3, " ", quietLogger())
	got := c.SplitText("foo bar baz 123")
	want := []string{"foo bar", "bar baz", "baz 123"}
	if len(got) != len(want) {
		t.Fatalf("SplitText = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCharacterChunkerDropsEmptyPieces(t *testing.T) {
	c := NewCharacterChunker(1000, 30, "\n\n", quietLogger())
	got := c.SplitText("\n\nFirst paragraph.\n\n\n\nSecond paragraph.\n\n")
	if len(got) != 1 {
		t.Fatalf("SplitText = %q, want one chunk", got)
	}
	if got[0] != "First paragraph.\n\nSecond paragraph." {
		t.Errorf("chunk = %q", got[0])
	}
}

func TestCharacterChunkerRespectsSize(t *testing.T) {
	var paras []string
	for i := 0; i < 40; i++ {
		paras = append(paras, strings.Repeat("word ", 20)+"end.")
	}
	c := NewCharacterChunker(1000, 30, "\n\n", quietLogger())
	chunks := c.SplitText(strings.Join(paras, "\n\n"))
	if len(chunks) < 4 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if n := utf8.RuneCountInString(ch); n > 1000 {
			t.Errorf("chunk %d has %d runes", i, n)
		}
	}
}

func TestCharacterChunkerKeepsOversizedPiece(t *testing.T) {
	long := strings.Repeat("x", 50)
	c := NewCharacterChunker(10, 2, "\n\n", quietLogger())
	got := c.SplitText("ab\n\n" + long + "\n\ncd")
	if len(got) != 3 || got[1] != long {
		t.Fatalf("SplitText = %q", got)
	}
}

func TestCharacterChunkerCountsRunes(t *testing.T) {
	c := NewCharacterChunker(5, 0, " ", quietLogger())
	got := c.SplitText("ñññ ééé")
	if len(got) != 2 {
		t.Fatalf("SplitText = %q, want 2 chunks", got)
	}
}

func TestCharacterChunkerPositionsSpanPages(t *testing.T) {
	doc := domain.Document{
		ID:   "doc",
		Path: "book.pdf",
		Pages: []domain.Page{
			{Number: 1, Text: "alpha\n\nbeta"},
			{Number: 2, Text: ""},
			{Number: 3, Text: "gamma"},
		},
	}
	c := NewCharacterChunker(5, 0, "\n\n", quietLogger())
	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 3 {
		t.Fatalf("chunks = %+v", chunks)
	}
	for i, ch := range chunks {
		if ch.Position != i {
			t.Errorf("chunk %d position = %d", i, ch.Position)
		}
		if ch.Source != "book.pdf" {
			t.Errorf("chunk %d source = %q", i, ch.Source)
		}
	}
	if chunks[2].Page != 3 || chunks[2].ID != "doc:2" {
		t.Errorf("last chunk = %+v", chunks[2])
	}
}

func TestCharacterChunkerDeterministic(t *testing.T) {
	text := strings.Repeat("Paracetamol lowers fever.\n\nIbuprofen reduces swelling.\n\n", 60)
	doc := domain.Document{ID: "d", Pages: []domain.Page{{Number: 1, Text: text}}}
	c := NewCharacterChunker(1000, 30, "\n\n", quietLogger())
	a, _ := c.Chunk(doc)
	b, _ := c.Chunk(doc)
	if len(a) != len(b) || len(a) == 0 {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
}

func TestSentenceChunker(t *testing.T) {
	doc := domain.Document{
		ID:    "d",
		Pages: []domain.Page{{Number: 4, Text: "One. Two. Three. Four. Five."}},
	}
	c := NewSentenceChunker(2, 1)
	chunks, err := c.Chunk(doc)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"One. Two.", "Two. Three.", "Three. Four.", "Four. Five."}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %+v", chunks)
	}
	for i := range want {
		if chunks[i].Text != want[i] {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i].Text, want[i])
		}
		if chunks[i].Page != 4 {
			t.Errorf("chunk %d page = %d", i, chunks[i].Page)
		}
	}
}

func TestSentenceChunkerNoPunctuation(t *testing.T) {
	doc := domain.Document{ID: "d", Pages: []domain.Page{{Number: 1, Text: "  no punctuation here  "}}}
	chunks, _ := NewSentenceChunker(5, 1).Chunk(doc)
	if len(chunks) != 1 || chunks[0].Text != "no punctuation here" {
		t.Fatalf("chunks = %+v", chunks)
	}
}
