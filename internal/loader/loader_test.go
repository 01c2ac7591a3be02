package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
)

func TestLoadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.txt")
	content := "Aspirin is used to reduce pain, fever, and inflammation."
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(doc.Pages))
	}
	if doc.Pages[0].Number != 1 || doc.Pages[0].Text != content {
		t.Errorf("page = %+v", doc.Pages[0])
	}
	if doc.ID == "" || doc.Path != path {
		t.Errorf("id/path not set: %+v", doc)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != doc.ID {
		t.Errorf("document id not stable: %s vs %s", again.ID, doc.ID)
	}
}

func TestLoadIDFollowsContent(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	for _, p := range []string{a, b} {
		if err := os.WriteFile(p, []byte("Insulin regulates blood glucose."), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	da, err := Load(a)
	if err != nil {
		t.Fatal(err)
	}
	db, err := Load(b)
	if err != nil {
		t.Fatal(err)
	}
	if da.ID != db.ID {
		t.Errorf("same content, different ids: %s vs %s", da.ID, db.ID)
	}

	if err := os.WriteFile(a, []byte("Amoxicillin treats bacterial infections."), 0o644); err != nil {
		t.Fatal(err)
	}
	changed, err := Load(a)
	if err != nil {
		t.Fatal(err)
	}
	if changed.ID == da.ID {
		t.Error("id unchanged after the content changed")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "Medical_book.pdf"))
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestLoadDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestLoadUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.docx")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadCorruptPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for a corrupt pdf")
	}
}

func TestText(t *testing.T) {
	doc := domain.Document{Pages: []domain.Page{{Number: 1, Text: "one"}, {Number: 2, Text: "two"}}}
	if got := Text(doc); got != "one\n\ntwo" {
		t.Errorf("Text = %q", got)
	}
}
