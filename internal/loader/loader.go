// Package loader reads the reference document from disk as plain-text pages.
package loader

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/Bharathkumar-ms/Medical-Chatbot/internal/domain"
)

// ErrUnsupportedFormat is returned for files that are neither PDF nor text.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Load reads the document at path. PDFs produce one page per PDF page;
// .txt and .md files produce a single page.
func Load(path string) (domain.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Document{}, fmt.Errorf("%w: %s", domain.ErrDocumentNotFound, path)
		}
		return domain.Document{}, fmt.Errorf("loader: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return domain.Document{}, fmt.Errorf("%w: %s is a directory", domain.ErrDocumentNotFound, path)
	}

	var pages []domain.Page
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		pages, err = loadPDF(path)
	case ".txt", ".md":
		pages, err = loadText(path)
	default:
		return domain.Document{}, fmt.Errorf("loader: %w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return domain.Document{}, err
	}
	id, err := hashFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	return domain.Document{ID: id, Path: path, Pages: pages}, nil
}

func loadText(path string) ([]domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	return []domain.Page{{Number: 1, Text: string(data)}}, nil
}

func loadPDF(path string) (pages []domain.Page, err error) {
	// The PDF reader panics on some malformed content streams.
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("loader: parse %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()

	n := r.NumPage()
	pages = make([]domain.Page, 0, n)
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		page := domain.Page{Number: i}
		if !p.V.IsNull() {
			text, err := p.GetPlainText(nil)
			if err != nil {
				return nil, fmt.Errorf("loader: page %d of %s: %w", i, path, err)
			}
			page.Text = text
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// Text concatenates all pages, separated by blank lines.
func Text(doc domain.Document) string {
	var b strings.Builder
	for i, p := range doc.Pages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(p.Text)
	}
	return b.String()
}

// hashFile returns a short content hash of the file, so the id changes when
// the document does.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()
	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("loader: hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)[:8]), nil
}
