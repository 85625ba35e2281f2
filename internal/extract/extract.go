// Package extract pulls plain text out of uploaded source documents so the
// generation prompts can be grounded on them.
package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxSourceBytes caps uploaded documents. Larger files are rejected before
// extraction rather than truncated silently.
const MaxSourceBytes = 1 << 20

// Document is the prompt-ready view of an uploaded file. Title is best
// effort and may be empty.
type Document struct {
	Text      string `json:"text"`
	PageCount int    `json:"page_count"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
}

// DocumentExtractor converts an uploaded document into prompt material.
type DocumentExtractor interface {
	Extract(ctx context.Context, data []byte, contentType string) (*Document, error)
}

// PlainText handles text/plain and text/markdown uploads. The whole file is
// one page; a leading markdown heading becomes the title.
type PlainText struct{}

var _ DocumentExtractor = PlainText{}

func (PlainText) Extract(_ context.Context, data []byte, contentType string) (*Document, error) {
	if len(data) > MaxSourceBytes {
		return nil, fmt.Errorf("document too large: %d bytes (limit %d)", len(data), MaxSourceBytes)
	}
	mime := contentType
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	mime = strings.TrimSpace(strings.ToLower(mime))
	switch mime {
	case "text/plain", "text/markdown", "":
	default:
		return nil, fmt.Errorf("unsupported document type %q", contentType)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("document is not valid UTF-8")
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("document is empty")
	}
	doc := &Document{Text: text, PageCount: 1}
	if first, _, _ := strings.Cut(text, "\n"); strings.HasPrefix(first, "# ") {
		doc.Title = strings.TrimSpace(strings.TrimPrefix(first, "# "))
	}
	return doc, nil
}
