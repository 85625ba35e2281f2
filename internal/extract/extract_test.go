package extract

import (
	"context"
	"strings"
	"testing"
)

func TestPlainTextExtractsMarkdown(t *testing.T) {
	doc, err := PlainText{}.Extract(context.Background(), []byte("# Notes\n\nGo basics.\n"), "text/markdown; charset=utf-8")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Text != "# Notes\n\nGo basics." {
		t.Errorf("text = %q", doc.Text)
	}
	if doc.Title != "Notes" {
		t.Errorf("title = %q", doc.Title)
	}
	if doc.PageCount != 1 {
		t.Errorf("page count = %d", doc.PageCount)
	}
}

func TestPlainTextDefaultsToPlainWhenTypeMissing(t *testing.T) {
	doc, err := PlainText{}.Extract(context.Background(), []byte("  plain body  "), "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if doc.Text != "plain body" {
		t.Errorf("text = %q", doc.Text)
	}
	if doc.Title != "" {
		t.Errorf("title should be empty, got %q", doc.Title)
	}
}

func TestPlainTextRejections(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		contentType string
		wantErr     string
	}{
		{"unsupported type", []byte("x"), "application/pdf", "unsupported document type"},
		{"invalid utf8", []byte{0xff, 0xfe, 0x01}, "text/plain", "not valid UTF-8"},
		{"empty", []byte("   \n  "), "text/plain", "empty"},
		{"too large", []byte(strings.Repeat("a", MaxSourceBytes+1)), "text/plain", "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PlainText{}.Extract(context.Background(), tt.data, tt.contentType)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}
