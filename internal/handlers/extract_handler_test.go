package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/courseloom/backend/internal/extract"
	"github.com/courseloom/backend/internal/middleware"
	"github.com/courseloom/backend/internal/models"
)

func doExtract(body, contentType string, authed bool) *httptest.ResponseRecorder {
	h := &ExtractHandler{Extractor: extract.PlainText{}}
	req := httptest.NewRequest(http.MethodPost, "/v1/extract", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authed {
		acc := &models.Account{ID: uuid.New(), Email: "t@example.com"}
		req = req.WithContext(middleware.WithAccount(req.Context(), acc))
	}
	rec := httptest.NewRecorder()
	h.Extract(rec, req)
	return rec
}

func TestExtractReturnsText(t *testing.T) {
	rec := doExtract("# Outline\n\nGoroutines.\n", "text/markdown", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var doc extract.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Text != "# Outline\n\nGoroutines." {
		t.Errorf("text = %q", doc.Text)
	}
	if doc.Title != "Outline" {
		t.Errorf("title = %q", doc.Title)
	}
}

func TestExtractRejectsUnsupportedType(t *testing.T) {
	rec := doExtract("%PDF-1.4", "application/pdf", true)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
}

func TestExtractRequiresAuth(t *testing.T) {
	rec := doExtract("hello", "text/plain", false)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
