package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/repository"
)

// injectAccount wraps a handler to pre-set the account in context,
// simulating what APIKeyAuth would do upstream.
func injectAccount(acc *models.Account, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ctxAccountKey, acc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func intP(n int) *int { return &n }

// quoteEcho proves the middleware let the request through and recorded a
// quote in context.
func quoteEcho(t *testing.T, wantQuote int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := QuoteFromCtx(r.Context()); got != wantQuote {
			t.Errorf("quote in context: got %d, want %d", got, wantQuote)
		}
		w.WriteHeader(http.StatusOK)
	})
}

// ---------------------------------------------------------------------------
// 1. Request within limits -> 200 OK with quote in context
// ---------------------------------------------------------------------------

func TestCreditCheck_WithinLimits(t *testing.T) {
	original := dailySpendFn
	dailySpendFn = func(_ context.Context, _ *repository.CreditRepo, _ uuid.UUID) (int, error) {
		return 0, nil
	}
	defer func() { dailySpendFn = original }()

	acc := &models.Account{
		ID:        uuid.New(),
		MaxPerJob: intP(50),
		MaxPerDay: intP(200),
	}

	// 2 chapters x 2 lessons = 6 credits.
	handler := injectAccount(acc, CreditCheck(nil, models.ArtifactCourse)(quoteEcho(t, 6)))

	body := `{"topic":"Go","chapters":2,"lessons_per_chapter":2}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// 2. Quote > max_per_job -> 403
// ---------------------------------------------------------------------------

func TestCreditCheck_ExceedsPerJob(t *testing.T) {
	acc := &models.Account{
		ID:        uuid.New(),
		MaxPerJob: intP(5),
	}

	handler := injectAccount(acc, CreditCheck(nil, models.ArtifactCourse)(quoteEcho(t, 0)))

	body := `{"topic":"Go","chapters":3,"lessons_per_chapter":3}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "exceeds per-job limit") {
		t.Errorf("expected per-job error message, got: %s", rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// 3. Daily spend + quote > max_per_day -> 403
// ---------------------------------------------------------------------------

func TestCreditCheck_ExceedsDailyLimit(t *testing.T) {
	original := dailySpendFn
	dailySpendFn = func(_ context.Context, _ *repository.CreditRepo, _ uuid.UUID) (int, error) {
		return 18, nil // already spent 18 today
	}
	defer func() { dailySpendFn = original }()

	acc := &models.Account{
		ID:        uuid.New(),
		MaxPerJob: intP(100),
		MaxPerDay: intP(20),
	}

	handler := injectAccount(acc, CreditCheck(nil, models.ArtifactPresentation)(quoteEcho(t, 0)))

	// 18 spent + 4 quoted = 22 > 20 limit.
	body := `{"topic":"Roadmap","slides":4}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "exceeds daily limit") {
		t.Errorf("expected daily limit error message, got: %s", rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// 4. Out-of-range shape -> 400
// ---------------------------------------------------------------------------

func TestCreditCheck_RejectsOversizedShape(t *testing.T) {
	acc := &models.Account{ID: uuid.New()}

	handler := injectAccount(acc, CreditCheck(nil, models.ArtifactCourse)(quoteEcho(t, 0)))

	body := `{"topic":"Go","chapters":50,"lessons_per_chapter":2}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
