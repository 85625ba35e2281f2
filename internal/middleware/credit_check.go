package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/pricing"
	"github.com/courseloom/backend/internal/repository"
)

const ctxQuoteKey contextKey = "quoted_cost"

// Request shape limits. Oversized requests are rejected before any quote.
const (
	MaxChapters          = 20
	MaxLessonsPerChapter = 10
	MaxSlides            = 30
)

// jobShape is the slice of the request body the quote needs. The body is
// restored afterwards so the handler can decode the full request.
type jobShape struct {
	Chapters          int  `json:"chapters"`
	LessonsPerChapter int  `json:"lessons_per_chapter"`
	Slides            int  `json:"slides"`
	IncludeImages     bool `json:"include_images"`
}

// QuoteFromCtx returns the cost quoted by CreditCheck, or 0 if not set.
func QuoteFromCtx(ctx context.Context) int {
	if q, ok := ctx.Value(ctxQuoteKey).(int); ok {
		return q
	}
	return 0
}

// CreditCheck quotes the job from the request shape and enforces the
// account's per-job and per-day caps before any credits move. kind selects
// the pricing formula (course or presentation).
func CreditCheck(creditRepo *repository.CreditRepo, kind string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc := AccountFromCtx(r.Context())
			if acc == nil {
				http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
				return
			}

			bodyBytes, err := io.ReadAll(r.Body)
			r.Body.Close()
			if err != nil {
				http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
				return
			}
			// Restore body for the handler.
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			var shape jobShape
			if err := json.Unmarshal(bodyBytes, &shape); err != nil {
				http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
				return
			}

			quote, err := quoteJob(kind, shape)
			if err != nil {
				http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadRequest)
				return
			}

			if acc.MaxPerJob != nil && quote > *acc.MaxPerJob {
				http.Error(w, fmt.Sprintf(`{"error":"quoted cost %d exceeds per-job limit %d"}`, quote, *acc.MaxPerJob), http.StatusForbidden)
				return
			}

			if acc.MaxPerDay != nil {
				spent, err := dailySpendFn(r.Context(), creditRepo, acc.ID)
				if err != nil {
					http.Error(w, `{"error":"failed to check daily spend"}`, http.StatusInternalServerError)
					return
				}
				if spent+quote > *acc.MaxPerDay {
					http.Error(w, fmt.Sprintf(`{"error":"daily spend %d + cost %d exceeds daily limit %d"}`, spent, quote, *acc.MaxPerDay), http.StatusForbidden)
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxQuoteKey, quote)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func quoteJob(kind string, shape jobShape) (int, error) {
	switch kind {
	case models.ArtifactCourse:
		if shape.Chapters < 1 || shape.Chapters > MaxChapters {
			return 0, fmt.Errorf("chapters must be 1-%d", MaxChapters)
		}
		if shape.LessonsPerChapter < 1 || shape.LessonsPerChapter > MaxLessonsPerChapter {
			return 0, fmt.Errorf("lessons_per_chapter must be 1-%d", MaxLessonsPerChapter)
		}
		return pricing.CourseCost(shape.Chapters, shape.LessonsPerChapter, shape.IncludeImages), nil
	case models.ArtifactPresentation:
		if shape.Slides < 1 || shape.Slides > MaxSlides {
			return 0, fmt.Errorf("slides must be 1-%d", MaxSlides)
		}
		return pricing.PresentationCost(shape.Slides, shape.IncludeImages), nil
	default:
		return 0, fmt.Errorf("unknown artifact kind %q", kind)
	}
}

// dailySpendFn computes today's consumption. Tests can replace this to
// avoid hitting a real database.
var dailySpendFn = defaultDailySpend

func defaultDailySpend(ctx context.Context, creditRepo *repository.CreditRepo, accountID uuid.UUID) (int, error) {
	midnight := time.Now().UTC().Truncate(24 * time.Hour)
	return creditRepo.DailyConsumption(ctx, accountID, midnight)
}
