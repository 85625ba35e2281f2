package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/courseloom/backend/internal/artifact"
	"github.com/courseloom/backend/internal/middleware"
	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/saga"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubSaga struct {
	courseResult *saga.CourseResult
	presResult   *saga.PresentationResult
	err          error
}

func (s *stubSaga) GenerateCourse(_ context.Context, _ saga.CourseRequest) (*saga.CourseResult, error) {
	return s.courseResult, s.err
}

func (s *stubSaga) GeneratePresentation(_ context.Context, _ saga.PresentationRequest) (*saga.PresentationResult, error) {
	return s.presResult, s.err
}

type memArtifacts struct {
	stored []*models.Artifact
}

func (m *memArtifacts) Create(_ context.Context, a *models.Artifact) error {
	m.stored = append(m.stored, a)
	return nil
}

func newTestHandler(t *testing.T, s SagaRunner) (*GenerateHandler, *memArtifacts) {
	t.Helper()
	v, err := artifact.NewValidator("../../schemas")
	if err != nil {
		t.Fatalf("NewValidator: %v", err)
	}
	store := &memArtifacts{}
	return &GenerateHandler{
		Saga:      s,
		Artifacts: store,
		Validator: v,
		Logger:    slog.Default(),
	}, store
}

func doRequest(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	acc := &models.Account{ID: uuid.New(), Email: "t@example.com"}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req = req.WithContext(middleware.WithAccount(req.Context(), acc))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func okCourse() *saga.CourseResult {
	return &saga.CourseResult{
		Course: models.Course{
			ID:    uuid.New(),
			Title: "Go Basics",
			Chapters: []models.Chapter{{
				Title: "Syntax",
				Lessons: []models.Lesson{{
					Title: "Variables", Body: "text", Status: models.UnitStatusOK,
				}},
			}},
		},
		CostCharged: 6,
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestGenerateCourse_Success(t *testing.T) {
	h, store := newTestHandler(t, &stubSaga{courseResult: okCourse()})

	rec := doRequest(h.GenerateCourse, `{"topic":"Go","chapters":2,"lessons_per_chapter":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ArtifactID  string `json:"artifact_id"`
		CostCharged int    `json:"cost_charged"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.CostCharged != 6 {
		t.Errorf("cost: got %d, want 6", resp.CostCharged)
	}
	if len(store.stored) != 1 {
		t.Fatalf("artifacts stored: got %d, want 1", len(store.stored))
	}
	if store.stored[0].Kind != models.ArtifactCourse {
		t.Errorf("kind: got %q", store.stored[0].Kind)
	}
}

func TestGenerateCourse_RejectsInvalidRequest(t *testing.T) {
	h, store := newTestHandler(t, &stubSaga{courseResult: okCourse()})

	rec := doRequest(h.GenerateCourse, `{"topic":"Go","chapters":0,"lessons_per_chapter":2}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(store.stored) != 0 {
		t.Error("nothing must be stored for a rejected request")
	}
}

func TestGenerateCourse_InsufficientCredits(t *testing.T) {
	h, _ := newTestHandler(t, &stubSaga{err: &saga.InsufficientCreditsError{Required: 6, Available: 2}})

	rec := doRequest(h.GenerateCourse, `{"topic":"Go","chapters":2,"lessons_per_chapter":2}`)
	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Required  int `json:"required"`
		Available int `json:"available"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Required != 6 || resp.Available != 2 {
		t.Errorf("detail: %+v", resp)
	}
}

func TestGenerateCourse_OutlineFailedReportsRefund(t *testing.T) {
	h, _ := newTestHandler(t, &stubSaga{err: &saga.OutlineFailedError{Refunded: true}})

	rec := doRequest(h.GenerateCourse, `{"topic":"Go","chapters":2,"lessons_per_chapter":2}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Refunded bool `json:"refunded"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Refunded {
		t.Error("refunded flag must be true")
	}
}

func TestGeneratePresentation_DegradedArtifactFlagged(t *testing.T) {
	// A presentation whose slide violates the artifact schema (empty bullets)
	// is still returned and stored, with a warning.
	h, store := newTestHandler(t, &stubSaga{presResult: &saga.PresentationResult{
		Presentation: models.Presentation{
			ID:    uuid.New(),
			Title: "Roadmap",
			Slides: []models.Slide{
				{Title: "Q1", Bullets: []string{}, Status: models.UnitStatusDegraded},
			},
		},
		CostCharged:   4,
		DegradedUnits: 1,
	}})

	rec := doRequest(h.GeneratePresentation, `{"topic":"Roadmap","slides":4}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Warnings []string `json:"warnings"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	found := false
	for _, wmsg := range resp.Warnings {
		if strings.Contains(wmsg, "schema validation") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected schema warning, got %v", resp.Warnings)
	}
	if len(store.stored) != 1 {
		t.Errorf("artifact must still be stored, got %d", len(store.stored))
	}
}
