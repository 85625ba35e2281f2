package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/courseloom/backend/internal/artifact"
	"github.com/courseloom/backend/internal/middleware"
	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/saga"
)

// SagaRunner abstracts the generation saga so tests don't need a real
// generation client or ledger.
type SagaRunner interface {
	GenerateCourse(ctx context.Context, req saga.CourseRequest) (*saga.CourseResult, error)
	GeneratePresentation(ctx context.Context, req saga.PresentationRequest) (*saga.PresentationResult, error)
}

// ArtifactStore persists finished artifacts.
type ArtifactStore interface {
	Create(ctx context.Context, a *models.Artifact) error
}

// GenerateHandler serves the synchronous /v1/generate endpoints.
type GenerateHandler struct {
	Saga      SagaRunner
	Artifacts ArtifactStore
	Validator *artifact.Validator
	Logger    *slog.Logger
}

type courseRequest struct {
	Topic             string `json:"topic"`
	Difficulty        string `json:"difficulty"`
	Chapters          int    `json:"chapters"`
	LessonsPerChapter int    `json:"lessons_per_chapter"`
	IncludeImages     bool   `json:"include_images"`
	SourceText        string `json:"source_text"`
}

type presentationRequest struct {
	Topic         string `json:"topic"`
	Slides        int    `json:"slides"`
	IncludeImages bool   `json:"include_images"`
	SourceText    string `json:"source_text"`
}

type generateResponse struct {
	ArtifactID    string          `json:"artifact_id"`
	Artifact      json.RawMessage `json:"artifact"`
	CostCharged   int             `json:"cost_charged"`
	DegradedUnits int             `json:"degraded_units"`
	Warnings      []string        `json:"warnings,omitempty"`
}

// GenerateCourse handles POST /v1/generate/course.
// Auth -> CreditCheck (via middleware) -> Validate Request -> Saga -> Persist -> 201.
func (h *GenerateHandler) GenerateCourse(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
		return
	}

	// Hard reject malformed requests before any credits move.
	if err := h.Validator.ValidateRequest(models.ArtifactCourse, raw); err != nil {
		if errors.Is(err, artifact.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	var req courseRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Difficulty == "" {
		req.Difficulty = "beginner"
	}

	result, err := h.Saga.GenerateCourse(r.Context(), saga.CourseRequest{
		AccountID:         acc.ID,
		Topic:             req.Topic,
		Difficulty:        req.Difficulty,
		Chapters:          req.Chapters,
		LessonsPerChapter: req.LessonsPerChapter,
		IncludeImages:     req.IncludeImages,
		SourceText:        req.SourceText,
	})
	if err != nil {
		h.writeSagaError(w, err)
		return
	}

	payload, err := json.Marshal(result.Course)
	if err != nil {
		h.Logger.Error("marshal course", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	h.persistAndRespond(w, r, acc.ID, models.ArtifactCourse, result.Course.ID, payload,
		result.CostCharged, result.DegradedUnits, result.Warnings)
}

// GeneratePresentation handles POST /v1/generate/presentation.
func (h *GenerateHandler) GeneratePresentation(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"failed to read body"}`, http.StatusBadRequest)
		return
	}

	if err := h.Validator.ValidateRequest(models.ArtifactPresentation, raw); err != nil {
		if errors.Is(err, artifact.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	var req presentationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}

	result, err := h.Saga.GeneratePresentation(r.Context(), saga.PresentationRequest{
		AccountID:     acc.ID,
		Topic:         req.Topic,
		Slides:        req.Slides,
		IncludeImages: req.IncludeImages,
		SourceText:    req.SourceText,
	})
	if err != nil {
		h.writeSagaError(w, err)
		return
	}

	payload, err := json.Marshal(result.Presentation)
	if err != nil {
		h.Logger.Error("marshal presentation", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	h.persistAndRespond(w, r, acc.ID, models.ArtifactPresentation, result.Presentation.ID, payload,
		result.CostCharged, result.DegradedUnits, result.Warnings)
}

func (h *GenerateHandler) persistAndRespond(w http.ResponseWriter, r *http.Request, accountID uuid.UUID, kind string, id uuid.UUID, payload json.RawMessage, cost, degraded int, warnings []string) {
	// Soft validate the finished artifact: flag, never discard paid work.
	if valErr := h.Validator.ValidateArtifact(kind, payload); valErr != nil {
		h.Logger.Warn("artifact validation failed (soft flag)", "artifact_id", id, "kind", kind, "error", valErr)
		warnings = append(warnings, "artifact failed schema validation")
	}

	a := &models.Artifact{
		ID:            id,
		AccountID:     accountID,
		Kind:          kind,
		Payload:       payload,
		CostCharged:   cost,
		DegradedUnits: degraded,
	}
	if err := h.Artifacts.Create(r.Context(), a); err != nil {
		h.Logger.Error("persist artifact", "artifact_id", id, "error", err)
		http.Error(w, `{"error":"failed to store artifact"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, generateResponse{
		ArtifactID:    id.String(),
		Artifact:      payload,
		CostCharged:   cost,
		DegradedUnits: degraded,
		Warnings:      warnings,
	})
}

// writeSagaError maps saga failures to HTTP statuses. Refund state is always
// reported so a client never has to guess whether a charge stuck.
func (h *GenerateHandler) writeSagaError(w http.ResponseWriter, err error) {
	var insufficient *saga.InsufficientCreditsError
	if errors.As(err, &insufficient) {
		writeJSON(w, http.StatusPaymentRequired, map[string]any{
			"error":     "insufficient credits",
			"required":  insufficient.Required,
			"available": insufficient.Available,
		})
		return
	}
	if errors.Is(err, saga.ErrChargeFailed) {
		h.Logger.Error("charge failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "charge failed, no credits were taken"})
		return
	}
	var outlineErr *saga.OutlineFailedError
	if errors.As(err, &outlineErr) {
		h.Logger.Error("outline failed", "refunded", outlineErr.Refunded, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"error":    "outline generation failed",
			"refunded": outlineErr.Refunded,
		})
		return
	}
	h.Logger.Error("generation failed", "error", err)
	http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
