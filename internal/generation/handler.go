package generation

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/courseloom/backend/internal/auth"
	"github.com/courseloom/backend/internal/models"
)

// Request/response structs use snake_case JSON.

type CreateJobRequest struct {
	Kind    string          `json:"kind"`
	Request json.RawMessage `json:"request"`
}

type JobResponse struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Status     string          `json:"status"`
	Request    json.RawMessage `json:"request"`
	ArtifactID *string         `json:"artifact_id,omitempty"`
	Error      string          `json:"error,omitempty"`
}

type Handler struct {
	svc     Service
	authSvc auth.Service
	log     *slog.Logger
}

func NewHandler(svc Service, authSvc auth.Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, authSvc: authSvc, log: log}
}

func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID, err := h.accountIDFromRequest(r)
	if err != nil || accountID == uuid.Nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Kind != models.ArtifactCourse && req.Kind != models.ArtifactPresentation {
		http.Error(w, "kind must be course or presentation", http.StatusBadRequest)
		return
	}
	if req.Request == nil {
		http.Error(w, "request is required", http.StatusBadRequest)
		return
	}
	job, err := h.svc.Enqueue(r.Context(), accountID, req.Kind, req.Request)
	if err != nil {
		if errors.Is(err, ErrInvalidRequest) {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		h.log.Error("enqueue job failed", "error", err)
		http.Error(w, "enqueue failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(jobToResponse(job))
}

func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID, err := h.accountIDFromRequest(r)
	if err != nil || accountID == uuid.Nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	jobID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}
	job, err := h.svc.Get(r.Context(), jobID)
	if err != nil {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	if job.AccountID != accountID {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(jobToResponse(job))
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	accountID, err := h.accountIDFromRequest(r)
	if err != nil || accountID == uuid.Nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	list, err := h.svc.ListByAccount(r.Context(), accountID)
	if err != nil {
		h.log.Error("list jobs failed", "error", err)
		http.Error(w, "list jobs failed", http.StatusInternalServerError)
		return
	}
	resp := make([]JobResponse, 0, len(list))
	for _, j := range list {
		resp = append(resp, jobToResponse(j))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (h *Handler) accountIDFromRequest(r *http.Request) (uuid.UUID, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return uuid.Nil, nil
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return uuid.Nil, nil
	}
	token := strings.TrimSpace(authz[len(prefix):])
	if token == "" {
		return uuid.Nil, nil
	}
	return h.authSvc.ValidateToken(r.Context(), token)
}

func jobToResponse(j *models.GenerationJob) JobResponse {
	out := JobResponse{
		ID:      j.ID.String(),
		Kind:    j.Kind,
		Status:  j.Status,
		Request: j.Request,
		Error:   j.Error,
	}
	if j.ArtifactID != nil {
		s := j.ArtifactID.String()
		out.ArtifactID = &s
	}
	return out
}
