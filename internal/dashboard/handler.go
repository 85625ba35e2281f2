// Package dashboard serves the account-facing management API used by the
// web frontend: profile, spending caps, credit history, artifacts, API keys.
package dashboard

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/courseloom/backend/internal/auth"
	"github.com/courseloom/backend/internal/middleware"
	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/repository"
)

// CreditPurchaser records bought credits against the ledger. Satisfied by
// *ledger.Repository.
type CreditPurchaser interface {
	Purchase(ctx context.Context, accountID uuid.UUID, amount int, description string) error
}

type Handler struct {
	authSvc   auth.Service
	accountR  *repository.AccountRepo
	creditR   *repository.CreditRepo
	apiKeyR   *repository.APIKeyRepo
	artifactR *repository.ArtifactRepo
	purchaser CreditPurchaser
	log       *slog.Logger
}

func NewHandler(
	authSvc auth.Service,
	accountR *repository.AccountRepo,
	creditR *repository.CreditRepo,
	apiKeyR *repository.APIKeyRepo,
	artifactR *repository.ArtifactRepo,
	purchaser CreditPurchaser,
	log *slog.Logger,
) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		authSvc:   authSvc,
		accountR:  accountR,
		creditR:   creditR,
		apiKeyR:   apiKeyR,
		artifactR: artifactR,
		purchaser: purchaser,
		log:       log,
	}
}

func (h *Handler) accountIDFromRequest(r *http.Request) (uuid.UUID, error) {
	authz := r.Header.Get("Authorization")
	if authz == "" {
		return uuid.Nil, fmt.Errorf("missing authorization")
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return uuid.Nil, fmt.Errorf("bad authorization format")
	}
	token := strings.TrimSpace(authz[len(prefix):])
	if token == "" {
		return uuid.Nil, fmt.Errorf("empty token")
	}
	return h.authSvc.ValidateToken(r.Context(), token)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// GET /api/v1/account/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	acc, err := h.accountR.GetByID(r.Context(), accountID)
	if err != nil {
		h.log.Error("get account failed", "error", err)
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":                acc.ID,
		"email":             acc.Email,
		"name":              acc.Name,
		"credit_balance":    acc.CreditBalance,
		"subscription_tier": acc.SubscriptionTier,
		"max_per_job":       acc.MaxPerJob,
		"max_per_day":       acc.MaxPerDay,
		"created_at":        acc.CreatedAt,
	})
}

// PATCH /api/v1/account/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	acc, err := h.accountR.GetByID(r.Context(), accountID)
	if err != nil {
		http.Error(w, "account not found", http.StatusNotFound)
		return
	}
	var body struct {
		MaxPerJob *int `json:"max_per_job"`
		MaxPerDay *int `json:"max_per_day"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if body.MaxPerJob != nil {
		acc.MaxPerJob = body.MaxPerJob
	}
	if body.MaxPerDay != nil {
		acc.MaxPerDay = body.MaxPerDay
	}
	if err := h.accountR.UpdateLimits(r.Context(), acc.ID, acc.MaxPerJob, acc.MaxPerDay); err != nil {
		h.log.Error("update settings failed", "error", err)
		http.Error(w, "update failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /api/v1/credits/purchase
func (h *Handler) PurchaseCredits(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var body struct {
		Amount int `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if body.Amount <= 0 {
		http.Error(w, "amount must be positive", http.StatusBadRequest)
		return
	}
	if err := h.purchaser.Purchase(r.Context(), accountID, body.Amount, "credit purchase"); err != nil {
		h.log.Error("purchase credits failed", "error", err)
		http.Error(w, "purchase failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "ok",
		"amount": body.Amount,
	})
}

// GET /api/v1/credit-transactions
func (h *Handler) ListCreditTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	entries, err := h.creditR.ListByAccountID(r.Context(), accountID)
	if err != nil {
		h.log.Error("list credit transactions failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GET /api/v1/artifacts
func (h *Handler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	artifacts, err := h.artifactR.ListByAccountID(r.Context(), accountID)
	if err != nil {
		h.log.Error("list artifacts failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, artifacts)
}

// GET /api/v1/artifacts/{id}
func (h *Handler) GetArtifact(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	artifactID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid artifact id", http.StatusBadRequest)
		return
	}
	a, err := h.artifactR.GetByID(r.Context(), artifactID)
	if err != nil || a.AccountID != accountID {
		http.Error(w, "artifact not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GET /api/v1/api-keys
func (h *Handler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	keys, err := h.apiKeyR.ListByAccountID(r.Context(), accountID)
	if err != nil {
		h.log.Error("list api keys failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

// POST /api/v1/api-keys
func (h *Handler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	accountID, err := h.accountIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		http.Error(w, "key generation failed", http.StatusInternalServerError)
		return
	}
	rawKey := "clm_" + hex.EncodeToString(rawBytes)
	keyPrefix := rawKey[:12]

	k := &models.APIKey{
		ID:        uuid.New(),
		AccountID: accountID,
		KeyHash:   middleware.HashKey(rawKey),
		KeyPrefix: keyPrefix,
		IsActive:  true,
	}
	if err := h.apiKeyR.Create(r.Context(), k); err != nil {
		h.log.Error("create api key failed", "error", err)
		http.Error(w, "create failed", http.StatusInternalServerError)
		return
	}
	// The raw key is shown exactly once.
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         k.ID,
		"key_prefix": k.KeyPrefix,
		"is_active":  k.IsActive,
		"raw_key":    rawKey,
	})
}

// DELETE /api/v1/api-keys/{id}
func (h *Handler) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	_, err := h.accountIDFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	keyID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "invalid key ID", http.StatusBadRequest)
		return
	}
	if err := h.apiKeyR.Delete(r.Context(), keyID); err != nil {
		h.log.Error("delete api key failed", "error", err)
		http.Error(w, "delete failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
