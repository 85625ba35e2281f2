package router

import (
	"net/http"

	"github.com/courseloom/backend/internal/auth"
	"github.com/courseloom/backend/internal/dashboard"
	"github.com/courseloom/backend/internal/generation"
)

// New returns an http.Handler that serves the dashboard API under /api/v1.
func New(authHandler *auth.Handler, genHandler *generation.Handler, dashHandler *dashboard.Handler) http.Handler {
	mux := http.NewServeMux()
	base := "/api/v1"
	mux.HandleFunc("POST "+base+"/auth/register", authHandler.Register)
	mux.HandleFunc("POST "+base+"/auth/login", authHandler.Login)

	mux.HandleFunc("POST "+base+"/generations", genHandler.CreateJob)
	mux.HandleFunc("GET "+base+"/generations", genHandler.ListJobs)
	mux.HandleFunc("GET "+base+"/generations/{id}", genHandler.GetJob)

	mux.HandleFunc("GET "+base+"/account/me", dashHandler.GetMe)
	mux.HandleFunc("PATCH "+base+"/account/settings", dashHandler.UpdateSettings)
	mux.HandleFunc("POST "+base+"/credits/purchase", dashHandler.PurchaseCredits)
	mux.HandleFunc("GET "+base+"/credit-transactions", dashHandler.ListCreditTransactions)
	mux.HandleFunc("GET "+base+"/artifacts", dashHandler.ListArtifacts)
	mux.HandleFunc("GET "+base+"/artifacts/{id}", dashHandler.GetArtifact)

	mux.HandleFunc("GET "+base+"/api-keys", dashHandler.ListAPIKeys)
	mux.HandleFunc("POST "+base+"/api-keys", dashHandler.CreateAPIKey)
	mux.HandleFunc("DELETE "+base+"/api-keys/{id}", dashHandler.DeleteAPIKey)

	return mux
}
