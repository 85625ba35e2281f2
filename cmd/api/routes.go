package main

import (
	"net/http"

	"github.com/courseloom/backend/internal/handlers"
	"github.com/courseloom/backend/internal/middleware"
	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/repository"
)

// RegisterV1Routes adds the /v1/ generation API endpoints to the given mux.
// Middleware chain: APIKeyAuth -> CreditCheck -> handler.
func RegisterV1Routes(
	mux *http.ServeMux,
	apiKeyRepo *repository.APIKeyRepo,
	creditRepo *repository.CreditRepo,
	gh *handlers.GenerateHandler,
	eh *handlers.ExtractHandler,
) {
	auth := middleware.APIKeyAuth(apiKeyRepo)
	courseCheck := middleware.CreditCheck(creditRepo, models.ArtifactCourse)
	presCheck := middleware.CreditCheck(creditRepo, models.ArtifactPresentation)

	mux.Handle("POST /v1/generate/course", auth(courseCheck(http.HandlerFunc(gh.GenerateCourse))))
	mux.Handle("POST /v1/generate/presentation", auth(presCheck(http.HandlerFunc(gh.GeneratePresentation))))
	mux.Handle("POST /v1/extract", auth(http.HandlerFunc(eh.Extract)))
}
