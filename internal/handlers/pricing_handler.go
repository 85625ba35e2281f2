package handlers

import (
	"net/http"

	"github.com/courseloom/backend/internal/pricing"
)

type pricingInfo struct {
	PerLesson   int `json:"per_lesson"`
	PerChapter  int `json:"per_chapter"`
	PerSlide    int `json:"per_slide"`
	ImageAddon  int `json:"image_addon"`
	MinimumCost int `json:"minimum_cost"`
}

// ListPricing handles GET /v1/pricing (public, no auth).
func ListPricing(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, pricingInfo{
		PerLesson:   pricing.PerLessonRate,
		PerChapter:  pricing.PerChapterRate,
		PerSlide:    pricing.PerSlideRate,
		ImageAddon:  pricing.ImageAddonRate,
		MinimumCost: pricing.MinimumCost,
	})
}
