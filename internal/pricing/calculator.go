// Package pricing computes the credit price of a generation request.
//
// Every function here is pure and deterministic so the dashboard can show
// the exact figure the backend will charge. Changing a rate constant changes
// both sides at once.
package pricing

// Rate constants. Prices are whole credits.
const (
	PerLessonRate  = 1
	PerChapterRate = 1
	PerSlideRate   = 1
	ImageAddonRate = 2
	MinimumCost    = 3
)

// CourseCost prices a course request: one unit per lesson across all
// chapters, plus a per-chapter outline charge, plus the image add-on.
func CourseCost(chapters, lessonsPerChapter int, includeImages bool) int {
	totalLessons := chapters * lessonsPerChapter
	cost := PerLessonRate*totalLessons + PerChapterRate*chapters
	if includeImages {
		cost += ImageAddonRate
	}
	return withFloor(cost)
}

// PresentationCost prices a presentation request by slide count plus the
// image add-on.
func PresentationCost(slides int, includeImages bool) int {
	cost := PerSlideRate * slides
	if includeImages {
		cost += ImageAddonRate
	}
	return withFloor(cost)
}

func withFloor(cost int) int {
	if cost < MinimumCost {
		return MinimumCost
	}
	return cost
}
