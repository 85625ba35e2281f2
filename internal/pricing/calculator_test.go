package pricing

import "testing"

// ---------------------------------------------------------------------------
// 1. Floor enforcement
// ---------------------------------------------------------------------------

func TestCourseCost_Floor(t *testing.T) {
	// 1 chapter × 1 lesson = 1 + 1 = 2, below the minimum.
	if got := CourseCost(1, 1, false); got != MinimumCost {
		t.Errorf("CourseCost(1,1,false): got %d, want floor %d", got, MinimumCost)
	}
	if got := PresentationCost(1, false); got != MinimumCost {
		t.Errorf("PresentationCost(1,false): got %d, want floor %d", got, MinimumCost)
	}
}

// ---------------------------------------------------------------------------
// 2. Determinism against recorded values
// ---------------------------------------------------------------------------

func TestCourseCost_RecordedValues(t *testing.T) {
	cases := []struct {
		chapters, lessons int
		images            bool
		want              int
	}{
		{3, 1, false, 6},  // 3 lessons + 3 chapters
		{3, 4, false, 15}, // 12 lessons + 3 chapters
		{3, 4, true, 17},
		{5, 2, false, 15},
		{1, 1, true, 4}, // 2 + addon 2, above floor
	}
	for _, c := range cases {
		got := CourseCost(c.chapters, c.lessons, c.images)
		if got != c.want {
			t.Errorf("CourseCost(%d,%d,%v): got %d, want %d",
				c.chapters, c.lessons, c.images, got, c.want)
		}
		// Pure: calling twice yields the same figure.
		if again := CourseCost(c.chapters, c.lessons, c.images); again != got {
			t.Errorf("CourseCost not deterministic: %d then %d", got, again)
		}
	}
}

func TestPresentationCost_RecordedValues(t *testing.T) {
	cases := []struct {
		slides int
		images bool
		want   int
	}{
		{5, false, 5},
		{10, true, 12},
		{2, false, 3}, // floor
	}
	for _, c := range cases {
		if got := PresentationCost(c.slides, c.images); got != c.want {
			t.Errorf("PresentationCost(%d,%v): got %d, want %d", c.slides, c.images, got, c.want)
		}
	}
}
