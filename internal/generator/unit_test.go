package generator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/courseloom/backend/internal/genai"
	"github.com/courseloom/backend/internal/models"
)

// scriptedClient replays a fixed sequence of responses.
type scriptedClient struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedClient) Complete(_ context.Context, _ string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("script exhausted")
}

func newTestGenerator(c genai.Client) *UnitGenerator {
	r := genai.NewRetryer(c, nil)
	r.Sleep = func(time.Duration) {}
	return NewUnitGenerator(r, nil)
}

func TestLesson_ParsesFencedResponse(t *testing.T) {
	g := newTestGenerator(&scriptedClient{responses: []string{
		"```json\n{\"body\": \"Pointers hold addresses.\", \"quiz\": [{\"question\": \"q\", \"options\": [\"a\",\"b\",\"c\",\"d\"], \"answer\": \"a\"}]}\n```",
	}})

	lesson := g.Lesson(context.Background(), "Go Basics", "Memory", "Pointers")
	if lesson.Status != models.UnitStatusOK {
		t.Fatalf("status: got %q, want ok", lesson.Status)
	}
	if lesson.Title != "Pointers" {
		t.Errorf("title: got %q", lesson.Title)
	}
	if lesson.Body != "Pointers hold addresses." {
		t.Errorf("body: got %q", lesson.Body)
	}
	if len(lesson.Quiz) != 1 {
		t.Errorf("quiz: got %d questions", len(lesson.Quiz))
	}
}

func TestLesson_DegradesOnPermanentFailure(t *testing.T) {
	g := newTestGenerator(&scriptedClient{errs: []error{
		&genai.APIError{StatusCode: 400, Body: "bad prompt"},
	}})

	lesson := g.Lesson(context.Background(), "Go Basics", "Memory", "Pointers")
	if lesson.Status != models.UnitStatusDegraded {
		t.Fatalf("status: got %q, want degraded", lesson.Status)
	}
	if lesson.Title != "Pointers" {
		t.Errorf("placeholder must keep the outline title, got %q", lesson.Title)
	}
	if lesson.Body == "" {
		t.Error("placeholder body must not be empty")
	}
}

func TestLesson_DegradesOnUnparseableResponse(t *testing.T) {
	g := newTestGenerator(&scriptedClient{responses: []string{"I cannot answer in JSON, sorry."}})

	lesson := g.Lesson(context.Background(), "Go Basics", "Memory", "Pointers")
	if lesson.Status != models.UnitStatusDegraded {
		t.Fatalf("status: got %q, want degraded", lesson.Status)
	}
}

func TestSlide_ParsesAndDegrades(t *testing.T) {
	g := newTestGenerator(&scriptedClient{responses: []string{
		`{"bullets": ["one", "two", "three"], "speaker_notes": "say things"}`,
		`{"bullets": []}`,
	}})

	slide := g.Slide(context.Background(), "Quarterly Review", "Revenue")
	if slide.Status != models.UnitStatusOK || len(slide.Bullets) != 3 {
		t.Fatalf("first slide: status %q, %d bullets", slide.Status, len(slide.Bullets))
	}

	slide = g.Slide(context.Background(), "Quarterly Review", "Costs")
	if slide.Status != models.UnitStatusDegraded {
		t.Fatalf("empty bullets must degrade, got status %q", slide.Status)
	}
}

func TestCourseOutline_NormalizesShape(t *testing.T) {
	// One chapter short, and the first chapter one lesson short.
	g := newTestGenerator(&scriptedClient{responses: []string{
		`{"title": "Go Basics", "description": "d", "difficulty": "beginner",
		  "chapters": [{"title": "Syntax", "lesson_titles": ["Variables"]}]}`,
	}})

	outline, err := g.CourseOutline(context.Background(), "Go", "beginner", 2, 2, "")
	if err != nil {
		t.Fatalf("CourseOutline: %v", err)
	}
	if len(outline.Chapters) != 2 {
		t.Fatalf("chapters: got %d, want 2", len(outline.Chapters))
	}
	for i, ch := range outline.Chapters {
		if len(ch.LessonTitles) != 2 {
			t.Errorf("chapter %d: got %d lessons, want 2", i, len(ch.LessonTitles))
		}
		if ch.Title == "" {
			t.Errorf("chapter %d: empty title", i)
		}
	}
}

func TestCourseOutline_UnusableResponse(t *testing.T) {
	g := newTestGenerator(&scriptedClient{responses: []string{"not even close to json"}})

	_, err := g.CourseOutline(context.Background(), "Go", "beginner", 2, 2, "")
	if !errors.Is(err, ErrUnusableOutline) {
		t.Fatalf("expected ErrUnusableOutline, got %v", err)
	}
}

func TestCourseOutline_EmptyObjectRejected(t *testing.T) {
	// `{}` parses cleanly but carries no title and no chapters. Normalization
	// must not turn it into a synthetic course; the caller needs the failure
	// so the charge can be refunded.
	g := newTestGenerator(&scriptedClient{responses: []string{"{}"}})

	_, err := g.CourseOutline(context.Background(), "Go", "beginner", 3, 2, "")
	if !errors.Is(err, ErrUnusableOutline) {
		t.Fatalf("expected ErrUnusableOutline for empty object, got %v", err)
	}
}

func TestCourseOutline_TitleOnlyStillNormalizes(t *testing.T) {
	// A title with missing chapters is a partial outline: gaps are filled,
	// not rejected.
	g := newTestGenerator(&scriptedClient{responses: []string{
		`{"title": "Go Basics"}`,
	}})

	outline, err := g.CourseOutline(context.Background(), "Go", "beginner", 2, 2, "")
	if err != nil {
		t.Fatalf("CourseOutline: %v", err)
	}
	if outline.Title != "Go Basics" || len(outline.Chapters) != 2 {
		t.Errorf("unexpected outline: %+v", outline)
	}
}

func TestPresentationOutline_EmptyObjectRejected(t *testing.T) {
	g := newTestGenerator(&scriptedClient{responses: []string{"{}"}})

	_, err := g.PresentationOutline(context.Background(), "Roadmap", 4, "")
	if !errors.Is(err, ErrUnusableOutline) {
		t.Fatalf("expected ErrUnusableOutline for empty object, got %v", err)
	}
}

func TestCourseOutline_PropagatesGenerationFailure(t *testing.T) {
	overloaded := &genai.APIError{StatusCode: 503, Body: "overloaded"}
	g := newTestGenerator(&scriptedClient{errs: []error{overloaded, overloaded, overloaded}})

	_, err := g.CourseOutline(context.Background(), "Go", "beginner", 2, 2, "")
	if !errors.Is(err, genai.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}
