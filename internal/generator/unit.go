// Package generator turns outline and unit prompts into typed content.
//
// Outline generation is all-or-nothing: without an outline there is nothing
// to build, so failures propagate to the caller. Individual lessons and
// slides degrade instead: a unit that cannot be generated or parsed becomes
// a placeholder and the job carries on.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/courseloom/backend/internal/genai"
	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/observability"
	"github.com/courseloom/backend/internal/parsing"
)

// ErrUnusableOutline means the model answered but nothing resembling an
// outline could be recovered from the response.
var ErrUnusableOutline = errors.New("outline response unusable")

const (
	placeholderLessonBody = "This lesson could not be generated. Its credits were still spent; regenerate the lesson to replace this placeholder."
	placeholderSlideNote  = "This slide could not be generated. Regenerate it to replace this placeholder."
)

type CourseOutline struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Difficulty  string           `json:"difficulty"`
	Chapters    []ChapterOutline `json:"chapters"`
}

type ChapterOutline struct {
	Title        string   `json:"title"`
	LessonTitles []string `json:"lesson_titles"`
}

type PresentationOutline struct {
	Title       string   `json:"title"`
	SlideTitles []string `json:"slide_titles"`
}

type lessonPayload struct {
	Body string                `json:"body"`
	Quiz []models.QuizQuestion `json:"quiz"`
}

type slidePayload struct {
	Bullets      []string `json:"bullets"`
	SpeakerNotes string   `json:"speaker_notes"`
}

// UnitGenerator produces outlines, lessons, and slides through a retrying
// generation client.
type UnitGenerator struct {
	Gen *genai.Retryer
	Log *slog.Logger
}

func NewUnitGenerator(gen *genai.Retryer, log *slog.Logger) *UnitGenerator {
	if log == nil {
		log = slog.Default()
	}
	return &UnitGenerator{Gen: gen, Log: log}
}

// CourseOutline asks for a full course skeleton. The result is normalized to
// exactly the requested chapter and lesson counts so the quoted price always
// matches the delivered shape.
func (g *UnitGenerator) CourseOutline(ctx context.Context, topic, difficulty string, chapters, lessonsPerChapter int, sourceText string) (*CourseOutline, error) {
	raw, err := g.Gen.Complete(ctx, courseOutlinePrompt(topic, difficulty, chapters, lessonsPerChapter, sourceText), "outline")
	if err != nil {
		return nil, err
	}

	out := parsing.Parse(raw, CourseOutline{})
	if out.Level == parsing.RepairFallback {
		return nil, ErrUnusableOutline
	}
	if out.Level != parsing.RepairNone {
		g.Log.Warn("outline needed repair", "level", out.Level.String())
	}

	outline := out.Value
	// Parsed but empty is not an outline. Normalization only fills gaps in a
	// minimally valid skeleton; it must not conjure a course out of nothing.
	if outline.Title == "" && len(outline.Chapters) == 0 {
		return nil, ErrUnusableOutline
	}
	if outline.Title == "" {
		outline.Title = topic
	}
	if outline.Difficulty == "" {
		outline.Difficulty = difficulty
	}
	normalizeChapters(&outline, chapters, lessonsPerChapter)
	return &outline, nil
}

// PresentationOutline asks for a slide-title skeleton, normalized to the
// requested slide count.
func (g *UnitGenerator) PresentationOutline(ctx context.Context, topic string, slides int, sourceText string) (*PresentationOutline, error) {
	raw, err := g.Gen.Complete(ctx, presentationOutlinePrompt(topic, slides, sourceText), "outline")
	if err != nil {
		return nil, err
	}

	out := parsing.Parse(raw, PresentationOutline{})
	if out.Level == parsing.RepairFallback {
		return nil, ErrUnusableOutline
	}
	if out.Level != parsing.RepairNone {
		g.Log.Warn("outline needed repair", "level", out.Level.String())
	}

	outline := out.Value
	if outline.Title == "" && len(outline.SlideTitles) == 0 {
		return nil, ErrUnusableOutline
	}
	if outline.Title == "" {
		outline.Title = topic
	}
	for len(outline.SlideTitles) < slides {
		outline.SlideTitles = append(outline.SlideTitles, fmt.Sprintf("Slide %d", len(outline.SlideTitles)+1))
	}
	outline.SlideTitles = outline.SlideTitles[:slides]
	return &outline, nil
}

// Lesson generates one lesson body with quiz. It never fails: exhausted
// retries or an unparseable response yield a degraded placeholder.
func (g *UnitGenerator) Lesson(ctx context.Context, courseTitle, chapterTitle, lessonTitle string) models.Lesson {
	raw, err := g.Gen.Complete(ctx, lessonPrompt(courseTitle, chapterTitle, lessonTitle), "lesson")
	if err != nil {
		return g.degradedLesson(lessonTitle, err)
	}

	out := parsing.Parse(raw, lessonPayload{})
	if out.Level == parsing.RepairFallback || out.Value.Body == "" {
		return g.degradedLesson(lessonTitle, errors.New("response unusable after repair"))
	}
	return models.Lesson{
		Title:  lessonTitle,
		Body:   out.Value.Body,
		Quiz:   out.Value.Quiz,
		Status: models.UnitStatusOK,
	}
}

// Slide generates one slide. Like Lesson it degrades instead of failing.
func (g *UnitGenerator) Slide(ctx context.Context, presentationTitle, slideTitle string) models.Slide {
	raw, err := g.Gen.Complete(ctx, slidePrompt(presentationTitle, slideTitle), "slide")
	if err != nil {
		return g.degradedSlide(slideTitle, err)
	}

	out := parsing.Parse(raw, slidePayload{})
	if out.Level == parsing.RepairFallback || len(out.Value.Bullets) == 0 {
		return g.degradedSlide(slideTitle, errors.New("response unusable after repair"))
	}
	return models.Slide{
		Title:        slideTitle,
		Bullets:      out.Value.Bullets,
		SpeakerNotes: out.Value.SpeakerNotes,
		Status:       models.UnitStatusOK,
	}
}

func (g *UnitGenerator) degradedLesson(title string, cause error) models.Lesson {
	g.Log.Warn("lesson degraded to placeholder", "title", title, "error", cause)
	observability.DegradedUnits.Inc()
	return models.Lesson{
		Title:  title,
		Body:   placeholderLessonBody,
		Quiz:   []models.QuizQuestion{},
		Status: models.UnitStatusDegraded,
	}
}

func (g *UnitGenerator) degradedSlide(title string, cause error) models.Slide {
	g.Log.Warn("slide degraded to placeholder", "title", title, "error", cause)
	observability.DegradedUnits.Inc()
	return models.Slide{
		Title:        title,
		Bullets:      []string{"Content unavailable"},
		SpeakerNotes: placeholderSlideNote,
		Status:       models.UnitStatusDegraded,
	}
}

func normalizeChapters(outline *CourseOutline, chapters, lessonsPerChapter int) {
	for len(outline.Chapters) < chapters {
		outline.Chapters = append(outline.Chapters, ChapterOutline{
			Title: fmt.Sprintf("Chapter %d", len(outline.Chapters)+1),
		})
	}
	outline.Chapters = outline.Chapters[:chapters]
	for i := range outline.Chapters {
		ch := &outline.Chapters[i]
		if ch.Title == "" {
			ch.Title = fmt.Sprintf("Chapter %d", i+1)
		}
		for len(ch.LessonTitles) < lessonsPerChapter {
			ch.LessonTitles = append(ch.LessonTitles, fmt.Sprintf("Lesson %d.%d", i+1, len(ch.LessonTitles)+1))
		}
		ch.LessonTitles = ch.LessonTitles[:lessonsPerChapter]
	}
}
