// Package saga coordinates credit-metered generation jobs.
//
// A job moves through priced, charged, outlining, assembling, done. Credits
// are debited up front, before any generation work. If the outline cannot be
// produced the whole charge is refunded; once assembly starts the charge is
// final and individual unit failures degrade to placeholders instead of
// aborting the job.
package saga

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/courseloom/backend/internal/generator"
	"github.com/courseloom/backend/internal/images"
	"github.com/courseloom/backend/internal/ledger"
	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/observability"
	"github.com/courseloom/backend/internal/pricing"
)

// unitThrottle spaces unit generation calls to stay under upstream rate
// limits.
const unitThrottle = 1500 * time.Millisecond

// ErrChargeFailed means the debit failed for a reason other than an
// insufficient balance. No generation work was attempted.
var ErrChargeFailed = errors.New("charge failed")

// InsufficientCreditsError is returned before any debit when the balance
// cannot cover the quoted cost.
type InsufficientCreditsError struct {
	Required  int
	Available int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: need %d, have %d", e.Required, e.Available)
}

// OutlineFailedError means generation aborted before assembly. Refunded
// reports whether the compensating refund committed; when false the charge
// stands and needs manual adjustment.
type OutlineFailedError struct {
	Refunded bool
	Err      error
}

func (e *OutlineFailedError) Error() string {
	return fmt.Sprintf("outline failed (refunded=%t): %v", e.Refunded, e.Err)
}

func (e *OutlineFailedError) Unwrap() error { return e.Err }

// UnitSource is the slice of the generator the coordinator consumes.
type UnitSource interface {
	CourseOutline(ctx context.Context, topic, difficulty string, chapters, lessonsPerChapter int, sourceText string) (*generator.CourseOutline, error)
	PresentationOutline(ctx context.Context, topic string, slides int, sourceText string) (*generator.PresentationOutline, error)
	Lesson(ctx context.Context, courseTitle, chapterTitle, lessonTitle string) models.Lesson
	Slide(ctx context.Context, presentationTitle, slideTitle string) models.Slide
}

var _ UnitSource = (*generator.UnitGenerator)(nil)

type CourseRequest struct {
	AccountID         uuid.UUID
	Topic             string
	Difficulty        string
	Chapters          int
	LessonsPerChapter int
	IncludeImages     bool
	SourceText        string
}

type PresentationRequest struct {
	AccountID     uuid.UUID
	Topic         string
	Slides        int
	IncludeImages bool
	SourceText    string
}

type CourseResult struct {
	Course        models.Course
	CostCharged   int
	DegradedUnits int
	Warnings      []string
}

type PresentationResult struct {
	Presentation  models.Presentation
	CostCharged   int
	DegradedUnits int
	Warnings      []string
}

// Coordinator runs the charge-generate-compensate flow. Images is optional;
// without it image requests are skipped with a warning. Sleep is injectable
// so tests can fake the unit throttle.
type Coordinator struct {
	Ledger ledger.Service
	Units  UnitSource
	Images images.Searcher
	Sleep  func(time.Duration)
	Log    *slog.Logger
}

func NewCoordinator(l ledger.Service, units UnitSource, imgs images.Searcher, log *slog.Logger) *Coordinator {
	if log == nil {
		log = slog.Default()
	}
	return &Coordinator{
		Ledger: l,
		Units:  units,
		Images: imgs,
		Sleep:  time.Sleep,
		Log:    log,
	}
}

// GenerateCourse runs one course job end to end and returns the assembled
// course with its billing outcome.
func (c *Coordinator) GenerateCourse(ctx context.Context, req CourseRequest) (*CourseResult, error) {
	cost := pricing.CourseCost(req.Chapters, req.LessonsPerChapter, req.IncludeImages)
	jobID := uuid.New()
	log := c.Log.With("job_id", jobID, "account_id", req.AccountID, "kind", models.ArtifactCourse)

	if err := c.charge(ctx, req.AccountID, cost, jobID, "course generation: "+req.Topic, models.ArtifactCourse, log); err != nil {
		return nil, err
	}

	outline, err := c.Units.CourseOutline(ctx, req.Topic, req.Difficulty, req.Chapters, req.LessonsPerChapter, req.SourceText)
	if err != nil {
		return nil, c.abortAndRefund(ctx, req.AccountID, cost, jobID, models.ArtifactCourse, err, log)
	}
	log.Info("outline ready", "title", outline.Title, "chapters", len(outline.Chapters))

	course := models.Course{
		ID:          jobID,
		Title:       outline.Title,
		Description: outline.Description,
		Difficulty:  outline.Difficulty,
	}
	degraded := 0
	var warnings []string
	first := true
	for _, ch := range outline.Chapters {
		chapter := models.Chapter{Title: ch.Title}
		for _, title := range ch.LessonTitles {
			if !first {
				c.throttle()
			}
			first = false

			lesson := c.Units.Lesson(ctx, outline.Title, ch.Title, title)
			if lesson.Status == models.UnitStatusDegraded {
				degraded++
				warnings = append(warnings, fmt.Sprintf("lesson %q could not be generated", title))
			} else if req.IncludeImages {
				lesson.ImageURL, warnings = c.findImage(ctx, outline.Title+" "+title, warnings)
			}
			chapter.Lessons = append(chapter.Lessons, lesson)
		}
		course.Chapters = append(course.Chapters, chapter)
	}

	observability.SagaJobs.WithLabelValues(models.ArtifactCourse, "done").Inc()
	log.Info("course assembled", "cost", cost, "degraded_units", degraded)
	return &CourseResult{
		Course:        course,
		CostCharged:   cost,
		DegradedUnits: degraded,
		Warnings:      warnings,
	}, nil
}

// GeneratePresentation runs one presentation job end to end.
func (c *Coordinator) GeneratePresentation(ctx context.Context, req PresentationRequest) (*PresentationResult, error) {
	cost := pricing.PresentationCost(req.Slides, req.IncludeImages)
	jobID := uuid.New()
	log := c.Log.With("job_id", jobID, "account_id", req.AccountID, "kind", models.ArtifactPresentation)

	if err := c.charge(ctx, req.AccountID, cost, jobID, "presentation generation: "+req.Topic, models.ArtifactPresentation, log); err != nil {
		return nil, err
	}

	outline, err := c.Units.PresentationOutline(ctx, req.Topic, req.Slides, req.SourceText)
	if err != nil {
		return nil, c.abortAndRefund(ctx, req.AccountID, cost, jobID, models.ArtifactPresentation, err, log)
	}
	log.Info("outline ready", "title", outline.Title, "slides", len(outline.SlideTitles))

	pres := models.Presentation{ID: jobID, Title: outline.Title}
	degraded := 0
	var warnings []string
	for i, title := range outline.SlideTitles {
		if i > 0 {
			c.throttle()
		}
		slide := c.Units.Slide(ctx, outline.Title, title)
		if slide.Status == models.UnitStatusDegraded {
			degraded++
			warnings = append(warnings, fmt.Sprintf("slide %q could not be generated", title))
		} else if req.IncludeImages {
			slide.ImageURL, warnings = c.findImage(ctx, outline.Title+" "+title, warnings)
		}
		pres.Slides = append(pres.Slides, slide)
	}

	observability.SagaJobs.WithLabelValues(models.ArtifactPresentation, "done").Inc()
	log.Info("presentation assembled", "cost", cost, "degraded_units", degraded)
	return &PresentationResult{
		Presentation:  pres,
		CostCharged:   cost,
		DegradedUnits: degraded,
		Warnings:      warnings,
	}, nil
}

// charge verifies the balance and debits the quoted cost. Nothing has been
// generated yet, so every failure here leaves the ledger untouched apart
// from a committed debit that the caller will go on to spend.
func (c *Coordinator) charge(ctx context.Context, accountID uuid.UUID, cost int, jobID uuid.UUID, description, kind string, log *slog.Logger) error {
	balance, err := c.Ledger.GetBalance(ctx, accountID)
	if err != nil {
		observability.SagaJobs.WithLabelValues(kind, "charge_failed").Inc()
		return fmt.Errorf("%w: %v", ErrChargeFailed, err)
	}
	if balance < cost {
		observability.SagaJobs.WithLabelValues(kind, "insufficient_credits").Inc()
		return &InsufficientCreditsError{Required: cost, Available: balance}
	}

	if err := c.Ledger.Debit(ctx, accountID, cost, jobID, description); err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			// Lost a race with a concurrent debit.
			observability.SagaJobs.WithLabelValues(kind, "insufficient_credits").Inc()
			return &InsufficientCreditsError{Required: cost, Available: balance}
		}
		observability.SagaJobs.WithLabelValues(kind, "charge_failed").Inc()
		return fmt.Errorf("%w: %v", ErrChargeFailed, err)
	}
	log.Info("credits charged", "cost", cost, "balance_before", balance)
	return nil
}

// abortAndRefund compensates a charged job whose outline never materialized.
// A refund that itself fails is reported, not retried here: the returned
// error carries Refunded=false so the caller can surface the stuck charge.
func (c *Coordinator) abortAndRefund(ctx context.Context, accountID uuid.UUID, cost int, jobID uuid.UUID, kind string, cause error, log *slog.Logger) error {
	refundErr := c.Ledger.Refund(ctx, accountID, cost, jobID, "refund: outline generation failed")
	if refundErr != nil {
		log.Error("refund failed after outline failure", "cost", cost, "error", refundErr, "cause", cause)
	} else {
		observability.Refunds.Inc()
		log.Info("charge refunded after outline failure", "cost", cost, "cause", cause)
	}
	observability.SagaJobs.WithLabelValues(kind, "aborted_refunded").Inc()
	return &OutlineFailedError{Refunded: refundErr == nil, Err: cause}
}

func (c *Coordinator) throttle() {
	if c.Sleep != nil {
		c.Sleep(unitThrottle)
	} else {
		time.Sleep(unitThrottle)
	}
}

func (c *Coordinator) findImage(ctx context.Context, query string, warnings []string) (string, []string) {
	if c.Images == nil {
		return "", append(warnings, "image search not configured")
	}
	url, err := c.Images.Search(ctx, query)
	if err != nil {
		c.Log.Warn("image search failed", "query", query, "error", err)
		return "", append(warnings, fmt.Sprintf("no image for %q", query))
	}
	return url, warnings
}
