// Package execution runs queued generation jobs on River workers.
package execution

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/saga"
)

type GenerateArtifactArgs struct {
	JobID        uuid.UUID       `json:"job_id"`
	AccountID    uuid.UUID       `json:"account_id"`
	ArtifactKind string          `json:"artifact_kind"`
	Request      json.RawMessage `json:"request"`
}

func (GenerateArtifactArgs) Kind() string { return "generate_artifact" }

// JobService defines the contract the worker needs to report progress and
// outcomes.
type JobService interface {
	MarkJobRunning(ctx context.Context, jobID uuid.UUID) error
	CompleteJob(ctx context.Context, jobID, accountID, artifactID uuid.UUID, kind string, payload json.RawMessage, cost, degraded int) error
	FailJob(ctx context.Context, jobID uuid.UUID, reason string) error
}

// SagaRunner is the slice of the saga coordinator the worker consumes.
type SagaRunner interface {
	GenerateCourse(ctx context.Context, req saga.CourseRequest) (*saga.CourseResult, error)
	GeneratePresentation(ctx context.Context, req saga.PresentationRequest) (*saga.PresentationResult, error)
}

type jobRequest struct {
	Topic             string `json:"topic"`
	Difficulty        string `json:"difficulty"`
	Chapters          int    `json:"chapters"`
	LessonsPerChapter int    `json:"lessons_per_chapter"`
	Slides            int    `json:"slides"`
	IncludeImages     bool   `json:"include_images"`
	SourceText        string `json:"source_text"`
}

type GenerateArtifactWorker struct {
	river.WorkerDefaults[GenerateArtifactArgs]
	jobService JobService
	saga       SagaRunner
	log        *slog.Logger
}

func NewGenerateArtifactWorker(js JobService, runner SagaRunner, log *slog.Logger) *GenerateArtifactWorker {
	if log == nil {
		log = slog.Default()
	}
	return &GenerateArtifactWorker{jobService: js, saga: runner, log: log}
}

func (w *GenerateArtifactWorker) Work(ctx context.Context, job *river.Job[GenerateArtifactArgs]) error {
	args := job.Args

	if err := w.jobService.MarkJobRunning(ctx, args.JobID); err != nil {
		return fmt.Errorf("mark job running: %w", err)
	}

	var req jobRequest
	if err := json.Unmarshal(args.Request, &req); err != nil {
		return w.failJob(ctx, args.JobID, fmt.Sprintf("invalid stored request: %v", err))
	}
	if req.Difficulty == "" {
		req.Difficulty = "beginner"
	}

	var (
		artifactID uuid.UUID
		payload    json.RawMessage
		cost       int
		degraded   int
		sagaErr    error
	)
	switch args.ArtifactKind {
	case models.ArtifactCourse:
		var result *saga.CourseResult
		result, sagaErr = w.saga.GenerateCourse(ctx, saga.CourseRequest{
			AccountID:         args.AccountID,
			Topic:             req.Topic,
			Difficulty:        req.Difficulty,
			Chapters:          req.Chapters,
			LessonsPerChapter: req.LessonsPerChapter,
			IncludeImages:     req.IncludeImages,
			SourceText:        req.SourceText,
		})
		if sagaErr == nil {
			artifactID = result.Course.ID
			cost, degraded = result.CostCharged, result.DegradedUnits
			payload, sagaErr = json.Marshal(result.Course)
		}
	case models.ArtifactPresentation:
		var result *saga.PresentationResult
		result, sagaErr = w.saga.GeneratePresentation(ctx, saga.PresentationRequest{
			AccountID:     args.AccountID,
			Topic:         req.Topic,
			Slides:        req.Slides,
			IncludeImages: req.IncludeImages,
			SourceText:    req.SourceText,
		})
		if sagaErr == nil {
			artifactID = result.Presentation.ID
			cost, degraded = result.CostCharged, result.DegradedUnits
			payload, sagaErr = json.Marshal(result.Presentation)
		}
	default:
		return w.failJob(ctx, args.JobID, fmt.Sprintf("unknown artifact kind %q", args.ArtifactKind))
	}

	if sagaErr != nil {
		// The charge never committed, so a River retry is safe and free.
		if errors.Is(sagaErr, saga.ErrChargeFailed) {
			return fmt.Errorf("charge failed, retrying: %w", sagaErr)
		}
		return w.failJob(ctx, args.JobID, sagaErr.Error())
	}

	if err := w.jobService.CompleteJob(ctx, args.JobID, args.AccountID, artifactID, args.ArtifactKind, payload, cost, degraded); err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

// failJob records a terminal failure. The saga has already settled the
// ledger (refund or kept charge), so the job must not be retried.
func (w *GenerateArtifactWorker) failJob(ctx context.Context, jobID uuid.UUID, reason string) error {
	if markErr := w.jobService.FailJob(ctx, jobID, reason); markErr != nil {
		return fmt.Errorf("job failed (%s) AND failed to mark job as failed: %w", reason, markErr)
	}
	w.log.Warn("generation job failed", "job_id", jobID, "reason", reason)
	return nil
}
