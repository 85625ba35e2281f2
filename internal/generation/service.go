// Package generation manages the async job path: enqueue a generation
// request, let a River worker run the saga, and expose job status.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/courseloom/backend/internal/artifact"
	"github.com/courseloom/backend/internal/execution"
	"github.com/courseloom/backend/internal/models"
	"github.com/courseloom/backend/internal/repository"
)

// ErrInvalidRequest wraps schema rejections so the handler can map them to 422.
var ErrInvalidRequest = errors.New("invalid generation request")

type Service interface {
	Enqueue(ctx context.Context, accountID uuid.UUID, kind string, request json.RawMessage) (*models.GenerationJob, error)
	Get(ctx context.Context, jobID uuid.UUID) (*models.GenerationJob, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.GenerationJob, error)
}

// EnqueueTxFunc inserts a River job within the given transaction. Provided
// by main using river.Client.InsertTx.
type EnqueueTxFunc func(ctx context.Context, tx pgx.Tx, args execution.GenerateArtifactArgs) error

type service struct {
	repo      *Repository
	artifacts *repository.ArtifactRepo
	validator *artifact.Validator
	enqueue   EnqueueTxFunc
	log       *slog.Logger
}

// NewService creates a generation service. enqueue is typically a closure
// over river.Client.InsertTx. Returns *service so it can also be used as
// execution.JobService for the River worker.
func NewService(repo *Repository, artifacts *repository.ArtifactRepo, validator *artifact.Validator, enqueue EnqueueTxFunc, log *slog.Logger) *service {
	if log == nil {
		log = slog.Default()
	}
	return &service{repo: repo, artifacts: artifacts, validator: validator, enqueue: enqueue, log: log}
}

var _ Service = (*service)(nil)
var _ execution.JobService = (*service)(nil)

// Enqueue validates the request, records the job, and inserts the River job
// in the same transaction: a queued job row always has a queue entry.
func (s *service) Enqueue(ctx context.Context, accountID uuid.UUID, kind string, request json.RawMessage) (*models.GenerationJob, error) {
	if err := s.validator.ValidateRequest(kind, request); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	job, err := s.repo.CreateTx(ctx, tx, accountID, kind, request)
	if err != nil {
		return nil, err
	}
	if err := s.enqueue(ctx, tx, execution.GenerateArtifactArgs{
		JobID:        job.ID,
		AccountID:    accountID,
		ArtifactKind: kind,
		Request:      request,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *service) Get(ctx context.Context, jobID uuid.UUID) (*models.GenerationJob, error) {
	return s.repo.GetByID(ctx, jobID)
}

func (s *service) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.GenerationJob, error) {
	return s.repo.ListByAccount(ctx, accountID)
}

// MarkJobRunning implements execution.JobService.
func (s *service) MarkJobRunning(ctx context.Context, jobID uuid.UUID) error {
	return s.repo.MarkRunning(ctx, jobID)
}

// CompleteJob implements execution.JobService. Persists the artifact and
// marks the job completed. Artifact validation is a soft flag here too.
func (s *service) CompleteJob(ctx context.Context, jobID, accountID, artifactID uuid.UUID, kind string, payload json.RawMessage, cost, degraded int) error {
	if valErr := s.validator.ValidateArtifact(kind, payload); valErr != nil {
		s.log.Warn("artifact validation failed (soft flag)", "job_id", jobID, "kind", kind, "error", valErr)
	}
	a := &models.Artifact{
		ID:            artifactID,
		AccountID:     accountID,
		Kind:          kind,
		Payload:       payload,
		CostCharged:   cost,
		DegradedUnits: degraded,
	}
	if err := s.artifacts.Create(ctx, a); err != nil {
		return err
	}
	return s.repo.MarkCompleted(ctx, jobID, artifactID)
}

// FailJob implements execution.JobService.
func (s *service) FailJob(ctx context.Context, jobID uuid.UUID, reason string) error {
	return s.repo.MarkFailed(ctx, jobID, reason)
}
