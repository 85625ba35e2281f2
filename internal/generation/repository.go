package generation

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courseloom/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *Repository) CreateTx(ctx context.Context, tx pgx.Tx, accountID uuid.UUID, kind string, request json.RawMessage) (*models.GenerationJob, error) {
	var j models.GenerationJob
	row := tx.QueryRow(ctx, `
		INSERT INTO generation_jobs (account_id, kind, status, request)
		VALUES ($1, $2, 'queued', $3)
		RETURNING id, account_id, kind, status, request, artifact_id, error, created_at, updated_at
	`, accountID, kind, request)
	var errMsg *string
	err := row.Scan(&j.ID, &j.AccountID, &j.Kind, &j.Status, &j.Request, &j.ArtifactID, &errMsg, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if errMsg != nil {
		j.Error = *errMsg
	}
	return &j, nil
}

func (r *Repository) GetByID(ctx context.Context, jobID uuid.UUID) (*models.GenerationJob, error) {
	var j models.GenerationJob
	var errMsg *string
	row := r.pool.QueryRow(ctx, `
		SELECT id, account_id, kind, status, request, artifact_id, error, created_at, updated_at
		FROM generation_jobs WHERE id = $1
	`, jobID)
	err := row.Scan(&j.ID, &j.AccountID, &j.Kind, &j.Status, &j.Request, &j.ArtifactID, &errMsg, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if errMsg != nil {
		j.Error = *errMsg
	}
	return &j, nil
}

func (r *Repository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*models.GenerationJob, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, kind, status, request, artifact_id, error, created_at, updated_at
		FROM generation_jobs WHERE account_id = $1 ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.GenerationJob
	for rows.Next() {
		var j models.GenerationJob
		var errMsg *string
		if err := rows.Scan(&j.ID, &j.AccountID, &j.Kind, &j.Status, &j.Request, &j.ArtifactID, &errMsg, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		if errMsg != nil {
			j.Error = *errMsg
		}
		list = append(list, &j)
	}
	return list, rows.Err()
}

func (r *Repository) MarkRunning(ctx context.Context, jobID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE generation_jobs SET status = 'running', updated_at = now() WHERE id = $1
	`, jobID)
	return err
}

func (r *Repository) MarkCompleted(ctx context.Context, jobID, artifactID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE generation_jobs SET status = 'completed', artifact_id = $1, updated_at = now() WHERE id = $2
	`, artifactID, jobID)
	return err
}

func (r *Repository) MarkFailed(ctx context.Context, jobID uuid.UUID, reason string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE generation_jobs SET status = 'failed', error = $1, updated_at = now() WHERE id = $2
	`, reason, jobID)
	return err
}
