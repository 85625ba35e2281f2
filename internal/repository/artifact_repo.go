package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courseloom/backend/internal/models"
)

type ArtifactRepo struct {
	pool *pgxpool.Pool
}

func NewArtifactRepo(pool *pgxpool.Pool) *ArtifactRepo {
	return &ArtifactRepo{pool: pool}
}

func (r *ArtifactRepo) Create(ctx context.Context, a *models.Artifact) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO artifacts (id, account_id, kind, payload, cost_charged, degraded_units)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, a.ID, a.AccountID, a.Kind, a.Payload, a.CostCharged, a.DegradedUnits).Scan(&a.CreatedAt)
}

func (r *ArtifactRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Artifact, error) {
	var a models.Artifact
	err := r.pool.QueryRow(ctx, `
		SELECT id, account_id, kind, payload, cost_charged, degraded_units, created_at
		FROM artifacts WHERE id = $1
	`, id).Scan(&a.ID, &a.AccountID, &a.Kind, &a.Payload, &a.CostCharged, &a.DegradedUnits, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *ArtifactRepo) ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.Artifact, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, kind, payload, cost_charged, degraded_units, created_at
		FROM artifacts WHERE account_id = $1 ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.Artifact
	for rows.Next() {
		var a models.Artifact
		if err := rows.Scan(&a.ID, &a.AccountID, &a.Kind, &a.Payload, &a.CostCharged, &a.DegradedUnits, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &a)
	}
	if list == nil {
		list = []*models.Artifact{}
	}
	return list, rows.Err()
}
