package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courseloom/backend/internal/models"
)

type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func (r *AccountRepo) Create(ctx context.Context, a *models.Account) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, email, name, password_hash, credit_balance, subscription_tier, max_per_job, max_per_day)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`, a.ID, a.Email, a.Name, a.PasswordHash, a.CreditBalance, a.SubscriptionTier, a.MaxPerJob, a.MaxPerDay).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *AccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var a models.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, credit_balance, subscription_tier, max_per_job, max_per_day, created_at, updated_at
		FROM accounts WHERE id = $1
	`, id).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreditBalance, &a.SubscriptionTier, &a.MaxPerJob, &a.MaxPerDay, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, credit_balance, subscription_tier, max_per_job, max_per_day, created_at, updated_at
		FROM accounts WHERE email = $1
	`, email).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreditBalance, &a.SubscriptionTier, &a.MaxPerJob, &a.MaxPerDay, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateLimits sets the per-job and per-day spending caps.
func (r *AccountRepo) UpdateLimits(ctx context.Context, id uuid.UUID, maxPerJob, maxPerDay *int) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE accounts SET max_per_job = $2, max_per_day = $3, updated_at = now() WHERE id = $1
	`, id, maxPerJob, maxPerDay)
	return err
}
