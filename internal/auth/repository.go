package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courseloom/backend/internal/models"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new account with its starter-credit grant. The account
// row and the purchase transaction commit together so the balance always
// reconciles against the transaction log.
func (r *Repository) Create(ctx context.Context, email, passwordHash, name string) (*models.Account, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	a := models.Account{
		Email:            email,
		Name:             name,
		PasswordHash:     passwordHash,
		CreditBalance:    models.StarterCredits,
		SubscriptionTier: "free",
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO accounts (email, password_hash, name, credit_balance, subscription_tier)
		VALUES ($1, $2, $3, $4, 'free')
		RETURNING id, created_at, updated_at
	`, email, passwordHash, name, models.StarterCredits).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	balance := models.StarterCredits
	_, err = tx.Exec(ctx, `
		INSERT INTO credit_transactions (id, account_id, tx_type, amount, balance_after, description)
		VALUES ($1, $2, $3, $4, $5, 'starter credits')
	`, uuid.New(), a.ID, models.TxTypePurchase, models.StarterCredits, balance)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByEmail returns the account for login, or nil if not found.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	var a models.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, credit_balance, subscription_tier, max_per_job, max_per_day, created_at, updated_at
		FROM accounts WHERE email = $1
	`, email).Scan(&a.ID, &a.Email, &a.Name, &a.PasswordHash, &a.CreditBalance, &a.SubscriptionTier, &a.MaxPerJob, &a.MaxPerDay, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if err.Error() == "no rows in result set" {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
