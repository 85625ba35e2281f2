package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courseloom/backend/internal/models"
)

// CreditRepo reads the credit transaction log. Writes go through the ledger
// package so every balance change and its record commit together.
type CreditRepo struct {
	pool *pgxpool.Pool
}

func NewCreditRepo(pool *pgxpool.Pool) *CreditRepo {
	return &CreditRepo{pool: pool}
}

func (r *CreditRepo) ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*models.CreditTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, job_id, tx_type, amount, balance_after, description, created_at
		FROM credit_transactions WHERE account_id = $1 ORDER BY created_at DESC
	`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.CreditTransaction
	for rows.Next() {
		var c models.CreditTransaction
		if err := rows.Scan(&c.ID, &c.AccountID, &c.JobID, &c.TxType, &c.Amount, &c.BalanceAfter, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	if list == nil {
		list = []*models.CreditTransaction{}
	}
	return list, rows.Err()
}

func (r *CreditRepo) ListByJobID(ctx context.Context, jobID uuid.UUID) ([]*models.CreditTransaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, job_id, tx_type, amount, balance_after, description, created_at
		FROM credit_transactions WHERE job_id = $1 ORDER BY created_at DESC
	`, jobID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.CreditTransaction
	for rows.Next() {
		var c models.CreditTransaction
		if err := rows.Scan(&c.ID, &c.AccountID, &c.JobID, &c.TxType, &c.Amount, &c.BalanceAfter, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &c)
	}
	return list, rows.Err()
}

// DailyConsumption returns the credits consumed by the account since
// midnight UTC, as a positive number.
func (r *CreditRepo) DailyConsumption(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(-SUM(amount), 0)
		FROM credit_transactions
		WHERE account_id = $1 AND tx_type = 'consumption' AND created_at >= $2
	`, accountID, since).Scan(&total)
	return total, err
}
