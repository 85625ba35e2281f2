package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courseloom/backend/internal/models"
)

var (
	errInsufficientFunds = errors.New("insufficient credits")
	errProfileNotFound   = errors.New("account not found")
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetBalance returns the current credit balance for the account.
func (r *Repository) GetBalance(ctx context.Context, accountID uuid.UUID) (int, error) {
	var balance int
	err := r.pool.QueryRow(ctx, `
		SELECT credit_balance FROM accounts WHERE id = $1
	`, accountID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, errProfileNotFound
	}
	return balance, err
}

// Debit subtracts amount from the account balance and appends a consumption
// transaction in one database transaction. The balance UPDATE is conditional
// on credit_balance >= amount, so concurrent debits can never drive a
// balance negative; the loser sees ErrInsufficientFunds.
func (r *Repository) Debit(ctx context.Context, accountID uuid.UUID, amount int, jobID uuid.UUID, description string) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var newBalance int
	err = tx.QueryRow(ctx, `
		UPDATE accounts SET credit_balance = credit_balance - $1, updated_at = now()
		WHERE id = $2 AND credit_balance >= $1
		RETURNING credit_balance
	`, amount, accountID).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		var exists bool
		if checkErr := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM accounts WHERE id = $1)
		`, accountID).Scan(&exists); checkErr != nil {
			return checkErr
		}
		if !exists {
			return errProfileNotFound
		}
		return errInsufficientFunds
	}
	if err != nil {
		return err
	}

	if err := insertTransaction(ctx, tx, &models.CreditTransaction{
		ID:           uuid.New(),
		AccountID:    accountID,
		JobID:        &jobID,
		TxType:       models.TxTypeConsumption,
		Amount:       -amount,
		BalanceAfter: &newBalance,
		Description:  description,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Refund credits amount back to the account with an adjustment transaction
// referencing the same job. It is the compensating half of Debit and shares
// its single-transaction shape.
func (r *Repository) Refund(ctx context.Context, accountID uuid.UUID, amount int, jobID uuid.UUID, description string) error {
	if amount <= 0 {
		return fmt.Errorf("refund amount must be positive, got %d", amount)
	}
	return r.credit(ctx, accountID, amount, &jobID, models.TxTypeAdjustment, description)
}

// Purchase adds bought (or granted) credits with a purchase transaction.
func (r *Repository) Purchase(ctx context.Context, accountID uuid.UUID, amount int, description string) error {
	if amount <= 0 {
		return fmt.Errorf("purchase amount must be positive, got %d", amount)
	}
	return r.credit(ctx, accountID, amount, nil, models.TxTypePurchase, description)
}

func (r *Repository) credit(ctx context.Context, accountID uuid.UUID, amount int, jobID *uuid.UUID, txType, description string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var newBalance int
	err = tx.QueryRow(ctx, `
		UPDATE accounts SET credit_balance = credit_balance + $1, updated_at = now()
		WHERE id = $2
		RETURNING credit_balance
	`, amount, accountID).Scan(&newBalance)
	if errors.Is(err, pgx.ErrNoRows) {
		return errProfileNotFound
	}
	if err != nil {
		return err
	}

	if err := insertTransaction(ctx, tx, &models.CreditTransaction{
		ID:           uuid.New(),
		AccountID:    accountID,
		JobID:        jobID,
		TxType:       txType,
		Amount:       amount,
		BalanceAfter: &newBalance,
		Description:  description,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertTransaction(ctx context.Context, tx pgx.Tx, t *models.CreditTransaction) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO credit_transactions (id, account_id, job_id, tx_type, amount, balance_after, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID, t.AccountID, t.JobID, t.TxType, t.Amount, t.BalanceAfter, t.Description)
	return err
}
