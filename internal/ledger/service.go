package ledger

import (
	"context"

	"github.com/google/uuid"
)

// Service is the ledger gateway the generation saga consumes. Debit and
// Refund are independently retryable compensating actions: each commits a
// balance change and its transaction record atomically, or neither.
type Service interface {
	GetBalance(ctx context.Context, accountID uuid.UUID) (int, error)
	Debit(ctx context.Context, accountID uuid.UUID, amount int, jobID uuid.UUID, description string) error
	Refund(ctx context.Context, accountID uuid.UUID, amount int, jobID uuid.UUID, description string) error
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) Service {
	return &service{repo: repo}
}

var _ Service = (*service)(nil)

func (s *service) GetBalance(ctx context.Context, accountID uuid.UUID) (int, error) {
	return s.repo.GetBalance(ctx, accountID)
}

func (s *service) Debit(ctx context.Context, accountID uuid.UUID, amount int, jobID uuid.UUID, description string) error {
	return s.repo.Debit(ctx, accountID, amount, jobID, description)
}

func (s *service) Refund(ctx context.Context, accountID uuid.UUID, amount int, jobID uuid.UUID, description string) error {
	return s.repo.Refund(ctx, accountID, amount, jobID, description)
}

// ErrInsufficientFunds is returned when the balance is too low for a debit.
var ErrInsufficientFunds = errInsufficientFunds

// ErrProfileNotFound is returned when no account row exists.
var ErrProfileNotFound = errProfileNotFound
