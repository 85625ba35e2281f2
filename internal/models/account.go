package models

import (
	"time"

	"github.com/google/uuid"
)

// StarterCredits is granted to every new account through a purchase-type
// ledger record, so balances always reconcile against the transaction log.
const StarterCredits = 10

type Account struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	PasswordHash     string    `json:"-"`
	CreditBalance    int       `json:"credit_balance"`
	SubscriptionTier string    `json:"subscription_tier"`
	MaxPerJob        *int      `json:"max_per_job,omitempty"`
	MaxPerDay        *int      `json:"max_per_day,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
