package models

import (
	"time"

	"github.com/google/uuid"
)

// Credit transaction types. Consumption amounts are negative; purchase and
// adjustment amounts are positive. Rows are append-only.
const (
	TxTypePurchase    = "purchase"
	TxTypeConsumption = "consumption"
	TxTypeAdjustment  = "adjustment"
)

type CreditTransaction struct {
	ID           uuid.UUID  `json:"id"`
	AccountID    uuid.UUID  `json:"account_id"`
	JobID        *uuid.UUID `json:"job_id,omitempty"`
	TxType       string     `json:"tx_type"`
	Amount       int        `json:"amount"`
	BalanceAfter *int       `json:"balance_after,omitempty"`
	Description  string     `json:"description"`
	CreatedAt    time.Time  `json:"created_at"`
}
