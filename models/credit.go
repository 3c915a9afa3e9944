package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger transaction types. Amounts are signed: purchases and refunds are
// positive, usage is negative, adjustments may be either.
const (
	TxTypePurchase   = "purchase"
	TxTypeUsage      = "usage"
	TxTypeRefund     = "refund"
	TxTypeAdjustment = "adjustment"
)

// Credit is one ledger entry against a user's balance. The balance itself
// is never stored for users; it is the sum of all entries.
type Credit struct {
	Id     string `json:"id" gorm:"primaryKey"`
	UserID string `json:"-" gorm:"index;not null"`

	Amount          int64  `json:"amount" gorm:"not null"`
	TransactionType string `json:"transaction_type" gorm:"type:VARCHAR(20);not null"`

	AutomationID string `json:"automation_id,omitempty"`
	ExecutionID  string `json:"execution_id,omitempty"`
	Notes        string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (credit *Credit) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if credit.Id == "" {
		credit.Id = uuid.NewString()
	}
	return
}

// ClientCredit is one ledger entry against a client's balance.
type ClientCredit struct {
	Id       string `json:"id" gorm:"primaryKey"`
	ClientID string `json:"client_id" gorm:"index;not null"`

	Amount          int64  `json:"amount" gorm:"not null"`
	TransactionType string `json:"transaction_type" gorm:"type:VARCHAR(20);not null"`

	AutomationID string `json:"automation_id,omitempty"`
	ExecutionID  string `json:"execution_id,omitempty"`
	Notes        string `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (credit *ClientCredit) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if credit.Id == "" {
		credit.Id = uuid.NewString()
	}
	return
}
