package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is an agency customer consuming automations. CreditBalance is a
// read cache over the client_credits fold; it is written exclusively by
// ledger.ClientAccount.Reconcile, never patched by handlers.
type Client struct {
	Id          string `json:"id" gorm:"primaryKey"`
	CompanyName string `json:"company_name" gorm:"not null"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email" gorm:"not null"`
	Phone       string `json:"phone"`
	Notes       string `json:"notes"`

	CreditBalance int64 `json:"credit_balance" gorm:"not null;default:0"`

	UserID    string    `json:"-" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (client *Client) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if client.Id == "" {
		client.Id = uuid.NewString()
	}
	return
}
