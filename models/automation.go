package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Webhook auth schemes supported by an automation.
const (
	AuthTypeNone   = "none"
	AuthTypeBasic  = "basic"
	AuthTypeJWT    = "jwt"
	AuthTypeHeader = "header"
)

// Automation is a registered external webhook endpoint plus metadata:
// per-execution cost, auth scheme and the active flag that gates execution.
type Automation struct {
	Id          string `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`
	WebhookUrl  string `json:"webhook_url" gorm:"not null"`

	AuthType     string `json:"auth_type" gorm:"type:VARCHAR(20);default:none"`
	AuthUsername string `json:"-"`
	AuthPassword string `json:"-"`
	AuthToken    string `json:"-"`

	CreditsPerExecution int64 `json:"credits_per_execution" gorm:"not null;default:0"`
	IsActive            bool  `json:"is_active" gorm:"not null;default:false"`

	UserID    string    `json:"-" gorm:"index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (automation *Automation) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if automation.Id == "" {
		automation.Id = uuid.NewString()
	}
	return
}
