package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ClientAutomation binds a client to an automation. CreditsPerExecution is
// copied from the automation at assignment time and may diverge afterwards.
// At most one row may exist per (client, automation) pair.
type ClientAutomation struct {
	Id           string `json:"id" gorm:"primaryKey"`
	ClientID     string `json:"client_id" gorm:"not null;index:idx_client_automations_pair,unique,priority:1"`
	AutomationID string `json:"automation_id" gorm:"not null;index:idx_client_automations_pair,unique,priority:2"`

	IsActive            bool  `json:"is_active" gorm:"not null;default:false"`
	CreditsPerExecution int64 `json:"credits_per_execution" gorm:"not null;default:0"`

	AssignedAt time.Time `json:"assigned_at"`
	AssignedBy string    `json:"assigned_by"`
}

func (assignment *ClientAutomation) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if assignment.Id == "" {
		assignment.Id = uuid.NewString()
	}
	if assignment.AssignedAt.IsZero() {
		assignment.AssignedAt = time.Now().UTC()
	}
	return
}
