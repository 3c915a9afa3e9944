package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Execution statuses. Every invocation starts as running and is finalized
// exactly once to success or failed; terminal rows are never re-opened.
const (
	ExecutionStatusRunning = "running"
	ExecutionStatusSuccess = "success"
	ExecutionStatusFailed  = "failed"
)

// Execution is the immutable record of one webhook invocation attempt.
type Execution struct {
	Id           string `json:"id" gorm:"primaryKey"`
	AutomationID string `json:"automation_id" gorm:"index;not null"`
	UserID       string `json:"-" gorm:"index;not null"`

	// ExternalExecutionID correlates the row with the outbound call; it is
	// generated locally, the callee is not assumed to return its own id.
	ExternalExecutionID string `json:"external_execution_id" gorm:"index"`

	Status      string         `json:"status" gorm:"type:VARCHAR(20);not null;default:running"`
	CreditsUsed int64          `json:"credits_used" gorm:"not null;default:0"`
	Result      datatypes.JSON `json:"result,omitempty" gorm:"type:jsonb"`
	Error       string         `json:"error,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (execution *Execution) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if execution.Id == "" {
		execution.Id = uuid.NewString()
	}
	return
}

// ClientExecution mirrors an Execution for a client-scoped run so the
// client portal can list its own history without seeing other tenants.
type ClientExecution struct {
	Id           string `json:"id" gorm:"primaryKey"`
	ClientID     string `json:"client_id" gorm:"index;not null"`
	AutomationID string `json:"automation_id" gorm:"index;not null"`

	ExternalExecutionID string `json:"external_execution_id" gorm:"index"`

	Status      string         `json:"status" gorm:"type:VARCHAR(20);not null;default:running"`
	CreditsUsed int64          `json:"credits_used" gorm:"not null;default:0"`
	Result      datatypes.JSON `json:"result,omitempty" gorm:"type:jsonb"`
	Error       string         `json:"error,omitempty"`

	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (execution *ClientExecution) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if execution.Id == "" {
		execution.Id = uuid.NewString()
	}
	return
}
