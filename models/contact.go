package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContactSubmission is one message from the public contact form.
type ContactSubmission struct {
	Id      string `json:"id" gorm:"primaryKey"`
	Name    string `json:"name" gorm:"not null"`
	Email   string `json:"email" gorm:"not null"`
	Company string `json:"company"`
	Message string `json:"message" gorm:"type:text;not null"`
	Source  string `json:"source"` // which page/form sent it

	Handled   bool      `json:"handled" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}

func (submission *ContactSubmission) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if submission.Id == "" {
		submission.Id = uuid.NewString()
	}
	return
}
