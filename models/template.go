package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Template is a shop item: a prebuilt workflow sold on the public site.
// Only published templates are visible without authentication.
type Template struct {
	Id          string `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"not null"`
	Slug        string `json:"slug" gorm:"unique;not null"`
	Description string `json:"description"`
	Category    string `json:"category" gorm:"index"`

	PriceCents   int64          `json:"price_cents" gorm:"not null;default:0"`
	PreviewUrl   string         `json:"preview_url"`
	WorkflowJSON datatypes.JSON `json:"workflow_json,omitempty" gorm:"type:jsonb"`

	Published bool      `json:"published" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (template *Template) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if template.Id == "" {
		template.Id = uuid.NewString()
	}
	return
}
