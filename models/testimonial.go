package models

import (
	"time"

	"github.com/google/uuid"
)

// Testimonial is a client quote shown on the public site while visible.
type Testimonial struct {
	ID       uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Author   string    `json:"author" db:"author" gorm:"type:text;not null"`
	Position string    `json:"position,omitempty" db:"position" gorm:"type:text"`
	Text     string    `json:"text" db:"text" gorm:"type:text;not null"`
	Visible  bool      `json:"visible" db:"visible" gorm:"not null;default:true;index"`
	Created  time.Time `json:"created" db:"created" gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP"`
}
