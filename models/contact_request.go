package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactRequest is a message submitted through the public contact form.
// Created unauthenticated; only staff may mark it handled or delete it.
type ContactRequest struct {
	ID      uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Name    string    `json:"name" db:"name" gorm:"type:text;not null"`
	Email   string    `json:"email" db:"email" gorm:"type:text;not null"`
	Subject string    `json:"subject,omitempty" db:"subject" gorm:"type:text"`
	Message string    `json:"message" db:"message" gorm:"type:text;not null"`
	Handled bool      `json:"handled" db:"handled" gorm:"not null;default:false;index"`
	Created time.Time `json:"created" db:"created" gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP"`
}
