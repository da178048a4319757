package models

import "github.com/google/uuid"

// Service is an entry on the public services listing, ordered ascending.
type Service struct {
	ID      uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Title   string    `json:"title" db:"title" gorm:"type:text;not null"`
	Summary string    `json:"summary,omitempty" db:"summary" gorm:"type:text"`
	Order   int       `json:"order" db:"display_order" gorm:"column:display_order;not null;default:0;index"`
}
