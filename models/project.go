package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectCategory is the fixed set of portfolio categories.
type ProjectCategory string

const (
	CategoryCorporate     ProjectCategory = "corporate"
	CategoryMotion        ProjectCategory = "motion"
	CategoryDocumentary   ProjectCategory = "documentary"
	CategorySocial        ProjectCategory = "social"
	CategoryAdvertisement ProjectCategory = "advertisement"
	CategoryBranding      ProjectCategory = "branding"
	CategoryOther         ProjectCategory = "other"
)

// ValidCategory reports whether c is one of the known categories. The empty
// category is allowed (uncategorized).
func ValidCategory(c ProjectCategory) bool {
	switch c {
	case "", CategoryCorporate, CategoryMotion, CategoryDocumentary,
		CategorySocial, CategoryAdvertisement, CategoryBranding, CategoryOther:
		return true
	}
	return false
}

// Project represents a portfolio project with its attached media
type Project struct {
	ID              uuid.UUID       `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	Title           string          `json:"title" db:"title" gorm:"type:text;not null"`
	Slug            string          `json:"slug" db:"slug" gorm:"type:text;not null;uniqueIndex:idx_project_slug"`
	Client          string          `json:"client,omitempty" db:"client" gorm:"type:text"`
	ProjectDate     *time.Time      `json:"projectDate,omitempty" db:"project_date" gorm:"type:date;index"`
	Location        string          `json:"location,omitempty" db:"location" gorm:"type:text"`
	Category        ProjectCategory `json:"category,omitempty" db:"category" gorm:"type:text;index"`
	CoverPath       *string         `json:"coverPath,omitempty" db:"cover_path" gorm:"type:text"`
	Description     string          `json:"description" db:"description" gorm:"type:text"`
	ExperienceNotes string          `json:"experienceNotes,omitempty" db:"experience_notes" gorm:"type:text"`
	Featured        bool            `json:"featured" db:"featured" gorm:"not null;default:false;index"`
	Created         time.Time       `json:"created" db:"created" gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP"`
	Media           []ProjectMedia  `json:"media,omitempty" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE"`
}
