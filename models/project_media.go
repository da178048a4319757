package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaType classifies an attached file by what it carries.
type MediaType string

const (
	MediaImage    MediaType = "image"
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaDocument MediaType = "document"
	MediaOther    MediaType = "other"
)

// ProjectMedia represents a single file attached to a project. Display order
// is ascending `order`, ties broken by creation time.
type ProjectMedia struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ProjectID uuid.UUID `json:"project_id" db:"project_id" gorm:"type:uuid;not null;index:idx_project_media_project_id;constraint:OnDelete:CASCADE"`
	FilePath  string    `json:"filePath" db:"file_path" gorm:"type:text;not null"`
	MediaType MediaType `json:"mediaType" db:"media_type" gorm:"type:text;not null;index"`
	Caption   string    `json:"caption,omitempty" db:"caption" gorm:"type:text"`
	Order     int       `json:"order" db:"display_order" gorm:"column:display_order;not null;default:0;index"`
	Created   time.Time `json:"created" db:"created" gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP"`
}

func (m ProjectMedia) IsImage() bool { return m.MediaType == MediaImage }
func (m ProjectMedia) IsVideo() bool { return m.MediaType == MediaVideo }
func (m ProjectMedia) IsAudio() bool { return m.MediaType == MediaAudio }
