package models

import (
	"time"

	"github.com/google/uuid"
)

// Media maps an object in the bucket to its public URL.
type Media struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ObjectKey   string     `gorm:"column:object_key;not null;uniqueIndex"`
	Name        string     `gorm:"column:name;not null"`
	URL         string     `gorm:"column:url;not null"`
	ContentType string     `gorm:"column:content_type;not null"`
	SizeBytes   int64      `gorm:"column:size_bytes;not null"`
	UploadedBy  *uuid.UUID `gorm:"column:uploaded_by;type:uuid"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}
