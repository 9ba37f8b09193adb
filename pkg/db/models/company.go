package models

import (
	"time"

	"github.com/google/uuid"
)

// Company represents the canonical tenant model. The owner is an authorization
// fact on its own: the owning user never holds a membership row.
type Company struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string    `gorm:"type:text;not null;uniqueIndex"`
	Description *string   `gorm:"column:description"`
	Visibility  bool      `gorm:"column:visibility;not null;default:true"`
	OwnerID     uuid.UUID `gorm:"column:owner_id;type:uuid;not null"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
