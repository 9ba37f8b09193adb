package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a per-user message produced by the domain event worker.
type Notification struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID  `gorm:"column:user_id;type:uuid;not null"`
	CompanyID uuid.UUID  `gorm:"column:company_id;type:uuid;not null"`
	Kind      string     `gorm:"column:kind;not null"`
	Body      string     `gorm:"column:body;not null"`
	ReadAt    *time.Time `gorm:"column:read_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
