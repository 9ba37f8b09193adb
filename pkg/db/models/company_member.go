package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/enums"
)

// CompanyMember links a user with a company and captures their role.
// A partial unique index enforces at most one active row per
// (company_id, user_id); removal deactivates the row, it is never deleted.
type CompanyMember struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID uuid.UUID         `gorm:"column:company_id;type:uuid;not null"`
	UserID    uuid.UUID         `gorm:"column:user_id;type:uuid;not null"`
	Role      enums.CompanyRole `gorm:"column:role;type:company_role;not null;default:'member'"`
	IsActive  bool              `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
