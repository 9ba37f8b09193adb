package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/enums"
)

// CompanyInvite is a company-initiated offer of membership to a user.
// Status and is_active are independent axes: status records the decision,
// is_active records whether the row still participates in lookups and
// uniqueness (a withdrawn invite is inactive while still pending).
type CompanyInvite struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID uuid.UUID           `gorm:"column:company_id;type:uuid;not null"`
	UserID    uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Status    enums.RequestStatus `gorm:"column:status;type:request_status;not null;default:'pending'"`
	IsActive  bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
