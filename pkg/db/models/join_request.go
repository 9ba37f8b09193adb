package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/enums"
)

// JoinRequest is a user-initiated request for membership in a company.
// Deliberately symmetric to CompanyInvite but kept as a separate table: an
// invite and a join request for the same pair can coexist until one resolves.
type JoinRequest struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CompanyID uuid.UUID           `gorm:"column:company_id;type:uuid;not null"`
	UserID    uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Status    enums.RequestStatus `gorm:"column:status;type:request_status;not null;default:'pending'"`
	IsActive  bool                `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
