package membership

import (
	"time"

	"github.com/google/uuid"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/enums"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

// MemberDTO is the transport shape for a membership record.
type MemberDTO struct {
	ID        uuid.UUID         `json:"id"`
	CompanyID uuid.UUID         `json:"company_id"`
	UserID    uuid.UUID         `json:"user_id"`
	Role      enums.CompanyRole `json:"role"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// MemberWithUser mixes membership metadata with the member's profile for listings.
type MemberWithUser struct {
	MembershipID uuid.UUID         `json:"membership_id"`
	CompanyID    uuid.UUID         `json:"company_id"`
	UserID       uuid.UUID         `json:"user_id"`
	Email        string            `json:"email"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Role         enums.CompanyRole `json:"role"`
	CreatedAt    time.Time         `json:"created_at"`
}

// InviteDTO is the transport shape for a company invitation.
type InviteDTO struct {
	ID        uuid.UUID           `json:"id"`
	CompanyID uuid.UUID           `json:"company_id"`
	UserID    uuid.UUID           `json:"user_id"`
	Status    enums.RequestStatus `json:"status"`
	IsActive  bool                `json:"is_active"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// RequestDTO is the transport shape for a join request.
type RequestDTO struct {
	ID        uuid.UUID           `json:"id"`
	CompanyID uuid.UUID           `json:"company_id"`
	UserID    uuid.UUID           `json:"user_id"`
	Status    enums.RequestStatus `json:"status"`
	IsActive  bool                `json:"is_active"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// MemberListResult is a paginated page of company members.
type MemberListResult struct {
	Items []MemberWithUser `json:"items"`
	Page  pagination.Page  `json:"page"`
}

// InviteListResult is a paginated page of invitations.
type InviteListResult struct {
	Items []InviteDTO     `json:"items"`
	Page  pagination.Page `json:"page"`
}

// RequestListResult is a paginated page of join requests.
type RequestListResult struct {
	Items []RequestDTO    `json:"items"`
	Page  pagination.Page `json:"page"`
}

// ToMemberDTO converts a model to the external DTO.
func ToMemberDTO(m *models.CompanyMember) *MemberDTO {
	if m == nil {
		return nil
	}
	return &MemberDTO{
		ID:        m.ID,
		CompanyID: m.CompanyID,
		UserID:    m.UserID,
		Role:      m.Role,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ToInviteDTO converts a model to the external DTO.
func ToInviteDTO(m *models.CompanyInvite) *InviteDTO {
	if m == nil {
		return nil
	}
	return &InviteDTO{
		ID:        m.ID,
		CompanyID: m.CompanyID,
		UserID:    m.UserID,
		Status:    m.Status,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ToRequestDTO converts a model to the external DTO.
func ToRequestDTO(m *models.JoinRequest) *RequestDTO {
	if m == nil {
		return nil
	}
	return &RequestDTO{
		ID:        m.ID,
		CompanyID: m.CompanyID,
		UserID:    m.UserID,
		Status:    m.Status,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toInviteDTOs(rows []models.CompanyInvite) []InviteDTO {
	out := make([]InviteDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *ToInviteDTO(&rows[i]))
	}
	return out
}

func toRequestDTOs(rows []models.JoinRequest) []RequestDTO {
	out := make([]RequestDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *ToRequestDTO(&rows[i]))
	}
	return out
}
