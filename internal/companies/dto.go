package companies

import (
	"time"

	"github.com/google/uuid"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

// CompanyDTO is the transport shape for a company.
type CompanyDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Visibility  bool      `json:"visibility"`
	OwnerID     uuid.UUID `json:"owner_id"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CompanyListResult is a paginated page of companies.
type CompanyListResult struct {
	Items []CompanyDTO    `json:"items"`
	Page  pagination.Page `json:"page"`
}

// ToCompanyDTO converts a model to the external DTO.
func ToCompanyDTO(c *models.Company) *CompanyDTO {
	if c == nil {
		return nil
	}
	return &CompanyDTO{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		Visibility:  c.Visibility,
		OwnerID:     c.OwnerID,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toCompanyDTOs(rows []models.Company) []CompanyDTO {
	out := make([]CompanyDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *ToCompanyDTO(&rows[i]))
	}
	return out
}
