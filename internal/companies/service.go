package companies

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	apperrors "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/errors"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

// CreateInput carries the fields for registering a company.
type CreateInput struct {
	Name        string
	Description *string
	Visibility  bool
}

// UpdateInput carries the owner-editable fields. Nil means leave untouched.
type UpdateInput struct {
	Name        *string
	Description *string
}

// Service exposes company management. All mutations are owner-only.
type Service interface {
	Create(ctx context.Context, actorID uuid.UUID, input CreateInput) (*CompanyDTO, error)
	GetByID(ctx context.Context, id, actorID uuid.UUID) (*CompanyDTO, error)
	ListVisible(ctx context.Context, params pagination.Params) (*CompanyListResult, error)
	ListOwn(ctx context.Context, actorID uuid.UUID, params pagination.Params) (*CompanyListResult, error)
	Update(ctx context.Context, id, actorID uuid.UUID, input UpdateInput) (*CompanyDTO, error)
	SetVisibility(ctx context.Context, id, actorID uuid.UUID, visible bool) (*CompanyDTO, error)
	Delete(ctx context.Context, id, actorID uuid.UUID) error
}

type service struct {
	companies *Repository
	logg      *logger.Logger
}

// NewService wires the company service with its repository.
func NewService(db *gorm.DB, logg *logger.Logger) (Service, error) {
	if db == nil {
		return nil, errors.New("companies service requires a database connection")
	}
	if logg == nil {
		return nil, errors.New("companies service requires a logger")
	}
	return &service{companies: NewRepository(db), logg: logg}, nil
}

func (s *service) Create(ctx context.Context, actorID uuid.UUID, input CreateInput) (*CompanyDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "company name is required")
	}

	taken, err := s.companies.NameTaken(ctx, name)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "check company name")
	}
	if taken {
		return nil, apperrors.New(apperrors.CodeConflict, "company name already in use")
	}

	company := &models.Company{
		ID:          uuid.New(),
		Name:        name,
		Description: input.Description,
		Visibility:  input.Visibility,
		OwnerID:     actorID,
		IsActive:    true,
	}
	if err := s.companies.Create(ctx, company); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "create company")
	}
	ctx = s.logg.WithCompanyID(ctx, company.ID.String())
	s.logg.Info(ctx, "company created")
	return ToCompanyDTO(company), nil
}

func (s *service) GetByID(ctx context.Context, id, actorID uuid.UUID) (*CompanyDTO, error) {
	company, err := s.loadActive(ctx, id)
	if err != nil {
		return nil, err
	}
	// Hidden companies exist only for their owner.
	if !company.Visibility && company.OwnerID != actorID {
		return nil, notFound()
	}
	return ToCompanyDTO(company), nil
}

func (s *service) ListVisible(ctx context.Context, params pagination.Params) (*CompanyListResult, error) {
	params = pagination.Normalize(params)
	rows, total, err := s.companies.ListVisible(ctx, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "list companies")
	}
	return &CompanyListResult{Items: toCompanyDTOs(rows), Page: pagination.NewPage(params, total)}, nil
}

func (s *service) ListOwn(ctx context.Context, actorID uuid.UUID, params pagination.Params) (*CompanyListResult, error) {
	params = pagination.Normalize(params)
	rows, total, err := s.companies.ListByOwner(ctx, actorID, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "list own companies")
	}
	return &CompanyListResult{Items: toCompanyDTOs(rows), Page: pagination.NewPage(params, total)}, nil
}

func (s *service) Update(ctx context.Context, id, actorID uuid.UUID, input UpdateInput) (*CompanyDTO, error) {
	if _, err := s.loadOwned(ctx, id, actorID); err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "company name is required")
		}
		updates["name"] = name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if len(updates) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "nothing to update")
	}

	if _, err := s.companies.Update(ctx, id, updates); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "update company")
	}

	company, err := s.loadActive(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithCompanyID(ctx, id.String())
	s.logg.Info(ctx, "company updated")
	return ToCompanyDTO(company), nil
}

func (s *service) SetVisibility(ctx context.Context, id, actorID uuid.UUID, visible bool) (*CompanyDTO, error) {
	if _, err := s.loadOwned(ctx, id, actorID); err != nil {
		return nil, err
	}
	if _, err := s.companies.Update(ctx, id, map[string]any{"visibility": visible}); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "update visibility")
	}
	company, err := s.loadActive(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithCompanyID(ctx, id.String())
	s.logg.Info(ctx, "company visibility changed")
	return ToCompanyDTO(company), nil
}

func (s *service) Delete(ctx context.Context, id, actorID uuid.UUID) error {
	if _, err := s.loadOwned(ctx, id, actorID); err != nil {
		return err
	}
	rows, err := s.companies.Deactivate(ctx, id)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "deactivate company")
	}
	if rows == 0 {
		return notFound()
	}
	ctx = s.logg.WithCompanyID(ctx, id.String())
	s.logg.Info(ctx, "company deactivated")
	return nil
}

func (s *service) loadActive(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	company, err := s.companies.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound()
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "load company")
	}
	if !company.IsActive {
		return nil, notFound()
	}
	return company, nil
}

func (s *service) loadOwned(ctx context.Context, id, actorID uuid.UUID) (*models.Company, error) {
	company, err := s.loadActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if company.OwnerID != actorID {
		return nil, apperrors.New(apperrors.CodeForbidden, "owner authorization required")
	}
	return company, nil
}

func notFound() error {
	return apperrors.New(apperrors.CodeNotFound, "company not found")
}
