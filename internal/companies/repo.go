package companies

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/repo"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

// Repository owns all reads and writes on the companies table.
type Repository struct {
	repo.Base
}

// NewRepository binds the repo to the provided GORM connection.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// Create inserts a new company row.
func (r *Repository) Create(ctx context.Context, company *models.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	return r.DB(ctx).Create(company).Error
}

// FindByID returns the company regardless of activity, or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	if err := r.DB(ctx).First(&company, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// NameTaken reports whether an active company already claims the name.
func (r *Repository) NameTaken(ctx context.Context, name string) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.Company{}).
		Where("name = ? AND is_active", name).
		Count(&count).Error
	return count > 0, err
}

// ListVisible returns active, publicly visible companies.
func (r *Repository) ListVisible(ctx context.Context, params pagination.Params) ([]models.Company, int64, error) {
	return r.list(ctx, "visibility AND is_active", nil, params)
}

// ListByOwner returns the caller's own active companies, hidden ones included.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID, params pagination.Params) ([]models.Company, int64, error) {
	return r.list(ctx, "owner_id = ? AND is_active", []any{ownerID}, params)
}

func (r *Repository) list(ctx context.Context, cond string, args []any, params pagination.Params) ([]models.Company, int64, error) {
	params = pagination.Normalize(params)

	var total int64
	err := r.DB(ctx).
		Model(&models.Company{}).
		Where(cond, args...).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []models.Company
	err = r.DB(ctx).
		Where(cond, args...).
		Order("created_at").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Update applies column updates to an active company. Zero rows means the
// company is gone or already deactivated.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Company{}).
		Where("id = ? AND is_active", id).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// Deactivate soft-deletes the company.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Model(&models.Company{}).
		Where("id = ? AND is_active", id).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
