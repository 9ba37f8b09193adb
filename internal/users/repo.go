package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/repo"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

// Repository owns all reads and writes on the users table.
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

// Create inserts a new user row.
func (r *Repository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return r.DB(ctx).Create(user).Error
}

// FindByID returns the user regardless of activity, or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.DB(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByEmail returns the active user with the given email.
func (r *Repository) FindActiveByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.DB(ctx).
		Where("email = ? AND is_active", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// EmailTaken reports whether any row, active or not, already claims the email.
func (r *Repository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.User{}).
		Where("email = ?", email).
		Count(&count).Error
	return count > 0, err
}

// ListActive returns active users ordered by registration date.
func (r *Repository) ListActive(ctx context.Context, params pagination.Params) ([]models.User, int64, error) {
	params = pagination.Normalize(params)

	var total int64
	err := r.DB(ctx).
		Model(&models.User{}).
		Where("is_active").
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []models.User
	err = r.DB(ctx).
		Where("is_active").
		Order("created_at").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// UpdateProfile applies the given column updates to an active user. Returns the
// number of rows touched; zero means no active user with that id.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, updates map[string]any) (int64, error) {
	res := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_active", id).
		Updates(updates)
	return res.RowsAffected, res.Error
}

// UpdatePassword replaces the stored password hash for an active user.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) (int64, error) {
	res := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_active", id).
		Update("password_hash", passwordHash)
	return res.RowsAffected, res.Error
}

// Deactivate soft-deletes the user. The row and its history stay behind.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_active", id).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
