package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/repo"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/enums"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

// MemberRepository owns all writes to company_members. No other component
// mutates the table directly; the partial unique index on active rows is the
// last line of defense, not the first.
type MemberRepository struct {
	repo.Base
}

// NewMemberRepository binds the repo to the provided GORM connection.
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{Base: repo.NewBase(db)}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *MemberRepository) WithTx(tx *gorm.DB) *MemberRepository {
	return NewMemberRepository(tx)
}

// GetActive returns the active membership for the pair, or gorm.ErrRecordNotFound.
func (r *MemberRepository) GetActive(ctx context.Context, companyID, userID uuid.UUID) (*models.CompanyMember, error) {
	var member models.CompanyMember
	err := r.DB(ctx).
		Where("company_id = ? AND user_id = ? AND is_active", companyID, userID).
		First(&member).Error
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// HasActive reports whether an active membership exists for the pair.
func (r *MemberRepository) HasActive(ctx context.Context, companyID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.CompanyMember{}).
		Where("company_id = ? AND user_id = ? AND is_active", companyID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateOrReactivate grants the user an active membership with the given role.
// A previously deactivated row for the pair is revived instead of inserting a
// duplicate; history rows therefore never pile up per rejoin cycle.
func (r *MemberRepository) CreateOrReactivate(ctx context.Context, companyID, userID uuid.UUID, role enums.CompanyRole) (*models.CompanyMember, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("invalid company role %q", role)
	}

	var existing models.CompanyMember
	err := r.DB(ctx).
		Where("company_id = ? AND user_id = ? AND NOT is_active", companyID, userID).
		Order("updated_at DESC").
		First(&existing).Error
	switch {
	case err == nil:
		updates := map[string]any{"is_active": true, "role": role}
		if err := r.DB(ctx).Model(&models.CompanyMember{}).
			Where("id = ?", existing.ID).
			Updates(updates).Error; err != nil {
			return nil, err
		}
		existing.IsActive = true
		existing.Role = role
		return &existing, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		member := &models.CompanyMember{
			ID:        uuid.New(),
			CompanyID: companyID,
			UserID:    userID,
			Role:      role,
			IsActive:  true,
		}
		if err := r.DB(ctx).Create(member).Error; err != nil {
			return nil, err
		}
		return member, nil

	default:
		return nil, err
	}
}

// Deactivate clears the active flag for the pair. Returns the number of rows
// touched; zero means there was no active membership to remove.
func (r *MemberRepository) Deactivate(ctx context.Context, companyID, userID uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Model(&models.CompanyMember{}).
		Where("company_id = ? AND user_id = ? AND is_active", companyID, userID).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// UpdateRole changes the role on the active membership for the pair.
func (r *MemberRepository) UpdateRole(ctx context.Context, companyID, userID uuid.UUID, role enums.CompanyRole) (int64, error) {
	if !role.IsValid() {
		return 0, fmt.Errorf("invalid company role %q", role)
	}
	res := r.DB(ctx).
		Model(&models.CompanyMember{}).
		Where("company_id = ? AND user_id = ? AND is_active", companyID, userID).
		Update("role", role)
	return res.RowsAffected, res.Error
}

type memberWithUserRow struct {
	models.CompanyMember
	Email     string `gorm:"column:email"`
	FirstName string `gorm:"column:first_name"`
	LastName  string `gorm:"column:last_name"`
}

// ListActiveByCompany returns active memberships joined with user metadata.
func (r *MemberRepository) ListActiveByCompany(ctx context.Context, companyID uuid.UUID, params pagination.Params) ([]MemberWithUser, int64, error) {
	params = pagination.Normalize(params)

	var total int64
	err := r.DB(ctx).
		Model(&models.CompanyMember{}).
		Where("company_id = ? AND is_active", companyID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []memberWithUserRow
	err = r.DB(ctx).
		Model(&models.CompanyMember{}).
		Where("company_members.company_id = ? AND company_members.is_active", companyID).
		Select("company_members.*, users.email, users.first_name, users.last_name").
		Joins("JOIN users ON users.id = company_members.user_id").
		Order("company_members.created_at").
		Limit(params.Limit).
		Offset(params.Offset()).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	out := make([]MemberWithUser, 0, len(rows))
	for _, row := range rows {
		out = append(out, MemberWithUser{
			MembershipID: row.ID,
			CompanyID:    row.CompanyID,
			UserID:       row.UserID,
			Email:        row.Email,
			FirstName:    row.FirstName,
			LastName:     row.LastName,
			Role:         row.Role,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out, total, nil
}

// ListActiveUserIDs returns the user ids of all active members for fan-out.
func (r *MemberRepository) ListActiveUserIDs(ctx context.Context, companyID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.DB(ctx).
		Model(&models.CompanyMember{}).
		Where("company_id = ? AND is_active", companyID).
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
