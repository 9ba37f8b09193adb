package membership

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/repo"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/enums"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

// InviteRepository owns all writes to company_invites. Status transitions are
// conditional updates guarded by the pending state so that two racing
// resolutions cannot both win (the loser sees zero rows affected).
type InviteRepository struct {
	repo.Base
}

// NewInviteRepository binds the repo to the provided GORM connection.
func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{Base: repo.NewBase(db)}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *InviteRepository) WithTx(tx *gorm.DB) *InviteRepository {
	return NewInviteRepository(tx)
}

// Create inserts a new pending invitation.
func (r *InviteRepository) Create(ctx context.Context, companyID, userID uuid.UUID) (*models.CompanyInvite, error) {
	invite := &models.CompanyInvite{
		ID:        uuid.New(),
		CompanyID: companyID,
		UserID:    userID,
		Status:    enums.RequestStatusPending,
		IsActive:  true,
	}
	if err := r.DB(ctx).Create(invite).Error; err != nil {
		return nil, err
	}
	return invite, nil
}

// FindByID returns the invitation regardless of state.
func (r *InviteRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.CompanyInvite, error) {
	var invite models.CompanyInvite
	if err := r.DB(ctx).Where("id = ?", id).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// HasActivePending reports whether a live pending invitation exists for the pair.
func (r *InviteRepository) HasActivePending(ctx context.Context, companyID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.CompanyInvite{}).
		Where("company_id = ? AND user_id = ? AND is_active AND status = ?", companyID, userID, enums.RequestStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Resolve moves a live pending invitation into a terminal status. Zero rows
// affected means the invitation was already resolved or withdrawn.
func (r *InviteRepository) Resolve(ctx context.Context, id uuid.UUID, status enums.RequestStatus) (int64, error) {
	res := r.DB(ctx).
		Model(&models.CompanyInvite{}).
		Where("id = ? AND is_active AND status = ?", id, enums.RequestStatusPending).
		Update("status", status)
	return res.RowsAffected, res.Error
}

// Deactivate withdraws a live pending invitation, leaving its status intact.
func (r *InviteRepository) Deactivate(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Model(&models.CompanyInvite{}).
		Where("id = ? AND is_active AND status = ?", id, enums.RequestStatusPending).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// ListPendingByCompany returns live pending invitations issued by the company.
func (r *InviteRepository) ListPendingByCompany(ctx context.Context, companyID uuid.UUID, params pagination.Params) ([]models.CompanyInvite, int64, error) {
	return r.listPending(ctx, "company_id = ?", companyID, params)
}

// ListPendingByUser returns live pending invitations addressed to the user.
func (r *InviteRepository) ListPendingByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.CompanyInvite, int64, error) {
	return r.listPending(ctx, "user_id = ?", userID, params)
}

func (r *InviteRepository) listPending(ctx context.Context, cond string, id uuid.UUID, params pagination.Params) ([]models.CompanyInvite, int64, error) {
	params = pagination.Normalize(params)

	var total int64
	err := r.DB(ctx).
		Model(&models.CompanyInvite{}).
		Where(cond, id).
		Where("is_active AND status = ?", enums.RequestStatusPending).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []models.CompanyInvite
	err = r.DB(ctx).
		Where(cond, id).
		Where("is_active AND status = ?", enums.RequestStatusPending).
		Order("created_at").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// JoinRequestRepository owns all writes to join_requests. Deliberately
// symmetric to InviteRepository, not unified: an invite and a join request for
// the same pair can coexist until one resolves.
type JoinRequestRepository struct {
	repo.Base
}

// NewJoinRequestRepository binds the repo to the provided GORM connection.
func NewJoinRequestRepository(db *gorm.DB) *JoinRequestRepository {
	return &JoinRequestRepository{Base: repo.NewBase(db)}
}

// WithTx returns a copy of the repository bound to the transaction.
func (r *JoinRequestRepository) WithTx(tx *gorm.DB) *JoinRequestRepository {
	return NewJoinRequestRepository(tx)
}

// Create inserts a new pending join request.
func (r *JoinRequestRepository) Create(ctx context.Context, companyID, userID uuid.UUID) (*models.JoinRequest, error) {
	request := &models.JoinRequest{
		ID:        uuid.New(),
		CompanyID: companyID,
		UserID:    userID,
		Status:    enums.RequestStatusPending,
		IsActive:  true,
	}
	if err := r.DB(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

// FindByID returns the join request regardless of state.
func (r *JoinRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.JoinRequest, error) {
	var request models.JoinRequest
	if err := r.DB(ctx).Where("id = ?", id).First(&request).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// HasActivePending reports whether a live pending join request exists for the pair.
func (r *JoinRequestRepository) HasActivePending(ctx context.Context, companyID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.DB(ctx).
		Model(&models.JoinRequest{}).
		Where("company_id = ? AND user_id = ? AND is_active AND status = ?", companyID, userID, enums.RequestStatusPending).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Resolve moves a live pending join request into a terminal status. Zero rows
// affected means the request was already resolved or cancelled.
func (r *JoinRequestRepository) Resolve(ctx context.Context, id uuid.UUID, status enums.RequestStatus) (int64, error) {
	res := r.DB(ctx).
		Model(&models.JoinRequest{}).
		Where("id = ? AND is_active AND status = ?", id, enums.RequestStatusPending).
		Update("status", status)
	return res.RowsAffected, res.Error
}

// Deactivate cancels a live pending join request, leaving its status intact.
func (r *JoinRequestRepository) Deactivate(ctx context.Context, id uuid.UUID) (int64, error) {
	res := r.DB(ctx).
		Model(&models.JoinRequest{}).
		Where("id = ? AND is_active AND status = ?", id, enums.RequestStatusPending).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}

// ListPendingByCompany returns live pending join requests addressed to the company.
func (r *JoinRequestRepository) ListPendingByCompany(ctx context.Context, companyID uuid.UUID, params pagination.Params) ([]models.JoinRequest, int64, error) {
	return r.listPending(ctx, "company_id = ?", companyID, params)
}

// ListPendingByUser returns live pending join requests created by the user.
func (r *JoinRequestRepository) ListPendingByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.JoinRequest, int64, error) {
	return r.listPending(ctx, "user_id = ?", userID, params)
}

func (r *JoinRequestRepository) listPending(ctx context.Context, cond string, id uuid.UUID, params pagination.Params) ([]models.JoinRequest, int64, error) {
	params = pagination.Normalize(params)

	var total int64
	err := r.DB(ctx).
		Model(&models.JoinRequest{}).
		Where(cond, id).
		Where("is_active AND status = ?", enums.RequestStatusPending).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var rows []models.JoinRequest
	err = r.DB(ctx).
		Where(cond, id).
		Where("is_active AND status = ?", enums.RequestStatusPending).
		Order("created_at").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
