package membership

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/enums"
	apperrors "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/errors"
)

// Authorization predicates. Side-effect-free existence queries evaluated
// inside the same transaction as the mutation they protect, so a passing
// check cannot be invalidated before the write lands.

// IsActiveMember reports whether the user holds an active membership in the company.
func IsActiveMember(ctx context.Context, tx *gorm.DB, userID, companyID uuid.UUID) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.CompanyMember{}).
		Where("company_id = ? AND user_id = ? AND is_active", companyID, userID).
		Count(&count).Error
	return count > 0, err
}

// IsOwner reports whether the user owns the company and the company is active.
func IsOwner(ctx context.Context, tx *gorm.DB, userID, companyID uuid.UUID) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ? AND owner_id = ? AND is_active", companyID, userID).
		Count(&count).Error
	return count > 0, err
}

// IsAdminOrOwner reports whether the user owns the company or holds an active admin membership.
func IsAdminOrOwner(ctx context.Context, tx *gorm.DB, userID, companyID uuid.UUID) (bool, error) {
	owner, err := IsOwner(ctx, tx, userID, companyID)
	if err != nil || owner {
		return owner, err
	}
	var count int64
	err = tx.WithContext(ctx).
		Model(&models.CompanyMember{}).
		Where("company_id = ? AND user_id = ? AND is_active AND role = ?", companyID, userID, enums.CompanyRoleAdmin).
		Count(&count).Error
	return count > 0, err
}

// CompanyExistsAndActive reports whether the company exists and is not soft-deleted.
func CompanyExistsAndActive(ctx context.Context, tx *gorm.DB, companyID uuid.UUID) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.Company{}).
		Where("id = ? AND is_active", companyID).
		Count(&count).Error
	return count > 0, err
}

// UserExistsAndActive reports whether the user exists and is not soft-deleted.
func UserExistsAndActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (bool, error) {
	var count int64
	err := tx.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND is_active", userID).
		Count(&count).Error
	return count > 0, err
}

// HasPendingInvite reports whether a live pending invitation exists for the pair.
func HasPendingInvite(ctx context.Context, tx *gorm.DB, userID, companyID uuid.UUID) (bool, error) {
	return NewInviteRepository(tx).HasActivePending(ctx, companyID, userID)
}

// HasPendingRequest reports whether a live pending join request exists for the pair.
func HasPendingRequest(ctx context.Context, tx *gorm.DB, userID, companyID uuid.UUID) (bool, error) {
	return NewJoinRequestRepository(tx).HasActivePending(ctx, companyID, userID)
}

// guard is one named precondition in an operation's chain. The name feeds the
// rejection metrics label.
type guard struct {
	name  string
	check func(ctx context.Context, tx *gorm.DB) *apperrors.Error
}

// runGuards evaluates the chain in order, first failure wins. Later guards may
// assume everything earlier in the chain already passed.
func runGuards(ctx context.Context, tx *gorm.DB, guards ...guard) (string, *apperrors.Error) {
	for _, g := range guards {
		if err := g.check(ctx, tx); err != nil {
			return g.name, err
		}
	}
	return "", nil
}

func boolGuard(name string, want bool, failure *apperrors.Error, predicate func(ctx context.Context, tx *gorm.DB) (bool, error)) guard {
	return guard{
		name: name,
		check: func(ctx context.Context, tx *gorm.DB) *apperrors.Error {
			got, err := predicate(ctx, tx)
			if err != nil {
				return apperrors.Wrap(apperrors.CodeDependency, err, "evaluate precondition "+name)
			}
			if got != want {
				return failure
			}
			return nil
		},
	}
}

func requireOwner(userID, companyID uuid.UUID) guard {
	return boolGuard("not_owner", true,
		apperrors.New(apperrors.CodeForbidden, "owner authorization required"),
		func(ctx context.Context, tx *gorm.DB) (bool, error) {
			return IsOwner(ctx, tx, userID, companyID)
		})
}

func requireAdminOrOwner(userID, companyID uuid.UUID) guard {
	return boolGuard("not_admin_or_owner", true,
		apperrors.New(apperrors.CodeForbidden, "admin or owner authorization required"),
		func(ctx context.Context, tx *gorm.DB) (bool, error) {
			return IsAdminOrOwner(ctx, tx, userID, companyID)
		})
}

func requireActiveUser(userID uuid.UUID) guard {
	return boolGuard("user_not_found", true,
		apperrors.New(apperrors.CodeNotFound, "user not found"),
		func(ctx context.Context, tx *gorm.DB) (bool, error) {
			return UserExistsAndActive(ctx, tx, userID)
		})
}

func requireActiveCompany(companyID uuid.UUID) guard {
	return boolGuard("company_not_found", true,
		apperrors.New(apperrors.CodeNotFound, "company not found"),
		func(ctx context.Context, tx *gorm.DB) (bool, error) {
			return CompanyExistsAndActive(ctx, tx, companyID)
		})
}

func requireNotMember(userID, companyID uuid.UUID) guard {
	return boolGuard("already_member", false,
		apperrors.New(apperrors.CodeConflict, "user is already a member"),
		func(ctx context.Context, tx *gorm.DB) (bool, error) {
			return IsActiveMember(ctx, tx, userID, companyID)
		})
}

func requireMember(userID, companyID uuid.UUID) guard {
	return boolGuard("membership_not_found", true,
		apperrors.New(apperrors.CodeNotFound, "no active membership"),
		func(ctx context.Context, tx *gorm.DB) (bool, error) {
			return IsActiveMember(ctx, tx, userID, companyID)
		})
}

// An owner never holds an invitation or request for their own company.
func requireNotOwner(userID, companyID uuid.UUID) guard {
	return boolGuard("target_is_owner", false,
		apperrors.New(apperrors.CodeValidation, "company owner cannot join their own company"),
		func(ctx context.Context, tx *gorm.DB) (bool, error) {
			var count int64
			err := tx.WithContext(ctx).
				Model(&models.Company{}).
				Where("id = ? AND owner_id = ?", companyID, userID).
				Count(&count).Error
			return count > 0, err
		})
}

func requireNoPendingInvite(userID, companyID uuid.UUID) guard {
	return boolGuard("duplicate_pending_invite", false,
		apperrors.New(apperrors.CodeConflict, "pending invitation already exists"),
		func(ctx context.Context, tx *gorm.DB) (bool, error) {
			return HasPendingInvite(ctx, tx, userID, companyID)
		})
}

func requireNoPendingRequest(userID, companyID uuid.UUID) guard {
	return boolGuard("duplicate_pending_request", false,
		apperrors.New(apperrors.CodeConflict, "pending join request already exists"),
		func(ctx context.Context, tx *gorm.DB) (bool, error) {
			return HasPendingRequest(ctx, tx, userID, companyID)
		})
}

// requireInviteTarget checks the invitation is addressed to exactly this user.
func requireInviteTarget(invite *models.CompanyInvite, userID uuid.UUID) guard {
	return guard{
		name: "not_invite_target",
		check: func(ctx context.Context, tx *gorm.DB) *apperrors.Error {
			if invite.UserID != userID {
				return apperrors.New(apperrors.CodeForbidden, "invitation addressed to another user")
			}
			return nil
		},
	}
}

// requireRequestAuthor checks the join request was created by exactly this user.
func requireRequestAuthor(request *models.JoinRequest, userID uuid.UUID) guard {
	return guard{
		name: "not_request_author",
		check: func(ctx context.Context, tx *gorm.DB) *apperrors.Error {
			if request.UserID != userID {
				return apperrors.New(apperrors.CodeForbidden, "join request belongs to another user")
			}
			return nil
		},
	}
}

// requirePending checks a previously loaded invite or request is still live
// and undecided. The CAS update re-checks this inside the write itself.
func requirePending(status enums.RequestStatus, isActive bool) guard {
	return guard{
		name: "not_pending",
		check: func(ctx context.Context, tx *gorm.DB) *apperrors.Error {
			if !isActive || status != enums.RequestStatusPending {
				return apperrors.New(apperrors.CodeNotFound, "record is no longer pending")
			}
			return nil
		},
	}
}
