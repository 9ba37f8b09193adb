package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/config"
	apperrors "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/errors"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/security"
)

// UpdateProfileInput carries the self-service profile fields. Nil means leave
// the field untouched.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Username  *string
}

// Service exposes profile management. All mutations are self-service; the
// actor can only touch their own record.
type Service interface {
	List(ctx context.Context, params pagination.Params) (*UserListResult, error)
	GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, actorID uuid.UUID, input UpdateProfileInput) (*UserDTO, error)
	ChangePassword(ctx context.Context, actorID uuid.UUID, current, next string) error
	Delete(ctx context.Context, actorID uuid.UUID) error
}

type service struct {
	users    *Repository
	password config.PasswordConfig
	logg     *logger.Logger
}

// NewService wires the user service with its repository and password settings.
func NewService(db *gorm.DB, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if db == nil {
		return nil, errors.New("users service requires a database connection")
	}
	if logg == nil {
		return nil, errors.New("users service requires a logger")
	}
	return &service{
		users:    NewRepository(db),
		password: passwordCfg,
		logg:     logg,
	}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*UserListResult, error) {
	params = pagination.Normalize(params)
	rows, total, err := s.users.ListActive(ctx, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "list users")
	}
	return &UserListResult{
		Items: toUserDTOs(rows),
		Page:  pagination.NewPage(params, total),
	}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	if !user.IsActive {
		return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return ToUserDTO(user), nil
}

func (s *service) UpdateProfile(ctx context.Context, actorID uuid.UUID, input UpdateProfileInput) (*UserDTO, error) {
	updates := map[string]any{}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Username != nil {
		updates["username"] = *input.Username
	}
	if len(updates) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "nothing to update")
	}

	rows, err := s.users.UpdateProfile(ctx, actorID, updates)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "update profile")
	}
	if rows == 0 {
		return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
	}

	user, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return nil, lookupError(err)
	}
	ctx = s.logg.WithUserID(ctx, actorID.String())
	s.logg.Info(ctx, "profile updated")
	return ToUserDTO(user), nil
}

func (s *service) ChangePassword(ctx context.Context, actorID uuid.UUID, current, next string) error {
	user, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		return lookupError(err)
	}
	if !user.IsActive {
		return apperrors.New(apperrors.CodeNotFound, "user not found")
	}

	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "verify current password")
	}
	if !ok {
		return apperrors.New(apperrors.CodeUnauthorized, "current password does not match")
	}

	hash, err := security.HashPassword(next, s.password)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, err, "hash new password")
	}

	rows, err := s.users.UpdatePassword(ctx, actorID, hash)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "store new password")
	}
	if rows == 0 {
		return apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	ctx = s.logg.WithUserID(ctx, actorID.String())
	s.logg.Info(ctx, "password changed")
	return nil
}

func (s *service) Delete(ctx context.Context, actorID uuid.UUID) error {
	rows, err := s.users.Deactivate(ctx, actorID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "deactivate user")
	}
	if rows == 0 {
		return apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	ctx = s.logg.WithUserID(ctx, actorID.String())
	s.logg.Info(ctx, "user deactivated")
	return nil
}

func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return apperrors.Wrap(apperrors.CodeDependency, err, "load user")
}
