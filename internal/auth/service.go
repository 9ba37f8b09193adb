package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/users"
	pkgauth "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/auth"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/auth/session"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/config"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	apperrors "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/errors"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/security"
)

// SignupInput carries the registration fields.
type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// TokenPair is the result of a successful signin or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// sessionManager is the slice of session.Manager the service needs.
type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Service implements the authentication flows: registration, signin with a
// JWT + refresh-token pair, rotation, and logout.
type Service interface {
	Signup(ctx context.Context, input SignupInput) (*users.UserDTO, error)
	Signin(ctx context.Context, email, password string) (*TokenPair, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
	Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
}

type service struct {
	users    *users.Repository
	sessions sessionManager
	jwt      config.JWTConfig
	password config.PasswordConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires the auth service. The session manager is usually
// *session.Manager backed by redis.
func NewService(db *gorm.DB, sessions sessionManager, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if db == nil {
		return nil, errors.New("auth service requires a database connection")
	}
	if sessions == nil {
		return nil, errors.New("auth service requires a session manager")
	}
	if logg == nil {
		return nil, errors.New("auth service requires a logger")
	}
	return &service{
		users:    users.NewRepository(db),
		sessions: sessions,
		jwt:      jwtCfg,
		password: passwordCfg,
		logg:     logg,
		now:      time.Now,
	}, nil
}

func (s *service) Signup(ctx context.Context, input SignupInput) (*users.UserDTO, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "email is required")
	}
	if input.Password == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "password is required")
	}

	taken, err := s.users.EmailTaken(ctx, email)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "check email")
	}
	if taken {
		return nil, apperrors.New(apperrors.CodeConflict, "email already registered")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeValidation, err, "hash password")
	}

	user := &models.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "create user")
	}
	ctx = s.logg.WithUserID(ctx, user.ID.String())
	s.logg.Info(ctx, "user registered")
	return users.ToUserDTO(user), nil
}

func (s *service) Signin(ctx context.Context, email, password string) (*TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.FindActiveByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, invalidCredentials()
	}

	pair, err := s.issuePair(ctx, user.ID, user.Email, session.NewAccessID())
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithUserID(ctx, user.ID.String())
	s.logg.Info(ctx, "user signed in")
	return pair, nil
}

func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	// The access token may be expired here; only its identity claims matter.
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwt, accessToken)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUnauthorized, err, "parse access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, apperrors.New(apperrors.CodeUnauthorized, "refresh token rejected")
		}
		return nil, apperrors.Wrap(apperrors.CodeUnauthorized, err, "rotate session")
	}

	token, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID: claims.UserID,
		Email:  claims.Email,
		JTI:    newAccessID,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "mint access token")
	}
	ctx = s.logg.WithUserID(ctx, claims.UserID.String())
	s.logg.Info(ctx, "session rotated")
	return &TokenPair{AccessToken: token, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
	}
	return users.ToUserDTO(user), nil
}

func (s *service) issuePair(ctx context.Context, userID uuid.UUID, email, accessID string) (*TokenPair, error) {
	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "create session")
	}
	token, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID: userID,
		Email:  email,
		JTI:    accessID,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "mint access token")
	}
	return &TokenPair{AccessToken: token, RefreshToken: refresh}, nil
}

func invalidCredentials() error {
	return apperrors.New(apperrors.CodeUnauthorized, "invalid email or password")
}
