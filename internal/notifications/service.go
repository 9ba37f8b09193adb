package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	apperrors "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/errors"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

// NotificationDTO is the transport shape for a notification.
type NotificationDTO struct {
	ID        uuid.UUID  `json:"id"`
	CompanyID uuid.UUID  `json:"company_id"`
	Kind      string     `json:"kind"`
	Body      string     `json:"body"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NotificationListResult is a paginated page of notifications.
type NotificationListResult struct {
	Items []NotificationDTO `json:"items"`
	Page  pagination.Page   `json:"page"`
}

// Service exposes the self-service notification surface.
type Service interface {
	ListOwn(ctx context.Context, actorID uuid.UUID, params pagination.Params) (*NotificationListResult, error)
	MarkRead(ctx context.Context, id, actorID uuid.UUID) error
	MarkAllRead(ctx context.Context, actorID uuid.UUID) (int64, error)
}

type service struct {
	notifications *Repository
	logg          *logger.Logger
	now           func() time.Time
}

// NewService wires the notification service.
func NewService(db *gorm.DB, logg *logger.Logger) (Service, error) {
	if db == nil {
		return nil, errors.New("notifications service requires a database connection")
	}
	if logg == nil {
		return nil, errors.New("notifications service requires a logger")
	}
	return &service{notifications: NewRepository(db), logg: logg, now: time.Now}, nil
}

func (s *service) ListOwn(ctx context.Context, actorID uuid.UUID, params pagination.Params) (*NotificationListResult, error) {
	params = pagination.Normalize(params)
	rows, total, err := s.notifications.ListByUser(ctx, actorID, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "list notifications")
	}
	items := make([]NotificationDTO, 0, len(rows))
	for i := range rows {
		items = append(items, toNotificationDTO(&rows[i]))
	}
	return &NotificationListResult{Items: items, Page: pagination.NewPage(params, total)}, nil
}

func (s *service) MarkRead(ctx context.Context, id, actorID uuid.UUID) error {
	rows, err := s.notifications.MarkRead(ctx, id, actorID, s.now().UTC())
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "mark notification read")
	}
	if rows == 0 {
		return apperrors.New(apperrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, actorID uuid.UUID) (int64, error) {
	rows, err := s.notifications.MarkAllRead(ctx, actorID, s.now().UTC())
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeDependency, err, "mark notifications read")
	}
	return rows, nil
}

func toNotificationDTO(n *models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        n.ID,
		CompanyID: n.CompanyID,
		Kind:      n.Kind,
		Body:      n.Body,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
