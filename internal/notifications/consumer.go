package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/companies"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/events"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/membership"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/enums"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
)

// Consumer turns domain events into notification rows. It runs inside the
// worker binary, fed by the Pub/Sub subscription.
type Consumer struct {
	notifications *Repository
	members       *membership.MemberRepository
	companies     *companies.Repository
	logg          *logger.Logger
}

// NewConsumer wires the consumer against the shared database.
func NewConsumer(db *gorm.DB, logg *logger.Logger) (*Consumer, error) {
	if db == nil {
		return nil, errors.New("notifications consumer requires a database connection")
	}
	if logg == nil {
		return nil, errors.New("notifications consumer requires a logger")
	}
	return &Consumer{
		notifications: NewRepository(db),
		members:       membership.NewMemberRepository(db),
		companies:     companies.NewRepository(db),
		logg:          logg,
	}, nil
}

// Handle dispatches one event. Unknown event types are skipped, not failed,
// so old workers survive new producers.
func (c *Consumer) Handle(ctx context.Context, event events.Event) error {
	switch event.Type {
	case enums.EventQuizCreated:
		return c.fanOutQuizCreated(ctx, event)
	case enums.EventInviteCreated:
		return c.notify(ctx, event.UserID, event,
			"You have been invited to join a company")
	case enums.EventMemberJoined:
		return c.notify(ctx, event.UserID, event,
			"Your company membership is now active")
	case enums.EventMemberRemoved:
		return c.notify(ctx, event.UserID, event,
			"Your company membership has ended")
	case enums.EventRequestCreated:
		return c.notifyOwner(ctx, event,
			"A user requested to join your company")
	default:
		c.logg.Warn(ctx, fmt.Sprintf("skipping unknown event type %q", event.Type))
		return nil
	}
}

// fanOutQuizCreated notifies every active member about the new quiz. One
// failed insert does not stop the rest; errors are aggregated.
func (c *Consumer) fanOutQuizCreated(ctx context.Context, event events.Event) error {
	userIDs, err := c.members.ListActiveUserIDs(ctx, event.CompanyID)
	if err != nil {
		return fmt.Errorf("list company members: %w", err)
	}

	body := fmt.Sprintf("New quiz %q is available in your company", event.QuizName)
	var errs error
	delivered := 0
	for _, userID := range userIDs {
		if err := c.notify(ctx, userID, event, body); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("notify user %s: %w", userID, err))
			continue
		}
		delivered++
	}
	ctx = c.logg.WithCompanyID(ctx, event.CompanyID.String())
	ctx = c.logg.WithField(ctx, "delivered", delivered)
	c.logg.Info(ctx, "quiz notifications fanned out")
	return errs
}

func (c *Consumer) notifyOwner(ctx context.Context, event events.Event, body string) error {
	company, err := c.companies.FindByID(ctx, event.CompanyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The company vanished between publish and delivery; nothing to do.
			return nil
		}
		return fmt.Errorf("load company: %w", err)
	}
	return c.notify(ctx, company.OwnerID, event, body)
}

func (c *Consumer) notify(ctx context.Context, userID uuid.UUID, event events.Event, body string) error {
	if userID == uuid.Nil {
		return nil
	}
	return c.notifications.Create(ctx, &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		CompanyID: event.CompanyID,
		Kind:      string(event.Type),
		Body:      body,
	})
}
