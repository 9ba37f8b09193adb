package notifications

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/events"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/membership"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/enums"
	apperrors "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/errors"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

func setupNotificationsDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:notifications_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE IF NOT EXISTS companies (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  description TEXT,
  visibility INTEGER NOT NULL DEFAULT 1,
  owner_id TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS company_members (
  id TEXT PRIMARY KEY,
  company_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'member',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  company_id TEXT NOT NULL,
  kind TEXT NOT NULL,
  body TEXT NOT NULL,
  read_at DATETIME,
  created_at DATETIME
);`,
	}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "notifications-test", Output: io.Discard})
}

func requireCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := apperrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func TestListAndMarkRead(t *testing.T) {
	conn := setupNotificationsDB(t)
	svc, err := NewService(conn, testLogger())
	require.NoError(t, err)
	repo := NewRepository(conn)
	ctx := context.Background()

	userA := uuid.New()
	userB := uuid.New()
	companyID := uuid.New()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{
			UserID:    userA,
			CompanyID: companyID,
			Kind:      string(enums.EventQuizCreated),
			Body:      fmt.Sprintf("notice %d", i),
		}))
	}
	require.NoError(t, repo.Create(ctx, &models.Notification{
		UserID:    userB,
		CompanyID: companyID,
		Kind:      string(enums.EventQuizCreated),
		Body:      "other user's notice",
	}))

	result, err := svc.ListOwn(ctx, userA, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	require.EqualValues(t, 3, result.Page.Total)
	for _, n := range result.Items {
		require.Nil(t, n.ReadAt)
	}

	// Marking one read is scoped to the owner.
	target := result.Items[0].ID
	err = svc.MarkRead(ctx, target, userB)
	requireCode(t, err, apperrors.CodeNotFound)
	require.NoError(t, svc.MarkRead(ctx, target, userA))
	// Already read.
	err = svc.MarkRead(ctx, target, userA)
	requireCode(t, err, apperrors.CodeNotFound)

	marked, err := svc.MarkAllRead(ctx, userA)
	require.NoError(t, err)
	require.EqualValues(t, 2, marked)

	result, err = svc.ListOwn(ctx, userA, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	for _, n := range result.Items {
		require.NotNil(t, n.ReadAt)
	}
}

func TestConsumerFansOutQuizCreated(t *testing.T) {
	conn := setupNotificationsDB(t)
	consumer, err := NewConsumer(conn, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	owner := uuid.New()
	company := &models.Company{
		ID:         uuid.New(),
		Name:       fmt.Sprintf("Company %s", uuid.NewString()),
		Visibility: true,
		OwnerID:    owner,
		IsActive:   true,
	}
	require.NoError(t, conn.Create(company).Error)

	members := membership.NewMemberRepository(conn)
	memberIDs := make([]uuid.UUID, 0, 3)
	for i := 0; i < 3; i++ {
		id := uuid.New()
		memberIDs = append(memberIDs, id)
		_, err := members.CreateOrReactivate(ctx, company.ID, id, enums.CompanyRoleMember)
		require.NoError(t, err)
	}
	// Former members get nothing.
	_, err = members.Deactivate(ctx, company.ID, memberIDs[2])
	require.NoError(t, err)

	event := events.New(enums.EventQuizCreated, company.ID)
	event.QuizID = uuid.New()
	event.QuizName = "Safety basics"
	require.NoError(t, consumer.Handle(ctx, event))

	var count int64
	require.NoError(t, conn.Model(&models.Notification{}).
		Where("company_id = ?", company.ID).
		Count(&count).Error)
	require.EqualValues(t, 2, count)

	var sample models.Notification
	require.NoError(t, conn.First(&sample, "user_id = ?", memberIDs[0]).Error)
	require.Equal(t, string(enums.EventQuizCreated), sample.Kind)
	require.Contains(t, sample.Body, "Safety basics")
}

func TestConsumerMembershipEvents(t *testing.T) {
	conn := setupNotificationsDB(t)
	consumer, err := NewConsumer(conn, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	owner := uuid.New()
	company := &models.Company{
		ID:         uuid.New(),
		Name:       fmt.Sprintf("Company %s", uuid.NewString()),
		Visibility: true,
		OwnerID:    owner,
		IsActive:   true,
	}
	require.NoError(t, conn.Create(company).Error)
	member := uuid.New()

	for _, eventType := range []enums.EventType{
		enums.EventInviteCreated,
		enums.EventMemberJoined,
		enums.EventMemberRemoved,
	} {
		event := events.New(eventType, company.ID)
		event.UserID = member
		require.NoError(t, consumer.Handle(ctx, event))
	}

	// Join requests notify the company owner instead.
	request := events.New(enums.EventRequestCreated, company.ID)
	request.UserID = member
	require.NoError(t, consumer.Handle(ctx, request))

	var memberCount, ownerCount int64
	require.NoError(t, conn.Model(&models.Notification{}).
		Where("user_id = ?", member).Count(&memberCount).Error)
	require.NoError(t, conn.Model(&models.Notification{}).
		Where("user_id = ?", owner).Count(&ownerCount).Error)
	require.EqualValues(t, 3, memberCount)
	require.EqualValues(t, 1, ownerCount)

	// Unknown types are skipped without error.
	require.NoError(t, consumer.Handle(ctx, events.Event{
		ID:        uuid.New(),
		Type:      enums.EventType("mystery"),
		CompanyID: company.ID,
	}))
}
