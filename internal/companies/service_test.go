package companies

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	apperrors "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/errors"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

func setupCompaniesDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:companies_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `CREATE TABLE IF NOT EXISTS companies (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  visibility INTEGER NOT NULL DEFAULT 1,
  owner_id TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

func newCompaniesService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "companies-test", Output: io.Discard})
	svc, err := NewService(conn, logg)
	require.NoError(t, err)
	return svc
}

func requireCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := apperrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func TestCreateCompany(t *testing.T) {
	conn := setupCompaniesDB(t)
	svc := newCompaniesService(t, conn)
	ctx := context.Background()
	owner := uuid.New()

	company, err := svc.Create(ctx, owner, CreateInput{Name: "Acme", Visibility: true})
	require.NoError(t, err)
	require.Equal(t, owner, company.OwnerID)
	require.True(t, company.IsActive)

	_, err = svc.Create(ctx, owner, CreateInput{Name: "  "})
	requireCode(t, err, apperrors.CodeValidation)

	// Active names are unique.
	_, err = svc.Create(ctx, uuid.New(), CreateInput{Name: "Acme"})
	requireCode(t, err, apperrors.CodeConflict)

	// A deactivated company releases its name.
	require.NoError(t, svc.Delete(ctx, company.ID, owner))
	_, err = svc.Create(ctx, uuid.New(), CreateInput{Name: "Acme"})
	require.NoError(t, err)
}

func TestGetByIDVisibility(t *testing.T) {
	conn := setupCompaniesDB(t)
	svc := newCompaniesService(t, conn)
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	hidden, err := svc.Create(ctx, owner, CreateInput{Name: "Hidden Co", Visibility: false})
	require.NoError(t, err)

	// The owner sees their hidden company; nobody else does.
	got, err := svc.GetByID(ctx, hidden.ID, owner)
	require.NoError(t, err)
	require.Equal(t, hidden.ID, got.ID)

	_, err = svc.GetByID(ctx, hidden.ID, stranger)
	requireCode(t, err, apperrors.CodeNotFound)

	_, err = svc.GetByID(ctx, uuid.New(), stranger)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestListVisibleAndOwn(t *testing.T) {
	conn := setupCompaniesDB(t)
	svc := newCompaniesService(t, conn)
	ctx := context.Background()
	owner := uuid.New()
	other := uuid.New()

	_, err := svc.Create(ctx, owner, CreateInput{Name: "Public A", Visibility: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, owner, CreateInput{Name: "Hidden B", Visibility: false})
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, CreateInput{Name: "Public C", Visibility: true})
	require.NoError(t, err)

	visible, err := svc.ListVisible(ctx, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, visible.Items, 2)
	require.EqualValues(t, 2, visible.Page.Total)

	// Own listing includes hidden companies.
	own, err := svc.ListOwn(ctx, owner, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, own.Items, 2)
	for _, c := range own.Items {
		require.Equal(t, owner, c.OwnerID)
	}
}

func TestUpdateCompanyOwnerOnly(t *testing.T) {
	conn := setupCompaniesDB(t)
	svc := newCompaniesService(t, conn)
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	company, err := svc.Create(ctx, owner, CreateInput{Name: "Original", Visibility: true})
	require.NoError(t, err)

	name := "Renamed"
	_, err = svc.Update(ctx, company.ID, stranger, UpdateInput{Name: &name})
	requireCode(t, err, apperrors.CodeForbidden)

	updated, err := svc.Update(ctx, company.ID, owner, UpdateInput{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)

	_, err = svc.Update(ctx, company.ID, owner, UpdateInput{})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestSetVisibility(t *testing.T) {
	conn := setupCompaniesDB(t)
	svc := newCompaniesService(t, conn)
	ctx := context.Background()
	owner := uuid.New()

	company, err := svc.Create(ctx, owner, CreateInput{Name: "Toggle Co", Visibility: true})
	require.NoError(t, err)

	hidden, err := svc.SetVisibility(ctx, company.ID, owner, false)
	require.NoError(t, err)
	require.False(t, hidden.Visibility)

	_, err = svc.SetVisibility(ctx, company.ID, uuid.New(), true)
	requireCode(t, err, apperrors.CodeForbidden)

	// Hidden companies drop out of the public listing.
	visible, err := svc.ListVisible(ctx, pagination.Params{})
	require.NoError(t, err)
	require.Empty(t, visible.Items)
}

func TestDeleteCompany(t *testing.T) {
	conn := setupCompaniesDB(t)
	svc := newCompaniesService(t, conn)
	ctx := context.Background()
	owner := uuid.New()

	company, err := svc.Create(ctx, owner, CreateInput{Name: "Doomed Co", Visibility: true})
	require.NoError(t, err)

	require.Error(t, svc.Delete(ctx, company.ID, uuid.New()))
	require.NoError(t, svc.Delete(ctx, company.ID, owner))

	// Gone for everyone, including the owner.
	_, err = svc.GetByID(ctx, company.ID, owner)
	requireCode(t, err, apperrors.CodeNotFound)
	err = svc.Delete(ctx, company.ID, owner)
	requireCode(t, err, apperrors.CodeNotFound)
}
