package membership

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/enums"
	apperrors "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/errors"
)

func TestAuthorizationPredicates(t *testing.T) {
	conn := setupMembershipDB(t)
	ctx := context.Background()

	owner := seedUser(t, conn)
	admin := seedUser(t, conn)
	member := seedUser(t, conn)
	outsider := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	members := NewMemberRepository(conn)
	_, err := members.CreateOrReactivate(ctx, company.ID, admin.ID, enums.CompanyRoleAdmin)
	require.NoError(t, err)
	_, err = members.CreateOrReactivate(ctx, company.ID, member.ID, enums.CompanyRoleMember)
	require.NoError(t, err)

	cases := []struct {
		name      string
		predicate func() (bool, error)
		want      bool
	}{
		{"owner is owner", func() (bool, error) { return IsOwner(ctx, conn, owner.ID, company.ID) }, true},
		{"admin is not owner", func() (bool, error) { return IsOwner(ctx, conn, admin.ID, company.ID) }, false},
		{"owner is admin-or-owner", func() (bool, error) { return IsAdminOrOwner(ctx, conn, owner.ID, company.ID) }, true},
		{"admin is admin-or-owner", func() (bool, error) { return IsAdminOrOwner(ctx, conn, admin.ID, company.ID) }, true},
		{"member is not admin-or-owner", func() (bool, error) { return IsAdminOrOwner(ctx, conn, member.ID, company.ID) }, false},
		{"member is active member", func() (bool, error) { return IsActiveMember(ctx, conn, member.ID, company.ID) }, true},
		{"outsider is not active member", func() (bool, error) { return IsActiveMember(ctx, conn, outsider.ID, company.ID) }, false},
		{"owner holds no membership row", func() (bool, error) { return IsActiveMember(ctx, conn, owner.ID, company.ID) }, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.predicate()
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestPredicatesRespectSoftDeletes(t *testing.T) {
	conn := setupMembershipDB(t)
	ctx := context.Background()

	owner := seedUser(t, conn)
	user := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	ok, err := UserExistsAndActive(ctx, conn, user.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = CompanyExistsAndActive(ctx, conn, company.ID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, conn.Model(&models.User{}).Where("id = ?", user.ID).
		Update("is_active", false).Error)
	require.NoError(t, conn.Model(&models.Company{}).Where("id = ?", company.ID).
		Update("is_active", false).Error)

	ok, err = UserExistsAndActive(ctx, conn, user.ID)
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = CompanyExistsAndActive(ctx, conn, company.ID)
	require.NoError(t, err)
	require.False(t, ok)

	// A deactivated company no longer grants owner rights.
	ok, err = IsOwner(ctx, conn, owner.ID, company.ID)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = UserExistsAndActive(ctx, conn, uuid.New())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasPendingPredicates(t *testing.T) {
	conn := setupMembershipDB(t)
	ctx := context.Background()

	owner := seedUser(t, conn)
	user := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	invites := NewInviteRepository(conn)
	invite, err := invites.Create(ctx, company.ID, user.ID)
	require.NoError(t, err)

	ok, err := HasPendingInvite(ctx, conn, user.ID, company.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = HasPendingRequest(ctx, conn, user.ID, company.ID)
	require.NoError(t, err)
	require.False(t, ok)

	// A withdrawn invite is no longer pending for uniqueness purposes.
	_, err = invites.Deactivate(ctx, invite.ID)
	require.NoError(t, err)
	ok, err = HasPendingInvite(ctx, conn, user.ID, company.ID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRunGuardsFirstFailureWins(t *testing.T) {
	conn := setupMembershipDB(t)
	ctx := context.Background()

	owner := seedUser(t, conn)
	user := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	name, gerr := runGuards(ctx, conn,
		requireActiveUser(user.ID),
		requireActiveCompany(company.ID),
	)
	require.Nil(t, gerr)
	require.Empty(t, name)

	// The failing guard's name surfaces for metrics labelling; later guards
	// never run.
	name, gerr = runGuards(ctx, conn,
		requireOwner(user.ID, company.ID),
		requireActiveUser(uuid.New()),
	)
	require.NotNil(t, gerr)
	require.Equal(t, "not_owner", name)
	require.Equal(t, apperrors.CodeForbidden, gerr.Code())
}

func TestRequirePendingGuard(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name     string
		status   enums.RequestStatus
		isActive bool
		wantErr  bool
	}{
		{"live pending passes", enums.RequestStatusPending, true, false},
		{"withdrawn pending fails", enums.RequestStatusPending, false, true},
		{"accepted fails", enums.RequestStatusAccepted, true, true},
		{"denied fails", enums.RequestStatusDenied, true, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := requirePending(tc.status, tc.isActive)
			err := g.check(ctx, nil)
			if tc.wantErr {
				require.NotNil(t, err)
				require.Equal(t, apperrors.CodeNotFound, err.Code())
			} else {
				require.Nil(t, err)
			}
		})
	}
}
