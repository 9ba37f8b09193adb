package membership

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/events"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/enums"
	apperrors "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/errors"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/metrics"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

type capturingPublisher struct {
	published []events.Event
}

func (c *capturingPublisher) Publish(ctx context.Context, event events.Event) error {
	c.published = append(c.published, event)
	return nil
}

func newTestService(t *testing.T, conn *gorm.DB, pub eventPublisher) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "membership-test", Output: io.Discard})
	svc, err := NewService(conn, logg, metrics.NewWorkflowMetrics(nil), pub)
	require.NoError(t, err)
	return svc
}

func requireCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := apperrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code(), "unexpected code for %v", err)
}

func TestInviteLifecycle(t *testing.T) {
	conn := setupMembershipDB(t)
	pub := &capturingPublisher{}
	svc := newTestService(t, conn, pub)
	ctx := context.Background()

	owner := seedUser(t, conn)
	invitee := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	invite, err := svc.CreateInvite(ctx, company.ID, invitee.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, enums.RequestStatusPending, invite.Status)
	require.True(t, invite.IsActive)

	// A second pending invite for the same pair is refused.
	_, err = svc.CreateInvite(ctx, company.ID, invitee.ID, owner.ID)
	requireCode(t, err, apperrors.CodeConflict)

	member, err := svc.AcceptInvite(ctx, invite.ID, invitee.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CompanyRoleMember, member.Role)
	require.True(t, member.IsActive)

	var stored models.CompanyInvite
	require.NoError(t, conn.First(&stored, "id = ?", invite.ID).Error)
	require.Equal(t, enums.RequestStatusAccepted, stored.Status)

	// Terminal invitations cannot be re-acted upon.
	_, err = svc.AcceptInvite(ctx, invite.ID, invitee.ID)
	requireCode(t, err, apperrors.CodeNotFound)
	_, err = svc.RejectInvite(ctx, invite.ID, invitee.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	require.Len(t, pub.published, 2)
	require.Equal(t, enums.EventInviteCreated, pub.published[0].Type)
	require.Equal(t, enums.EventMemberJoined, pub.published[1].Type)
}

func TestCreateInviteAuthorization(t *testing.T) {
	conn := setupMembershipDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	owner := seedUser(t, conn)
	invitee := seedUser(t, conn)
	outsider := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	// Neither owner nor admin.
	_, err := svc.CreateInvite(ctx, company.ID, invitee.ID, outsider.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	// The company owner can never be invited to their own company.
	_, err = svc.CreateInvite(ctx, company.ID, owner.ID, owner.ID)
	requireCode(t, err, apperrors.CodeValidation)

	// Admins may invite.
	invite, err := svc.CreateInvite(ctx, company.ID, invitee.ID, owner.ID)
	require.NoError(t, err)
	_, err = svc.AcceptInvite(ctx, invite.ID, invitee.ID)
	require.NoError(t, err)
	_, err = svc.AppointAdmin(ctx, company.ID, invitee.ID, owner.ID)
	require.NoError(t, err)

	second := seedUser(t, conn)
	_, err = svc.CreateInvite(ctx, company.ID, second.ID, invitee.ID)
	require.NoError(t, err)

	// Existing members cannot be invited again.
	_, err = svc.CreateInvite(ctx, company.ID, invitee.ID, owner.ID)
	requireCode(t, err, apperrors.CodeConflict)
}

func TestAcceptInviteOnlyByTarget(t *testing.T) {
	conn := setupMembershipDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	owner := seedUser(t, conn)
	invitee := seedUser(t, conn)
	other := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	invite, err := svc.CreateInvite(ctx, company.ID, invitee.ID, owner.ID)
	require.NoError(t, err)

	_, err = svc.AcceptInvite(ctx, invite.ID, other.ID)
	requireCode(t, err, apperrors.CodeForbidden)
	_, err = svc.RejectInvite(ctx, invite.ID, other.ID)
	requireCode(t, err, apperrors.CodeForbidden)
}

func TestWithdrawInviteKeepsStatusPending(t *testing.T) {
	conn := setupMembershipDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	owner := seedUser(t, conn)
	invitee := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	invite, err := svc.CreateInvite(ctx, company.ID, invitee.ID, owner.ID)
	require.NoError(t, err)

	withdrawn, err := svc.WithdrawInvite(ctx, invite.ID, owner.ID)
	require.NoError(t, err)
	require.False(t, withdrawn.IsActive)
	require.Equal(t, enums.RequestStatusPending, withdrawn.Status)

	// A withdrawn invite is dead for the invitee.
	_, err = svc.AcceptInvite(ctx, invite.ID, invitee.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	// Withdrawal frees the uniqueness slot; a fresh invite is allowed.
	_, err = svc.CreateInvite(ctx, company.ID, invitee.ID, owner.ID)
	require.NoError(t, err)
}

func TestJoinRequestLifecycle(t *testing.T) {
	conn := setupMembershipDB(t)
	pub := &capturingPublisher{}
	svc := newTestService(t, conn, pub)
	ctx := context.Background()

	owner := seedUser(t, conn)
	requester := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	request, err := svc.CreateJoinRequest(ctx, company.ID, requester.ID)
	require.NoError(t, err)
	require.Equal(t, enums.RequestStatusPending, request.Status)

	// Duplicate pending request is refused.
	_, err = svc.CreateJoinRequest(ctx, company.ID, requester.ID)
	requireCode(t, err, apperrors.CodeConflict)

	member, err := svc.ConfirmJoinRequest(ctx, request.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CompanyRoleMember, member.Role)

	var stored models.JoinRequest
	require.NoError(t, conn.First(&stored, "id = ?", request.ID).Error)
	require.Equal(t, enums.RequestStatusAccepted, stored.Status)

	// Second confirm must fail; exactly one membership row exists.
	_, err = svc.ConfirmJoinRequest(ctx, request.ID, owner.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	var count int64
	require.NoError(t, conn.Model(&models.CompanyMember{}).
		Where("company_id = ? AND user_id = ? AND is_active", company.ID, requester.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestJoinRequestGuards(t *testing.T) {
	conn := setupMembershipDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	owner := seedUser(t, conn)
	requester := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	// The owner cannot request to join their own company.
	_, err := svc.CreateJoinRequest(ctx, company.ID, owner.ID)
	requireCode(t, err, apperrors.CodeValidation)

	// Unknown company.
	_, err = svc.CreateJoinRequest(ctx, uuid.New(), requester.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	request, err := svc.CreateJoinRequest(ctx, company.ID, requester.ID)
	require.NoError(t, err)

	// Only the company owner may decide.
	_, err = svc.ConfirmJoinRequest(ctx, request.ID, requester.ID)
	requireCode(t, err, apperrors.CodeForbidden)
	_, err = svc.DenyJoinRequest(ctx, request.ID, requester.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	denied, err := svc.DenyJoinRequest(ctx, request.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, enums.RequestStatusDenied, denied.Status)

	// Denial creates no membership.
	var count int64
	require.NoError(t, conn.Model(&models.CompanyMember{}).
		Where("company_id = ? AND user_id = ?", company.ID, requester.ID).
		Count(&count).Error)
	require.EqualValues(t, 0, count)

	// A denied request frees the uniqueness slot.
	_, err = svc.CreateJoinRequest(ctx, company.ID, requester.ID)
	require.NoError(t, err)
}

func TestCancelJoinRequest(t *testing.T) {
	conn := setupMembershipDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	owner := seedUser(t, conn)
	requester := seedUser(t, conn)
	other := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	request, err := svc.CreateJoinRequest(ctx, company.ID, requester.ID)
	require.NoError(t, err)

	_, err = svc.CancelJoinRequest(ctx, request.ID, other.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	cancelled, err := svc.CancelJoinRequest(ctx, request.ID, requester.ID)
	require.NoError(t, err)
	require.False(t, cancelled.IsActive)
	require.Equal(t, enums.RequestStatusPending, cancelled.Status)

	// Cancelled requests cannot be confirmed.
	_, err = svc.ConfirmJoinRequest(ctx, request.ID, owner.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	// Cancellation frees the uniqueness slot.
	_, err = svc.CreateJoinRequest(ctx, company.ID, requester.ID)
	require.NoError(t, err)
}

func TestRemoveMemberPolicy(t *testing.T) {
	conn := setupMembershipDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	owner := seedUser(t, conn)
	member := seedUser(t, conn)
	admin := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	for _, u := range []uuid.UUID{member.ID, admin.ID} {
		invite, err := svc.CreateInvite(ctx, company.ID, u, owner.ID)
		require.NoError(t, err)
		_, err = svc.AcceptInvite(ctx, invite.ID, u)
		require.NoError(t, err)
	}
	_, err := svc.AppointAdmin(ctx, company.ID, admin.ID, owner.ID)
	require.NoError(t, err)

	// Membership mutations are owner-only; admins cannot remove anyone,
	// including the owner.
	_, err = svc.RemoveMember(ctx, company.ID, member.ID, admin.ID)
	requireCode(t, err, apperrors.CodeForbidden)
	_, err = svc.RemoveMember(ctx, company.ID, owner.ID, admin.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	// The owner holds no membership row, so removing them is a not-found.
	_, err = svc.RemoveMember(ctx, company.ID, owner.ID, owner.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	removed, err := svc.RemoveMember(ctx, company.ID, member.ID, owner.ID)
	require.NoError(t, err)
	require.False(t, removed.IsActive)

	// Already removed.
	_, err = svc.RemoveMember(ctx, company.ID, member.ID, owner.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestLeaveCompanyTwiceFails(t *testing.T) {
	conn := setupMembershipDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	owner := seedUser(t, conn)
	member := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	invite, err := svc.CreateInvite(ctx, company.ID, member.ID, owner.ID)
	require.NoError(t, err)
	_, err = svc.AcceptInvite(ctx, invite.ID, member.ID)
	require.NoError(t, err)

	left, err := svc.LeaveCompany(ctx, company.ID, member.ID)
	require.NoError(t, err)
	require.False(t, left.IsActive)

	_, err = svc.LeaveCompany(ctx, company.ID, member.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestRejoinReactivatesMembership(t *testing.T) {
	conn := setupMembershipDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	owner := seedUser(t, conn)
	member := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	invite, err := svc.CreateInvite(ctx, company.ID, member.ID, owner.ID)
	require.NoError(t, err)
	_, err = svc.AcceptInvite(ctx, invite.ID, member.ID)
	require.NoError(t, err)

	_, err = svc.LeaveCompany(ctx, company.ID, member.ID)
	require.NoError(t, err)

	invite, err = svc.CreateInvite(ctx, company.ID, member.ID, owner.ID)
	require.NoError(t, err)
	rejoined, err := svc.AcceptInvite(ctx, invite.ID, member.ID)
	require.NoError(t, err)
	require.True(t, rejoined.IsActive)
	require.Equal(t, enums.CompanyRoleMember, rejoined.Role)

	// The old row was revived, not duplicated.
	var count int64
	require.NoError(t, conn.Model(&models.CompanyMember{}).
		Where("company_id = ? AND user_id = ?", company.ID, member.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestAppointAdminRequiresActiveMember(t *testing.T) {
	conn := setupMembershipDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	owner := seedUser(t, conn)
	stranger := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	_, err := svc.AppointAdmin(ctx, company.ID, stranger.ID, owner.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	invite, err := svc.CreateInvite(ctx, company.ID, stranger.ID, owner.ID)
	require.NoError(t, err)
	_, err = svc.AcceptInvite(ctx, invite.ID, stranger.ID)
	require.NoError(t, err)

	// Only the owner can promote.
	_, err = svc.AppointAdmin(ctx, company.ID, stranger.ID, stranger.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	promoted, err := svc.AppointAdmin(ctx, company.ID, stranger.ID, owner.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CompanyRoleAdmin, promoted.Role)
}

func TestConfirmJoinRequestCompoundMutationRollsBack(t *testing.T) {
	conn := setupMembershipDB(t)
	ctx := context.Background()

	owner := seedUser(t, conn)
	requester := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	requests := NewJoinRequestRepository(conn)
	members := NewMemberRepository(conn)

	request, err := requests.Create(ctx, company.ID, requester.ID)
	require.NoError(t, err)

	// Fail after both halves of the compound mutation; neither may survive.
	injected := errors.New("injected failure")
	err = conn.Transaction(func(tx *gorm.DB) error {
		rows, err := requests.WithTx(tx).Resolve(ctx, request.ID, enums.RequestStatusAccepted)
		require.NoError(t, err)
		require.EqualValues(t, 1, rows)

		_, err = members.WithTx(tx).CreateOrReactivate(ctx, company.ID, requester.ID, enums.CompanyRoleMember)
		require.NoError(t, err)

		return injected
	})
	require.ErrorIs(t, err, injected)

	var stored models.JoinRequest
	require.NoError(t, conn.First(&stored, "id = ?", request.ID).Error)
	require.Equal(t, enums.RequestStatusPending, stored.Status)

	has, err := members.HasActive(ctx, company.ID, requester.ID)
	require.NoError(t, err)
	require.False(t, has)
}

func TestListMembersAuthorization(t *testing.T) {
	conn := setupMembershipDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	owner := seedUser(t, conn)
	member := seedUser(t, conn)
	outsider := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	invite, err := svc.CreateInvite(ctx, company.ID, member.ID, owner.ID)
	require.NoError(t, err)
	_, err = svc.AcceptInvite(ctx, invite.ID, member.ID)
	require.NoError(t, err)

	_, err = svc.ListMembers(ctx, company.ID, outsider.ID, pagination.Params{})
	requireCode(t, err, apperrors.CodeForbidden)

	result, err := svc.ListMembers(ctx, company.ID, owner.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Equal(t, member.ID, result.Items[0].UserID)
	require.Equal(t, member.Email, result.Items[0].Email)
	require.EqualValues(t, 1, result.Page.Total)
}

func TestPendingListings(t *testing.T) {
	conn := setupMembershipDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	owner := seedUser(t, conn)
	userA := seedUser(t, conn)
	userB := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	_, err := svc.CreateInvite(ctx, company.ID, userA.ID, owner.ID)
	require.NoError(t, err)
	_, err = svc.CreateJoinRequest(ctx, company.ID, userB.ID)
	require.NoError(t, err)

	invites, err := svc.ListCompanyInvites(ctx, company.ID, owner.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, invites.Items, 1)
	require.Equal(t, userA.ID, invites.Items[0].UserID)

	reqs, err := svc.ListCompanyJoinRequests(ctx, company.ID, owner.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, reqs.Items, 1)
	require.Equal(t, userB.ID, reqs.Items[0].UserID)

	mine, err := svc.ListUserInvites(ctx, userA.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)

	theirs, err := svc.ListUserJoinRequests(ctx, userB.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, theirs.Items, 1)
}

func TestInactiveUserAndCompanyGuards(t *testing.T) {
	conn := setupMembershipDB(t)
	svc := newTestService(t, conn, nil)
	ctx := context.Background()

	owner := seedUser(t, conn)
	invitee := seedUser(t, conn)
	company := seedCompany(t, conn, owner.ID)

	invite, err := svc.CreateInvite(ctx, company.ID, invitee.ID, owner.ID)
	require.NoError(t, err)

	// Soft-deleted invitee cannot accept.
	require.NoError(t, conn.Model(&models.User{}).Where("id = ?", invitee.ID).
		Update("is_active", false).Error)
	_, err = svc.AcceptInvite(ctx, invite.ID, invitee.ID)
	requireCode(t, err, apperrors.CodeNotFound)

	require.NoError(t, conn.Model(&models.User{}).Where("id = ?", invitee.ID).
		Update("is_active", true).Error)

	// Soft-deleted company is invisible to the workflow.
	require.NoError(t, conn.Model(&models.Company{}).Where("id = ?", company.ID).
		Update("is_active", false).Error)
	_, err = svc.AcceptInvite(ctx, invite.ID, invitee.ID)
	requireCode(t, err, apperrors.CodeNotFound)
}
