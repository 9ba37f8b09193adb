package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/events"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/db/models"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/enums"
	apperrors "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/errors"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/metrics"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

type eventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// Service is the workflow engine for company membership. It owns every
// mutation of memberships, invitations, and join requests; nothing else
// writes those tables. Each operation evaluates its guard chain and performs
// its writes inside one transaction, so a passing precondition holds until
// the mutation commits.
type Service interface {
	CreateInvite(ctx context.Context, companyID, inviteeID, actorID uuid.UUID) (*InviteDTO, error)
	WithdrawInvite(ctx context.Context, inviteID, actorID uuid.UUID) (*InviteDTO, error)
	AcceptInvite(ctx context.Context, inviteID, actorID uuid.UUID) (*MemberDTO, error)
	RejectInvite(ctx context.Context, inviteID, actorID uuid.UUID) (*InviteDTO, error)

	CreateJoinRequest(ctx context.Context, companyID, actorID uuid.UUID) (*RequestDTO, error)
	CancelJoinRequest(ctx context.Context, requestID, actorID uuid.UUID) (*RequestDTO, error)
	ConfirmJoinRequest(ctx context.Context, requestID, actorID uuid.UUID) (*MemberDTO, error)
	DenyJoinRequest(ctx context.Context, requestID, actorID uuid.UUID) (*RequestDTO, error)

	RemoveMember(ctx context.Context, companyID, userID, actorID uuid.UUID) (*MemberDTO, error)
	AppointAdmin(ctx context.Context, companyID, userID, actorID uuid.UUID) (*MemberDTO, error)
	LeaveCompany(ctx context.Context, companyID, actorID uuid.UUID) (*MemberDTO, error)

	ListMembers(ctx context.Context, companyID, actorID uuid.UUID, params pagination.Params) (*MemberListResult, error)
	ListCompanyInvites(ctx context.Context, companyID, actorID uuid.UUID, params pagination.Params) (*InviteListResult, error)
	ListCompanyJoinRequests(ctx context.Context, companyID, actorID uuid.UUID, params pagination.Params) (*RequestListResult, error)
	ListUserInvites(ctx context.Context, actorID uuid.UUID, params pagination.Params) (*InviteListResult, error)
	ListUserJoinRequests(ctx context.Context, actorID uuid.UUID, params pagination.Params) (*RequestListResult, error)
}

type service struct {
	db       *gorm.DB
	members  *MemberRepository
	invites  *InviteRepository
	requests *JoinRequestRepository
	logg     *logger.Logger
	workflow *metrics.WorkflowMetrics
	events   eventPublisher
}

// NewService builds the membership workflow service. The publisher may be nil;
// metrics may be unregistered (nil-safe).
func NewService(db *gorm.DB, logg *logger.Logger, workflow *metrics.WorkflowMetrics, publisher eventPublisher) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db connection required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		db:       db,
		members:  NewMemberRepository(db),
		invites:  NewInviteRepository(db),
		requests: NewJoinRequestRepository(db),
		logg:     logg,
		workflow: workflow,
		events:   publisher,
	}, nil
}

func (s *service) CreateInvite(ctx context.Context, companyID, inviteeID, actorID uuid.UUID) (*InviteDTO, error) {
	const op = "create_invite"
	started := time.Now()
	if companyID == uuid.Nil || inviteeID == uuid.Nil || actorID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "company and user identifiers are required")
	}

	var invite *models.CompanyInvite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, gerr := runGuards(ctx, tx,
			requireAdminOrOwner(actorID, companyID),
			requireActiveUser(inviteeID),
			requireNotOwner(inviteeID, companyID),
			requireNotMember(inviteeID, companyID),
			requireNoPendingInvite(inviteeID, companyID),
		)
		if gerr != nil {
			s.workflow.IncRejected(op, name)
			return gerr
		}

		created, err := s.invites.WithTx(tx).Create(ctx, companyID, inviteeID)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "create invitation")
		}
		invite = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, op, started, companyID)
	s.publish(ctx, enums.EventInviteCreated, companyID, inviteeID)
	return ToInviteDTO(invite), nil
}

func (s *service) WithdrawInvite(ctx context.Context, inviteID, actorID uuid.UUID) (*InviteDTO, error) {
	const op = "withdraw_invite"
	started := time.Now()

	var invite *models.CompanyInvite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.invites.WithTx(tx).FindByID(ctx, inviteID)
		if err != nil {
			return lookupError(err, "invitation")
		}

		name, gerr := runGuards(ctx, tx,
			requireOwner(actorID, found.CompanyID),
			requirePending(found.Status, found.IsActive),
		)
		if gerr != nil {
			s.workflow.IncRejected(op, name)
			return gerr
		}

		rows, err := s.invites.WithTx(tx).Deactivate(ctx, found.ID)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "withdraw invitation")
		}
		if rows == 0 {
			s.workflow.IncRejected(op, "lost_race")
			return apperrors.New(apperrors.CodeNotFound, "invitation is no longer pending")
		}
		found.IsActive = false
		invite = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, op, started, invite.CompanyID)
	return ToInviteDTO(invite), nil
}

func (s *service) AcceptInvite(ctx context.Context, inviteID, actorID uuid.UUID) (*MemberDTO, error) {
	const op = "accept_invite"
	started := time.Now()

	var (
		invite *models.CompanyInvite
		member *models.CompanyMember
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.invites.WithTx(tx).FindByID(ctx, inviteID)
		if err != nil {
			return lookupError(err, "invitation")
		}

		name, gerr := runGuards(ctx, tx,
			requireInviteTarget(found, actorID),
			requirePending(found.Status, found.IsActive),
			requireActiveUser(found.UserID),
			requireActiveCompany(found.CompanyID),
			requireNotOwner(found.UserID, found.CompanyID),
			requireNotMember(found.UserID, found.CompanyID),
		)
		if gerr != nil {
			s.workflow.IncRejected(op, name)
			return gerr
		}

		rows, err := s.invites.WithTx(tx).Resolve(ctx, found.ID, enums.RequestStatusAccepted)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "accept invitation")
		}
		if rows == 0 {
			s.workflow.IncRejected(op, "lost_race")
			return apperrors.New(apperrors.CodeStateConflict, "invitation is no longer pending")
		}

		granted, err := s.members.WithTx(tx).CreateOrReactivate(ctx, found.CompanyID, found.UserID, enums.CompanyRoleMember)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "grant membership")
		}
		invite = found
		member = granted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, op, started, invite.CompanyID)
	s.publish(ctx, enums.EventMemberJoined, invite.CompanyID, invite.UserID)
	return ToMemberDTO(member), nil
}

func (s *service) RejectInvite(ctx context.Context, inviteID, actorID uuid.UUID) (*InviteDTO, error) {
	const op = "reject_invite"
	started := time.Now()

	var invite *models.CompanyInvite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.invites.WithTx(tx).FindByID(ctx, inviteID)
		if err != nil {
			return lookupError(err, "invitation")
		}

		name, gerr := runGuards(ctx, tx,
			requireInviteTarget(found, actorID),
			requirePending(found.Status, found.IsActive),
		)
		if gerr != nil {
			s.workflow.IncRejected(op, name)
			return gerr
		}

		rows, err := s.invites.WithTx(tx).Resolve(ctx, found.ID, enums.RequestStatusDenied)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "reject invitation")
		}
		if rows == 0 {
			s.workflow.IncRejected(op, "lost_race")
			return apperrors.New(apperrors.CodeStateConflict, "invitation is no longer pending")
		}
		found.Status = enums.RequestStatusDenied
		invite = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, op, started, invite.CompanyID)
	return ToInviteDTO(invite), nil
}

func (s *service) CreateJoinRequest(ctx context.Context, companyID, actorID uuid.UUID) (*RequestDTO, error) {
	const op = "create_join_request"
	started := time.Now()
	if companyID == uuid.Nil || actorID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "company and user identifiers are required")
	}

	var request *models.JoinRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, gerr := runGuards(ctx, tx,
			requireActiveUser(actorID),
			requireActiveCompany(companyID),
			requireNotOwner(actorID, companyID),
			requireNotMember(actorID, companyID),
			requireNoPendingRequest(actorID, companyID),
		)
		if gerr != nil {
			s.workflow.IncRejected(op, name)
			return gerr
		}

		created, err := s.requests.WithTx(tx).Create(ctx, companyID, actorID)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "create join request")
		}
		request = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, op, started, companyID)
	s.publish(ctx, enums.EventRequestCreated, companyID, actorID)
	return ToRequestDTO(request), nil
}

func (s *service) CancelJoinRequest(ctx context.Context, requestID, actorID uuid.UUID) (*RequestDTO, error) {
	const op = "cancel_join_request"
	started := time.Now()

	var request *models.JoinRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.requests.WithTx(tx).FindByID(ctx, requestID)
		if err != nil {
			return lookupError(err, "join request")
		}

		name, gerr := runGuards(ctx, tx,
			requireRequestAuthor(found, actorID),
			requirePending(found.Status, found.IsActive),
		)
		if gerr != nil {
			s.workflow.IncRejected(op, name)
			return gerr
		}

		rows, err := s.requests.WithTx(tx).Deactivate(ctx, found.ID)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "cancel join request")
		}
		if rows == 0 {
			s.workflow.IncRejected(op, "lost_race")
			return apperrors.New(apperrors.CodeNotFound, "join request is no longer pending")
		}
		found.IsActive = false
		request = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, op, started, request.CompanyID)
	return ToRequestDTO(request), nil
}

func (s *service) ConfirmJoinRequest(ctx context.Context, requestID, actorID uuid.UUID) (*MemberDTO, error) {
	const op = "confirm_join_request"
	started := time.Now()

	var (
		request *models.JoinRequest
		member  *models.CompanyMember
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.requests.WithTx(tx).FindByID(ctx, requestID)
		if err != nil {
			return lookupError(err, "join request")
		}

		name, gerr := runGuards(ctx, tx,
			requireOwner(actorID, found.CompanyID),
			requirePending(found.Status, found.IsActive),
			requireActiveUser(found.UserID),
			requireActiveCompany(found.CompanyID),
			requireNotMember(found.UserID, found.CompanyID),
		)
		if gerr != nil {
			s.workflow.IncRejected(op, name)
			return gerr
		}

		rows, err := s.requests.WithTx(tx).Resolve(ctx, found.ID, enums.RequestStatusAccepted)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "confirm join request")
		}
		if rows == 0 {
			s.workflow.IncRejected(op, "lost_race")
			return apperrors.New(apperrors.CodeStateConflict, "join request is no longer pending")
		}

		granted, err := s.members.WithTx(tx).CreateOrReactivate(ctx, found.CompanyID, found.UserID, enums.CompanyRoleMember)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "grant membership")
		}
		request = found
		member = granted
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, op, started, request.CompanyID)
	s.publish(ctx, enums.EventMemberJoined, request.CompanyID, request.UserID)
	return ToMemberDTO(member), nil
}

func (s *service) DenyJoinRequest(ctx context.Context, requestID, actorID uuid.UUID) (*RequestDTO, error) {
	const op = "deny_join_request"
	started := time.Now()

	var request *models.JoinRequest
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.requests.WithTx(tx).FindByID(ctx, requestID)
		if err != nil {
			return lookupError(err, "join request")
		}

		name, gerr := runGuards(ctx, tx,
			requireOwner(actorID, found.CompanyID),
			requirePending(found.Status, found.IsActive),
		)
		if gerr != nil {
			s.workflow.IncRejected(op, name)
			return gerr
		}

		rows, err := s.requests.WithTx(tx).Resolve(ctx, found.ID, enums.RequestStatusDenied)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "deny join request")
		}
		if rows == 0 {
			s.workflow.IncRejected(op, "lost_race")
			return apperrors.New(apperrors.CodeStateConflict, "join request is no longer pending")
		}
		found.Status = enums.RequestStatusDenied
		request = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, op, started, request.CompanyID)
	return ToRequestDTO(request), nil
}

func (s *service) RemoveMember(ctx context.Context, companyID, userID, actorID uuid.UUID) (*MemberDTO, error) {
	const op = "remove_member"
	started := time.Now()

	var member *models.CompanyMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, gerr := runGuards(ctx, tx,
			requireOwner(actorID, companyID),
			requireActiveUser(userID),
			requireMember(userID, companyID),
		)
		if gerr != nil {
			s.workflow.IncRejected(op, name)
			return gerr
		}

		found, err := s.members.WithTx(tx).GetActive(ctx, companyID, userID)
		if err != nil {
			return lookupError(err, "membership")
		}

		rows, err := s.members.WithTx(tx).Deactivate(ctx, companyID, userID)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "remove member")
		}
		if rows == 0 {
			s.workflow.IncRejected(op, "lost_race")
			return apperrors.New(apperrors.CodeNotFound, "no active membership")
		}
		found.IsActive = false
		member = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, op, started, companyID)
	s.publish(ctx, enums.EventMemberRemoved, companyID, userID)
	return ToMemberDTO(member), nil
}

func (s *service) AppointAdmin(ctx context.Context, companyID, userID, actorID uuid.UUID) (*MemberDTO, error) {
	const op = "appoint_admin"
	started := time.Now()

	var member *models.CompanyMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		name, gerr := runGuards(ctx, tx,
			requireOwner(actorID, companyID),
			requireActiveUser(userID),
			requireMember(userID, companyID),
		)
		if gerr != nil {
			s.workflow.IncRejected(op, name)
			return gerr
		}

		rows, err := s.members.WithTx(tx).UpdateRole(ctx, companyID, userID, enums.CompanyRoleAdmin)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "appoint admin")
		}
		if rows == 0 {
			s.workflow.IncRejected(op, "lost_race")
			return apperrors.New(apperrors.CodeNotFound, "no active membership")
		}

		found, err := s.members.WithTx(tx).GetActive(ctx, companyID, userID)
		if err != nil {
			return lookupError(err, "membership")
		}
		member = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, op, started, companyID)
	return ToMemberDTO(member), nil
}

func (s *service) LeaveCompany(ctx context.Context, companyID, actorID uuid.UUID) (*MemberDTO, error) {
	const op = "leave_company"
	started := time.Now()

	var member *models.CompanyMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := s.members.WithTx(tx).GetActive(ctx, companyID, actorID)
		if err != nil {
			return lookupError(err, "membership")
		}

		rows, err := s.members.WithTx(tx).Deactivate(ctx, companyID, actorID)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeDependency, err, "leave company")
		}
		if rows == 0 {
			s.workflow.IncRejected(op, "lost_race")
			return apperrors.New(apperrors.CodeNotFound, "no active membership")
		}
		found.IsActive = false
		member = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.finish(ctx, op, started, companyID)
	s.publish(ctx, enums.EventMemberRemoved, companyID, actorID)
	return ToMemberDTO(member), nil
}

func (s *service) ListMembers(ctx context.Context, companyID, actorID uuid.UUID, params pagination.Params) (*MemberListResult, error) {
	if err := s.authorizeAdminOrOwner(ctx, actorID, companyID); err != nil {
		return nil, err
	}
	items, total, err := s.members.ListActiveByCompany(ctx, companyID, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "list members")
	}
	return &MemberListResult{Items: items, Page: pagination.NewPage(params, total)}, nil
}

func (s *service) ListCompanyInvites(ctx context.Context, companyID, actorID uuid.UUID, params pagination.Params) (*InviteListResult, error) {
	if err := s.authorizeAdminOrOwner(ctx, actorID, companyID); err != nil {
		return nil, err
	}
	rows, total, err := s.invites.ListPendingByCompany(ctx, companyID, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "list company invitations")
	}
	return &InviteListResult{Items: toInviteDTOs(rows), Page: pagination.NewPage(params, total)}, nil
}

func (s *service) ListCompanyJoinRequests(ctx context.Context, companyID, actorID uuid.UUID, params pagination.Params) (*RequestListResult, error) {
	if err := s.authorizeAdminOrOwner(ctx, actorID, companyID); err != nil {
		return nil, err
	}
	rows, total, err := s.requests.ListPendingByCompany(ctx, companyID, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "list company join requests")
	}
	return &RequestListResult{Items: toRequestDTOs(rows), Page: pagination.NewPage(params, total)}, nil
}

func (s *service) ListUserInvites(ctx context.Context, actorID uuid.UUID, params pagination.Params) (*InviteListResult, error) {
	rows, total, err := s.invites.ListPendingByUser(ctx, actorID, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "list user invitations")
	}
	return &InviteListResult{Items: toInviteDTOs(rows), Page: pagination.NewPage(params, total)}, nil
}

func (s *service) ListUserJoinRequests(ctx context.Context, actorID uuid.UUID, params pagination.Params) (*RequestListResult, error) {
	rows, total, err := s.requests.ListPendingByUser(ctx, actorID, params)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeDependency, err, "list user join requests")
	}
	return &RequestListResult{Items: toRequestDTOs(rows), Page: pagination.NewPage(params, total)}, nil
}

func (s *service) authorizeAdminOrOwner(ctx context.Context, actorID, companyID uuid.UUID) error {
	ok, err := IsAdminOrOwner(ctx, s.db, actorID, companyID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "check company role")
	}
	if !ok {
		return apperrors.New(apperrors.CodeForbidden, "admin or owner authorization required")
	}
	return nil
}

func (s *service) finish(ctx context.Context, op string, started time.Time, companyID uuid.UUID) {
	s.workflow.IncAccepted(op)
	s.workflow.ObserveDuration(op, time.Since(started))
	ctx = s.logg.WithCompanyID(ctx, companyID.String())
	s.logg.Info(ctx, op+" completed")
}

// publish runs after commit; a broker failure must not unwind the workflow.
func (s *service) publish(ctx context.Context, eventType enums.EventType, companyID, userID uuid.UUID) {
	if s.events == nil {
		return
	}
	event := events.New(eventType, companyID)
	event.UserID = userID
	if err := s.events.Publish(ctx, event); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("publish %s event failed: %v", eventType, err))
	}
}

func lookupError(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.New(apperrors.CodeNotFound, what+" not found")
	}
	return apperrors.Wrap(apperrors.CodeDependency, err, "lookup "+what)
}
