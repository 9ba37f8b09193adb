package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ArtemSerdechnyi/fastaip-meduzzen/api/responses"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/api/validators"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/internal/membership"
	pkgerrors "github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/errors"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/logger"
	"github.com/ArtemSerdechnyi/fastaip-meduzzen/pkg/pagination"
)

type createInviteRequest struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// CreateInvite lets a company owner or admin invite a user.
func CreateInvite(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		companyID, err := pathUUID(r, "companyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createInviteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		invite, err := svc.CreateInvite(r.Context(), companyID, body.UserID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, invite)
	}
}

// inviteEndpoint adapts the shared shape of the invite decision handlers.
func inviteEndpoint(logg *logger.Logger, call func(r *http.Request, inviteID, actor uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inviteID, err := pathUUID(r, "inviteId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := call(r, inviteID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// WithdrawInvite cancels a pending invite, initiating side only.
func WithdrawInvite(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "membership service unavailable")
	}
	return inviteEndpoint(logg, func(r *http.Request, inviteID, actor uuid.UUID) (any, error) {
		return svc.WithdrawInvite(r.Context(), inviteID, actor)
	})
}

// AcceptInvite turns a pending invite into an active membership, invitee only.
func AcceptInvite(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "membership service unavailable")
	}
	return inviteEndpoint(logg, func(r *http.Request, inviteID, actor uuid.UUID) (any, error) {
		return svc.AcceptInvite(r.Context(), inviteID, actor)
	})
}

// RejectInvite declines a pending invite, invitee only.
func RejectInvite(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "membership service unavailable")
	}
	return inviteEndpoint(logg, func(r *http.Request, inviteID, actor uuid.UUID) (any, error) {
		return svc.RejectInvite(r.Context(), inviteID, actor)
	})
}

// CreateJoinRequest lets a user ask to join a company.
func CreateJoinRequest(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		companyID, err := pathUUID(r, "companyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.CreateJoinRequest(r.Context(), companyID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// requestEndpoint adapts the shared shape of the join-request decision handlers.
func requestEndpoint(logg *logger.Logger, call func(r *http.Request, requestID, actor uuid.UUID) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requestID, err := pathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := call(r, requestID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CancelJoinRequest withdraws the caller's own pending request.
func CancelJoinRequest(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "membership service unavailable")
	}
	return requestEndpoint(logg, func(r *http.Request, requestID, actor uuid.UUID) (any, error) {
		return svc.CancelJoinRequest(r.Context(), requestID, actor)
	})
}

// ConfirmJoinRequest approves a pending request, owner only.
func ConfirmJoinRequest(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "membership service unavailable")
	}
	return requestEndpoint(logg, func(r *http.Request, requestID, actor uuid.UUID) (any, error) {
		return svc.ConfirmJoinRequest(r.Context(), requestID, actor)
	})
}

// DenyJoinRequest declines a pending request, owner only.
func DenyJoinRequest(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "membership service unavailable")
	}
	return requestEndpoint(logg, func(r *http.Request, requestID, actor uuid.UUID) (any, error) {
		return svc.DenyJoinRequest(r.Context(), requestID, actor)
	})
}

// RemoveMember deactivates a member's row, owner only.
func RemoveMember(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	return memberEndpoint(svc, logg, func(r *http.Request, companyID, userID, actor uuid.UUID) (any, error) {
		return svc.RemoveMember(r.Context(), companyID, userID, actor)
	})
}

// AppointAdmin promotes an active member to admin, owner only.
func AppointAdmin(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	return memberEndpoint(svc, logg, func(r *http.Request, companyID, userID, actor uuid.UUID) (any, error) {
		return svc.AppointAdmin(r.Context(), companyID, userID, actor)
	})
}

func memberEndpoint(svc membership.Service, logg *logger.Logger, call func(r *http.Request, companyID, userID, actor uuid.UUID) (any, error)) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "membership service unavailable")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		companyID, err := pathUUID(r, "companyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID, err := pathUUID(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := call(r, companyID, userID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// LeaveCompany removes the caller's own membership.
func LeaveCompany(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "membership service unavailable"))
			return
		}

		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		companyID, err := pathUUID(r, "companyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		member, err := svc.LeaveCompany(r.Context(), companyID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, member)
	}
}

// companyListing adapts the shared shape of the per-company listing handlers.
func companyListing(svc membership.Service, logg *logger.Logger, call func(r *http.Request, companyID, actor uuid.UUID, params pagination.Params) (any, error)) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "membership service unavailable")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		companyID, err := pathUUID(r, "companyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := call(r, companyID, actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListMembers returns the active member roster, members only.
func ListMembers(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	return companyListing(svc, logg, func(r *http.Request, companyID, actor uuid.UUID, params pagination.Params) (any, error) {
		return svc.ListMembers(r.Context(), companyID, actor, params)
	})
}

// ListCompanyInvites returns pending invites for a company, staff only.
func ListCompanyInvites(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	return companyListing(svc, logg, func(r *http.Request, companyID, actor uuid.UUID, params pagination.Params) (any, error) {
		return svc.ListCompanyInvites(r.Context(), companyID, actor, params)
	})
}

// ListCompanyJoinRequests returns pending join requests for a company, staff only.
func ListCompanyJoinRequests(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	return companyListing(svc, logg, func(r *http.Request, companyID, actor uuid.UUID, params pagination.Params) (any, error) {
		return svc.ListCompanyJoinRequests(r.Context(), companyID, actor, params)
	})
}

// ListMyInvites returns the caller's pending invites.
func ListMyInvites(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	return userListing(svc, logg, func(r *http.Request, actor uuid.UUID, params pagination.Params) (any, error) {
		return svc.ListUserInvites(r.Context(), actor, params)
	})
}

// ListMyJoinRequests returns the caller's pending join requests.
func ListMyJoinRequests(svc membership.Service, logg *logger.Logger) http.HandlerFunc {
	return userListing(svc, logg, func(r *http.Request, actor uuid.UUID, params pagination.Params) (any, error) {
		return svc.ListUserJoinRequests(r.Context(), actor, params)
	})
}

func userListing(svc membership.Service, logg *logger.Logger, call func(r *http.Request, actor uuid.UUID, params pagination.Params) (any, error)) http.HandlerFunc {
	if svc == nil {
		return serviceUnavailable(logg, "membership service unavailable")
	}
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := call(r, actor, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func serviceUnavailable(logg *logger.Logger, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, msg))
	}
}
