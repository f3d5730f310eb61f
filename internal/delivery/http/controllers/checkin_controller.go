package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventinvites/internal/delivery/http/helpers"
	"eventinvites/internal/delivery/http/middleware"
	"eventinvites/internal/domain"
)

// CheckInController handles invitation lookup and check-in confirmation at
// the event door.
type CheckInController struct {
	Logger  *slog.Logger
	Service domain.CheckInService
}

func NewCheckInController(logger *slog.Logger, svc domain.CheckInService) *CheckInController {
	return &CheckInController{
		Logger:  logger,
		Service: svc,
	}
}

// Lookup godoc
// @Summary Look up an invitation by code or DNI
// @Description Read-only: returns the invitation state without changing it. Exactly one of code or dni must be provided. Only the event owner may look up its invitations.
// @Tags checkin
// @Produce json
// @Security BearerAuth
// @Param code query string false "Invitation code (scanned from QR)"
// @Param dni query string false "Invitee document number"
// @Success 200 {object} helpers.APIResponse "data contains the invitation snapshot"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /checkin [get]
func (c *CheckInController) Lookup(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	code := r.URL.Query().Get("code")
	dni := r.URL.Query().Get("dni")
	if (code == "") == (dni == "") {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "provide exactly one of code or dni")
		return
	}
	key, keyType := code, domain.LookupByCode
	if dni != "" {
		key, keyType = dni, domain.LookupByDNI
	}

	snapshot, err := c.Service.Lookup(r.Context(), key, keyType, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "invitation not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "not allowed")
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "lookup failed")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, snapshot)
}

// ConfirmCheckInRequest is the request body for POST /checkin/{invitationID}.
type ConfirmCheckInRequest struct {
	GuestCount int `json:"guest_count"`
}

// Validate implements Validator.
func (r ConfirmCheckInRequest) Validate() []string {
	if r.GuestCount < 0 || r.GuestCount > domain.MaxGuests {
		return []string{"guest_count must be between 0 and 2"}
	}
	return nil
}

// Confirm godoc
// @Summary Confirm a check-in
// @Description Marks the invitation as scanned with the requested guest count. Guest counts only increase: repeating or lowering a count is rejected, so concurrent confirmations never silently lose a registered guest.
// @Tags checkin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param invitationID path string true "Invitation ID"
// @Param body body ConfirmCheckInRequest true "Guest count (0-2)"
// @Success 200 {object} helpers.APIResponse "data contains the check-in result"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /checkin/{invitationID} [post]
func (c *CheckInController) Confirm(w http.ResponseWriter, r *http.Request) {
	invitationID := r.PathValue("invitationID")
	if invitationID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing invitationID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	var req ConfirmCheckInRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := c.Service.ConfirmCheckIn(r.Context(), invitationID, req.GuestCount, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "invitation not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "not allowed")
		case errors.Is(err, domain.ErrGuestRegression):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, err.Error())
		case errors.Is(err, domain.ErrConflict):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "concurrent update, retry the check-in")
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "check-in failed")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}
