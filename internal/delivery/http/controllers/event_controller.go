package controllers

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"eventinvites/internal/delivery/http/helpers"
	"eventinvites/internal/delivery/http/middleware"
	"eventinvites/internal/domain"
)

// maxUploadBytes caps the multipart form size for event creation: the
// roster spreadsheet plus a banner image.
const maxUploadBytes = 20 << 20

// EventController handles event CRUD and invitation listing.
type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateEventResponse is the data payload for POST /events.
type CreateEventResponse struct {
	Event              *domain.Event `json:"event"`
	InvitationsCreated int           `json:"invitations_created"`
	DuplicatesRemoved  int           `json:"duplicates_removed"`
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event from a multipart form. Optional parts: "roster" (xlsx invitee list, all-or-nothing validation) and "image" (banner). One invitation with a unique code is created per deduplicated roster row.
// @Tags events
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Event title"
// @Param start_date formData string true "Start date (RFC 3339)"
// @Param end_date formData string true "End date (RFC 3339)"
// @Param description formData string false "Description"
// @Param link_zoom formData string false "Zoom link"
// @Param link_google_meet formData string false "Google Meet link"
// @Param link_google_maps formData string false "Google Maps link"
// @Param private formData boolean false "Private event"
// @Param require_approval formData boolean false "Require approval"
// @Param participant_limit formData integer false "Participant limit (1-10000)"
// @Param theme formData string false "Theme"
// @Param roster formData file false "Invitee roster (xlsx)"
// @Param image formData file false "Banner image"
// @Success 201 {object} helpers.APIResponse "data contains the event and roster counters"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request | validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	event, errs := eventFromForm(r, userID)
	if len(errs) > 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, strings.Join(errs, "; "))
		return
	}

	roster, _, err := readFormFile(r, "roster")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "could not read roster: "+err.Error())
		return
	}
	image, imageName, err := readFormFile(r, "image")
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "could not read image: "+err.Error())
		return
	}

	result, err := c.Service.CreateEvent(r.Context(), event, roster, image, imageName)
	if err != nil {
		var verr *domain.RosterValidationError
		switch {
		case errors.As(err, &verr):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeValidationError, verr.Error())
		case errors.Is(err, domain.ErrInvalidInput):
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "event creation failed")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, CreateEventResponse{
		Event:              result.Event,
		InvitationsCreated: result.InvitationsCreated,
		DuplicatesRemoved:  result.DuplicatesRemoved,
	})
}

// eventFromForm builds a domain.Event from the multipart form fields.
func eventFromForm(r *http.Request, ownerID string) (*domain.Event, []string) {
	var errs []string
	event := &domain.Event{
		Title:   strings.TrimSpace(r.FormValue("title")),
		OwnerID: ownerID,
	}
	if event.Title == "" {
		errs = append(errs, "title is required")
	}
	start, err := time.Parse(time.RFC3339, r.FormValue("start_date"))
	if err != nil {
		errs = append(errs, "start_date must be RFC 3339")
	}
	end, err := time.Parse(time.RFC3339, r.FormValue("end_date"))
	if err != nil {
		errs = append(errs, "end_date must be RFC 3339")
	}
	event.StartDate = start
	event.EndDate = end

	if v := strings.TrimSpace(r.FormValue("description")); v != "" {
		event.Description = &v
	}
	if v := strings.TrimSpace(r.FormValue("link_zoom")); v != "" {
		event.LinkZoom = &v
	}
	if v := strings.TrimSpace(r.FormValue("link_google_meet")); v != "" {
		event.LinkGoogleMeet = &v
	}
	if v := strings.TrimSpace(r.FormValue("link_google_maps")); v != "" {
		event.LinkGoogleMaps = &v
	}
	if v := strings.TrimSpace(r.FormValue("theme")); v != "" {
		event.Theme = &v
	}
	if v := r.FormValue("private"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, "private must be a boolean")
		}
		event.Private = b
	}
	if v := r.FormValue("require_approval"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, "require_approval must be a boolean")
		}
		event.RequireApproval = b
	}
	if v := r.FormValue("participant_limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, "participant_limit must be an integer")
		} else {
			event.ParticipantLimit = &n
		}
	}
	return event, errs
}

// readFormFile returns the named file part's bytes, or nil when absent.
func readFormFile(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}
	defer func(f multipart.File) { _ = f.Close() }(file)
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

// ListMyEvents godoc
// @Summary List the authenticated user's events
// @Tags events
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data contains the event list"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListMyEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	events, err := c.Service.ListMyEvents(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "listing failed")
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get an event by ID
// @Description Private events are only visible to their owner.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Success 200 {object} helpers.APIResponse "data contains the event"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	event, err := c.Service.GetEvent(r.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "not allowed")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "lookup failed")
		}
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// ListInvitationsResponse is the data payload for GET /events/{eventID}/invitations.
type ListInvitationsResponse struct {
	Invitations []*domain.Invitation   `json:"invitations"`
	Pagination  helpers.PaginationMeta `json:"pagination"`
}

// ListInvitations godoc
// @Summary List an event's invitations
// @Description Owner only. Paginated with page and page_size query parameters.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains invitations and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/invitations [get]
func (c *EventController) ListInvitations(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	params := helpers.ParsePagination(r)
	invs, total, err := c.Service.ListInvitations(r.Context(), eventID, userID, params)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
		case errors.Is(err, domain.ErrForbidden):
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "not allowed")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "listing failed")
		}
		return
	}
	if invs == nil {
		invs = []*domain.Invitation{}
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, ListInvitationsResponse{
		Invitations: invs,
		Pagination:  helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}
