package domain

import (
	"context"
	"fmt"
	"time"
)

const (
	// ParticipantLimitMin and ParticipantLimitMax bound the optional
	// participant limit on an event.
	ParticipantLimitMin = 1
	ParticipantLimitMax = 10000
)

// Event represents an event an organizer invites people to.
// swagger:model Event
type Event struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      *string   `json:"description,omitempty"`
	StartDate        time.Time `json:"start_date"`
	EndDate          time.Time `json:"end_date"`
	LinkZoom         *string   `json:"link_zoom,omitempty"`
	LinkGoogleMeet   *string   `json:"link_google_meet,omitempty"`
	LinkGoogleMaps   *string   `json:"link_google_maps,omitempty"`
	Private          bool      `json:"private"`
	RequireApproval  bool      `json:"require_approval"`
	ParticipantLimit *int      `json:"participant_limit,omitempty"`
	Theme            *string   `json:"theme,omitempty"`
	ImagePath        *string   `json:"image_path,omitempty"`
	OwnerID          string    `json:"owner_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Validate checks event invariants at creation time: end date after start
// date, start date not in the past, participant limit within bounds.
func (e *Event) Validate(now time.Time) error {
	if e.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !e.EndDate.After(e.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", ErrInvalidInput)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if e.StartDate.Before(today) {
		return fmt.Errorf("%w: start date must not be in the past", ErrInvalidInput)
	}
	if e.ParticipantLimit != nil {
		if *e.ParticipantLimit < ParticipantLimitMin || *e.ParticipantLimit > ParticipantLimitMax {
			return fmt.Errorf("%w: participant limit must be between %d and %d",
				ErrInvalidInput, ParticipantLimitMin, ParticipantLimitMax)
		}
	}
	return nil
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
}

// CreateEventResult reports what event creation produced.
type CreateEventResult struct {
	Event              *Event `json:"event"`
	InvitationsCreated int    `json:"invitations_created"`
	DuplicatesRemoved  int    `json:"duplicates_removed"`
}

// EventService defines organizer-facing event operations.
type EventService interface {
	// CreateEvent validates and persists the event. When roster is non-empty
	// it is ingested and one invitation per validated row is created with a
	// fresh unique code. When image is non-empty it is stored and the
	// resulting path recorded on the event.
	CreateEvent(ctx context.Context, event *Event, roster []byte, image []byte, imageName string) (*CreateEventResult, error)
	GetEvent(ctx context.Context, eventID, userID string) (*Event, error)
	ListMyEvents(ctx context.Context, ownerID string) ([]*Event, error)
	// ListInvitations returns the invitations of an event; owner only.
	ListInvitations(ctx context.Context, eventID, userID string, p PaginationParams) ([]*Invitation, int, error)
}
