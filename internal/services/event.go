package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventinvites/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	invitationRepo domain.InvitationRepository
	rosterService  domain.RosterService
	blobStore      domain.BlobStore
	contextTimeout time.Duration
}

// NewEventService creates an EventService with the given collaborators.
func NewEventService(
	eventRepo domain.EventRepository,
	invitationRepo domain.InvitationRepository,
	rosterService domain.RosterService,
	blobStore domain.BlobStore,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		invitationRepo: invitationRepo,
		rosterService:  rosterService,
		blobStore:      blobStore,
		contextTimeout: timeout,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, event *domain.Event, roster []byte, image []byte, imageName string) (*domain.CreateEventResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event.OwnerID == "" {
		return nil, fmt.Errorf("%w: event owner is required", domain.ErrInvalidInput)
	}
	now := time.Now()
	if err := event.Validate(now); err != nil {
		return nil, err
	}

	// Ingest the roster before anything is persisted: a rejected roster
	// leaves no partial event behind.
	var ingest *domain.RosterIngestResult
	if len(roster) > 0 {
		var err error
		ingest, err = s.rosterService.Ingest(ctx, roster)
		if err != nil {
			return nil, err
		}
	}

	if len(image) > 0 {
		path, err := s.blobStore.Save(image, imageName)
		if err != nil {
			return nil, fmt.Errorf("save event image: %w", err)
		}
		event.ImagePath = &path
	}

	event.CreatedAt = now
	event.UpdatedAt = now
	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	result := &domain.CreateEventResult{Event: event}
	if ingest != nil && len(ingest.Rows) > 0 {
		invs := make([]*domain.Invitation, len(ingest.Rows))
		for i, row := range ingest.Rows {
			invs[i] = &domain.Invitation{
				EventID:   event.ID,
				Code:      uuid.NewString(),
				DNI:       row.DNI,
				Names:     row.Names,
				Program:   row.Program,
				Mention:   row.Mention,
				Email:     row.Email,
				CreatedAt: now,
				UpdatedAt: now,
			}
		}
		if err := s.invitationRepo.CreateMany(ctx, invs); err != nil {
			return nil, fmt.Errorf("create invitations: %w", err)
		}
		result.InvitationsCreated = len(invs)
		result.DuplicatesRemoved = ingest.DuplicatesRemoved
	}
	return result, nil
}

func (s *eventService) GetEvent(ctx context.Context, eventID, userID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.Private && event.OwnerID != userID {
		return nil, domain.ErrForbidden
	}
	return event, nil
}

func (s *eventService) ListMyEvents(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, nil
}

func (s *eventService) ListInvitations(ctx context.Context, eventID, userID string, p domain.PaginationParams) ([]*domain.Invitation, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != userID {
		return nil, 0, domain.ErrForbidden
	}

	invs, total, err := s.invitationRepo.ListByEventID(ctx, eventID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("list invitations: %w", err)
	}
	return invs, total, nil
}
