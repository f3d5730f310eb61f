package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eventinvites/internal/domain"
)

// confirmRetries bounds how many times a check-in confirmation re-reads and
// retries after losing a compare-and-set race.
const confirmRetries = 3

type checkInService struct {
	invitationRepo domain.InvitationRepository
}

// NewCheckInService creates a CheckInService with the given repository.
func NewCheckInService(invitationRepo domain.InvitationRepository) domain.CheckInService {
	return &checkInService{invitationRepo: invitationRepo}
}

func (s *checkInService) Lookup(ctx context.Context, key string, keyType domain.LookupKeyType, actingUserID string) (*domain.InvitationSnapshot, error) {
	if actingUserID == "" {
		return nil, domain.ErrForbidden
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: lookup key is required", domain.ErrInvalidInput)
	}

	var rec *domain.InvitationWithOwner
	var err error
	switch keyType {
	case domain.LookupByCode:
		rec, err = s.invitationRepo.GetByCode(ctx, key)
	case domain.LookupByDNI:
		rec, err = s.invitationRepo.GetByDNI(ctx, key)
	default:
		return nil, fmt.Errorf("%w: unknown lookup key type %q", domain.ErrInvalidInput, keyType)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}

	if rec.EventOwnerID != actingUserID {
		return nil, domain.ErrForbidden
	}

	inv := rec.Invitation
	snapshot := &domain.InvitationSnapshot{
		ID:             inv.ID,
		DNI:            inv.DNI,
		Names:          inv.Names,
		Program:        inv.Program,
		Mention:        inv.Mention,
		Email:          inv.Email,
		EventTitle:     rec.EventTitle,
		Scanned:        inv.Scanned,
		GuestCount:     inv.GuestCount,
		CanAddMore:     inv.CanAddMore(),
		AlreadyScanned: inv.Scanned,
	}
	if inv.Scanned {
		snapshot.Message = fmt.Sprintf("Check-in for %s. %s", inv.Email, guestStatus(inv.GuestCount))
	} else {
		snapshot.Message = fmt.Sprintf("Valid invitation for %s", inv.Email)
	}
	return snapshot, nil
}

func (s *checkInService) ConfirmCheckIn(ctx context.Context, invitationID string, requestedGuestCount int, actingUserID string) (*domain.CheckInResult, error) {
	if requestedGuestCount < 0 || requestedGuestCount > domain.MaxGuests {
		return nil, fmt.Errorf("%w: guest count must be between 0 and %d", domain.ErrInvalidInput, domain.MaxGuests)
	}
	if actingUserID == "" {
		return nil, domain.ErrForbidden
	}

	// Read, evaluate, then conditionally write. A lost compare-and-set means
	// a colleague confirmed concurrently; re-read and re-evaluate so their
	// registration is never erased.
	for attempt := 0; attempt < confirmRetries; attempt++ {
		rec, err := s.invitationRepo.GetByID(ctx, invitationID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("get invitation: %w", err)
		}
		if rec.EventOwnerID != actingUserID {
			return nil, domain.ErrForbidden
		}

		inv := rec.Invitation
		if inv.Scanned && requestedGuestCount <= inv.GuestCount {
			return nil, fmt.Errorf("%w: you already have %d guest(s) registered; you may only increase, not decrease",
				domain.ErrGuestRegression, inv.GuestCount)
		}

		err = s.invitationRepo.ConfirmCheckIn(ctx, invitationID, requestedGuestCount, inv.Scanned, inv.GuestCount)
		if errors.Is(err, domain.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("confirm check-in: %w", err)
		}

		return &domain.CheckInResult{
			ID:         invitationID,
			GuestCount: requestedGuestCount,
			Message:    confirmMessage(inv.Scanned, requestedGuestCount, inv.Email),
		}, nil
	}
	return nil, fmt.Errorf("confirm check-in for %s: %w", invitationID, domain.ErrConflict)
}

// guestStatus summarizes prior guest registration for a scanned invitation.
func guestStatus(guestCount int) string {
	switch guestCount {
	case 0:
		return "No guests registered yet."
	case 1:
		return "Guest 1 already registered. You may register guest 2."
	default:
		return "Both guests already registered."
	}
}

// confirmMessage distinguishes first registration from an update.
func confirmMessage(wasAlreadyScanned bool, guestCount int, email string) string {
	if !wasAlreadyScanned {
		switch guestCount {
		case 0:
			return fmt.Sprintf("Check-in confirmed for %s. No guests registered.", email)
		case 1:
			return "Check-in confirmed. Guest 1 registered."
		default:
			return "Check-in confirmed. Both guests registered."
		}
	}
	if guestCount == 1 {
		return "Check-in updated. Guest 1 now registered."
	}
	return "Check-in updated. Guest 2 now registered. Both guests complete."
}
