package domain

import (
	"context"
	"time"
)

// MaxGuests is the maximum number of additional guests per invitation.
// Together with the invitee, an invitation admits at most MaxGuests+1 people.
const MaxGuests = 2

// Invitation represents one invited person for one event. It carries the
// unique scan code used on the QR invitation and the check-in state.
// Invitations are created in bulk at event creation and never deleted.
// swagger:model Invitation
type Invitation struct {
	ID      string `json:"id"`
	EventID string `json:"event_id"`
	Code    string `json:"code"`
	DNI     string `json:"dni"`
	Names   string `json:"names"`
	Program string `json:"program"`
	Mention string `json:"mention"`
	Email   string `json:"email"`

	Scanned    bool `json:"scanned"`
	GuestCount int  `json:"guest_count"`

	SentAt    *time.Time `json:"sent_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// CheckInState is the explicit state derived from the stored scanned flag and
// guest count. The two legacy fields remain the storage representation.
type CheckInState int

const (
	// NotScanned means check-in has not begun for this invitation.
	NotScanned CheckInState = iota
	// ScannedNoGuests means the invitee checked in without guests.
	ScannedNoGuests
	// ScannedOneGuest means the invitee checked in with one guest.
	ScannedOneGuest
	// ScannedTwoGuests is terminal: no further guest additions are possible.
	ScannedTwoGuests
)

// State derives the explicit check-in state from the stored fields.
func (i *Invitation) State() CheckInState {
	if !i.Scanned {
		return NotScanned
	}
	switch i.GuestCount {
	case 0:
		return ScannedNoGuests
	case 1:
		return ScannedOneGuest
	default:
		return ScannedTwoGuests
	}
}

// CanAddMore reports whether further guests can still be registered.
func (i *Invitation) CanAddMore() bool {
	return i.GuestCount < MaxGuests
}

// LookupKeyType selects which unique field a check-in lookup key matches.
type LookupKeyType string

const (
	// LookupByCode looks an invitation up by its scan code.
	LookupByCode LookupKeyType = "code"
	// LookupByDNI looks an invitation up by the invitee's DNI.
	LookupByDNI LookupKeyType = "dni"
)

// InvitationWithOwner bundles an invitation with its owning event's title and
// owner, as needed for check-in authorization.
type InvitationWithOwner struct {
	Invitation   *Invitation
	EventTitle   string
	EventOwnerID string
}

// InvitationRepository defines storage operations for invitations.
//
// ConfirmCheckIn must be an atomic conditional update: it sets scanned=true
// and the new guest count only where the row still carries the observed
// prior state, and returns ErrConflict when the row changed underneath the
// caller. This is what makes concurrent check-in confirmations lose no
// increments.
type InvitationRepository interface {
	GetByCode(ctx context.Context, code string) (*InvitationWithOwner, error)
	GetByDNI(ctx context.Context, dni string) (*InvitationWithOwner, error)
	GetByID(ctx context.Context, id string) (*InvitationWithOwner, error)
	// CreateMany inserts one invitation per row for the event. Codes must be
	// assigned by the caller and unique across all invitations.
	CreateMany(ctx context.Context, invs []*Invitation) error
	ListByEventID(ctx context.Context, eventID string, p PaginationParams) ([]*Invitation, int, error)
	ConfirmCheckIn(ctx context.Context, id string, guestCount int, priorScanned bool, priorGuestCount int) error
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
}

// InvitationSnapshot is the read-only view of an invitation returned by a
// check-in lookup.
// swagger:model InvitationSnapshot
type InvitationSnapshot struct {
	ID             string `json:"id"`
	DNI            string `json:"dni"`
	Names          string `json:"names"`
	Program        string `json:"program"`
	Mention        string `json:"mention"`
	Email          string `json:"email"`
	EventTitle     string `json:"event_title"`
	Scanned        bool   `json:"scanned"`
	GuestCount     int    `json:"guest_count"`
	CanAddMore     bool   `json:"can_add_more"`
	AlreadyScanned bool   `json:"already_scanned"`
	Message        string `json:"message"`
}

// CheckInResult is the outcome of a confirmed check-in.
// swagger:model CheckInResult
type CheckInResult struct {
	ID         string `json:"id"`
	GuestCount int    `json:"guest_count"`
	Message    string `json:"message"`
}

// CheckInService authorizes and evaluates check-in attempts and applies
// guest-count transitions with monotonic, idempotent semantics.
type CheckInService interface {
	// Lookup resolves a scan code or DNI to the invitation's current state.
	// It has no side effects. Returns ErrNotFound when the key matches no
	// invitation and ErrForbidden when the owning event does not belong to
	// the acting user.
	Lookup(ctx context.Context, key string, keyType LookupKeyType, actingUserID string) (*InvitationSnapshot, error)
	// ConfirmCheckIn sets scanned=true and the requested guest count. A
	// request that would lower an already registered count is rejected with
	// ErrGuestRegression; this is the only mutation path for an invitation.
	ConfirmCheckIn(ctx context.Context, invitationID string, requestedGuestCount int, actingUserID string) (*CheckInResult, error)
}
