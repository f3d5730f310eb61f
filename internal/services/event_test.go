package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"eventinvites/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID   map[string]*domain.Event
	nextID int
	err    error // if set, Create returns this error
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:   make(map[string]*domain.Event),
		nextID: 1,
	}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		return e, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.byID {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeBlobStore records saved blobs in memory.
type fakeBlobStore struct {
	saved   map[string][]byte
	saveErr error
	nextID  int
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{saved: make(map[string][]byte), nextID: 1}
}

func (f *fakeBlobStore) Save(data []byte, originalName string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	path := fmt.Sprintf("uploads/blob-%d", f.nextID)
	f.nextID++
	f.saved[path] = data
	return path, nil
}

func (f *fakeBlobStore) Delete(path string) error {
	delete(f.saved, path)
	return nil
}

func validEvent(ownerID string) *domain.Event {
	start := time.Now().Add(24 * time.Hour)
	end := start.Add(4 * time.Hour)
	return &domain.Event{
		Title:     "Graduation 2026",
		StartDate: start,
		EndDate:   end,
		OwnerID:   ownerID,
	}
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	timeout := 5 * time.Second

	rosterBytes := []byte("xlsx-bytes")
	rosterRows := []domain.RosterRow{
		rosterRow("111", "a@example.com"),
		rosterRow("222", "b@example.com"),
		rosterRow("111", "dup@example.com"),
	}

	tests := []struct {
		name    string
		setup   func() (*fakeEventRepo, *fakeInvitationRepo, *fakeRosterParser, *fakeBlobStore)
		event   *domain.Event
		roster  []byte
		image   []byte
		wantErr bool
		assert  func(t *testing.T, eventRepo *fakeEventRepo, invRepo *fakeInvitationRepo, blobs *fakeBlobStore, result *domain.CreateEventResult)
	}{
		{
			name: "success with roster and image",
			setup: func() (*fakeEventRepo, *fakeInvitationRepo, *fakeRosterParser, *fakeBlobStore) {
				return newFakeEventRepo(), newFakeInvitationRepo(), &fakeRosterParser{rows: rosterRows}, newFakeBlobStore()
			},
			event:  validEvent("user-1"),
			roster: rosterBytes,
			image:  []byte("png-bytes"),
			assert: func(t *testing.T, eventRepo *fakeEventRepo, invRepo *fakeInvitationRepo, blobs *fakeBlobStore, result *domain.CreateEventResult) {
				require.NotEmpty(t, result.Event.ID)
				assert.Equal(t, 2, result.InvitationsCreated)
				assert.Equal(t, 1, result.DuplicatesRemoved)
				require.NotNil(t, result.Event.ImagePath)
				assert.Contains(t, blobs.saved, *result.Event.ImagePath)

				invs, total, err := invRepo.ListByEventID(ctx, result.Event.ID, domain.PaginationParams{Page: 1, PageSize: 10})
				require.NoError(t, err)
				assert.Equal(t, 2, total)
				codes := map[string]bool{}
				for _, inv := range invs {
					require.NotEmpty(t, inv.Code)
					require.False(t, codes[inv.Code], "codes must be unique")
					codes[inv.Code] = true
					assert.False(t, inv.Scanned)
					assert.Equal(t, 0, inv.GuestCount)
				}
			},
		},
		{
			name: "success without roster",
			setup: func() (*fakeEventRepo, *fakeInvitationRepo, *fakeRosterParser, *fakeBlobStore) {
				return newFakeEventRepo(), newFakeInvitationRepo(), &fakeRosterParser{}, newFakeBlobStore()
			},
			event: validEvent("user-1"),
			assert: func(t *testing.T, eventRepo *fakeEventRepo, invRepo *fakeInvitationRepo, blobs *fakeBlobStore, result *domain.CreateEventResult) {
				assert.Equal(t, 0, result.InvitationsCreated)
				assert.Nil(t, result.Event.ImagePath)
			},
		},
		{
			name: "rejected roster leaves nothing behind",
			setup: func() (*fakeEventRepo, *fakeInvitationRepo, *fakeRosterParser, *fakeBlobStore) {
				parser := &fakeRosterParser{err: &domain.RosterValidationError{RowErrors: []string{`row 2: missing field "dni"`}}}
				return newFakeEventRepo(), newFakeInvitationRepo(), parser, newFakeBlobStore()
			},
			event:   validEvent("user-1"),
			roster:  rosterBytes,
			image:   []byte("png-bytes"),
			wantErr: true,
			assert: func(t *testing.T, eventRepo *fakeEventRepo, invRepo *fakeInvitationRepo, blobs *fakeBlobStore, _ *domain.CreateEventResult) {
				assert.Empty(t, eventRepo.byID)
				assert.Empty(t, blobs.saved)
			},
		},
		{
			name: "missing owner",
			setup: func() (*fakeEventRepo, *fakeInvitationRepo, *fakeRosterParser, *fakeBlobStore) {
				return newFakeEventRepo(), newFakeInvitationRepo(), &fakeRosterParser{}, newFakeBlobStore()
			},
			event:   validEvent(""),
			wantErr: true,
		},
		{
			name: "end date before start date",
			setup: func() (*fakeEventRepo, *fakeInvitationRepo, *fakeRosterParser, *fakeBlobStore) {
				return newFakeEventRepo(), newFakeInvitationRepo(), &fakeRosterParser{}, newFakeBlobStore()
			},
			event: func() *domain.Event {
				e := validEvent("user-1")
				e.EndDate = e.StartDate.Add(-time.Hour)
				return e
			}(),
			wantErr: true,
		},
		{
			name: "repo error",
			setup: func() (*fakeEventRepo, *fakeInvitationRepo, *fakeRosterParser, *fakeBlobStore) {
				er := newFakeEventRepo()
				er.err = errors.New("db error")
				return er, newFakeInvitationRepo(), &fakeRosterParser{}, newFakeBlobStore()
			},
			event:   validEvent("user-1"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eventRepo, invRepo, parser, blobs := tt.setup()
			svc := NewEventService(eventRepo, invRepo, NewRosterService(parser), blobs, timeout)
			result, err := svc.CreateEvent(ctx, tt.event, tt.roster, tt.image, "banner.png")
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, result)
				if tt.assert != nil {
					tt.assert(t, eventRepo, invRepo, blobs, nil)
				}
				return
			}
			require.NoError(t, err)
			require.NotNil(t, result)
			tt.assert(t, eventRepo, invRepo, blobs, result)
		})
	}
}

func TestEventService_GetEvent(t *testing.T) {
	ctx := context.Background()
	timeout := 5 * time.Second

	seed := func(private bool) *fakeEventRepo {
		er := newFakeEventRepo()
		ev := validEvent("user-1")
		ev.Private = private
		_ = er.Create(ctx, ev)
		return er
	}

	tests := []struct {
		name          string
		repo          *fakeEventRepo
		eventID       string
		userID        string
		wantErr       bool
		wantNotFound  bool
		wantForbidden bool
	}{
		{name: "public event visible to anyone", repo: seed(false), eventID: "ev-1", userID: "user-2"},
		{name: "private event visible to owner", repo: seed(true), eventID: "ev-1", userID: "user-1"},
		{name: "private event hidden from others", repo: seed(true), eventID: "ev-1", userID: "user-2", wantErr: true, wantForbidden: true},
		{name: "not found", repo: newFakeEventRepo(), eventID: "ev-missing", userID: "user-1", wantErr: true, wantNotFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewEventService(tt.repo, newFakeInvitationRepo(), NewRosterService(&fakeRosterParser{}), newFakeBlobStore(), timeout)
			event, err := svc.GetEvent(ctx, tt.eventID, tt.userID)
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, event)
				if tt.wantNotFound {
					require.True(t, errors.Is(err, domain.ErrNotFound))
				}
				if tt.wantForbidden {
					require.True(t, errors.Is(err, domain.ErrForbidden))
				}
				return
			}
			require.NoError(t, err)
			require.NotNil(t, event)
			assert.Equal(t, tt.eventID, event.ID)
		})
	}
}

func TestEventService_ListInvitations(t *testing.T) {
	ctx := context.Background()
	timeout := 5 * time.Second

	er := newFakeEventRepo()
	_ = er.Create(ctx, validEvent("user-1"))
	invRepo := newFakeInvitationRepo()
	invRepo.addEvent("ev-1", "user-1", "Graduation 2026")
	for i := 0; i < 25; i++ {
		invRepo.add(&domain.Invitation{EventID: "ev-1", Code: fmt.Sprintf("code-%d", i), DNI: fmt.Sprintf("%08d", i)})
	}
	svc := NewEventService(er, invRepo, NewRosterService(&fakeRosterParser{}), newFakeBlobStore(), timeout)

	t.Run("paginated for owner", func(t *testing.T) {
		invs, total, err := svc.ListInvitations(ctx, "ev-1", "user-1", domain.PaginationParams{Page: 2, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, 25, total)
		require.Len(t, invs, 10)
		assert.Equal(t, "code-10", invs[0].Code)
	})

	t.Run("forbidden for non-owner", func(t *testing.T) {
		_, _, err := svc.ListInvitations(ctx, "ev-1", "user-2", domain.PaginationParams{Page: 1, PageSize: 10})
		require.True(t, errors.Is(err, domain.ErrForbidden))
	})

	t.Run("event not found", func(t *testing.T) {
		_, _, err := svc.ListInvitations(ctx, "ev-missing", "user-1", domain.PaginationParams{Page: 1, PageSize: 10})
		require.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestEventService_ListMyEvents(t *testing.T) {
	ctx := context.Background()
	timeout := 5 * time.Second

	er := newFakeEventRepo()
	_ = er.Create(ctx, validEvent("user-1"))
	_ = er.Create(ctx, validEvent("user-1"))
	_ = er.Create(ctx, validEvent("user-2"))
	svc := NewEventService(er, newFakeInvitationRepo(), NewRosterService(&fakeRosterParser{}), newFakeBlobStore(), timeout)

	events, err := svc.ListMyEvents(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	events, err = svc.ListMyEvents(ctx, "user-none")
	require.NoError(t, err)
	require.NotNil(t, events)
	require.Len(t, events, 0)
}
