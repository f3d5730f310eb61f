package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventinvites/internal/delivery/http/middleware"
	"eventinvites/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeCheckInService implements domain.CheckInService for handler tests.
type fakeCheckInService struct {
	lookupErr         error
	lookupResult      *domain.InvitationSnapshot
	lastLookupKey     string
	lastLookupKeyType domain.LookupKeyType
	lastLookupUserID  string

	confirmErr        error
	confirmResult     *domain.CheckInResult
	lastConfirmID     string
	lastConfirmGuests int
	lastConfirmUserID string
}

func (f *fakeCheckInService) Lookup(ctx context.Context, key string, keyType domain.LookupKeyType, actingUserID string) (*domain.InvitationSnapshot, error) {
	f.lastLookupKey = key
	f.lastLookupKeyType = keyType
	f.lastLookupUserID = actingUserID
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	return f.lookupResult, nil
}

func (f *fakeCheckInService) ConfirmCheckIn(ctx context.Context, invitationID string, guestCount int, actingUserID string) (*domain.CheckInResult, error) {
	f.lastConfirmID = invitationID
	f.lastConfirmGuests = guestCount
	f.lastConfirmUserID = actingUserID
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	return f.confirmResult, nil
}

func TestCheckInController_Lookup(t *testing.T) {
	snapshot := &domain.InvitationSnapshot{
		ID:      "inv-1",
		DNI:     "12345678",
		Names:   "Ana Quispe",
		Message: "Valid invitation for ana@example.com",
	}

	tests := []struct {
		name           string
		query          string
		fake           *fakeCheckInService
		noUserContext  bool
		wantStatus     int
		wantBodySubstr string
		check          func(t *testing.T, fake *fakeCheckInService)
	}{
		{
			name:       "lookup by code",
			query:      "?code=code-abc",
			fake:       &fakeCheckInService{lookupResult: snapshot},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, fake *fakeCheckInService) {
				assert.Equal(t, "code-abc", fake.lastLookupKey)
				assert.Equal(t, domain.LookupByCode, fake.lastLookupKeyType)
				assert.Equal(t, "user-123", fake.lastLookupUserID)
			},
		},
		{
			name:       "lookup by dni",
			query:      "?dni=12345678",
			fake:       &fakeCheckInService{lookupResult: snapshot},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, fake *fakeCheckInService) {
				assert.Equal(t, "12345678", fake.lastLookupKey)
				assert.Equal(t, domain.LookupByDNI, fake.lastLookupKeyType)
			},
		},
		{
			name:           "neither key given",
			query:          "",
			fake:           &fakeCheckInService{},
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "exactly one of code or dni",
		},
		{
			name:           "both keys given",
			query:          "?code=code-abc&dni=12345678",
			fake:           &fakeCheckInService{},
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "exactly one of code or dni",
		},
		{
			name:           "no user in context",
			query:          "?code=code-abc",
			fake:           &fakeCheckInService{},
			noUserContext:  true,
			wantStatus:     http.StatusUnauthorized,
			wantBodySubstr: "unauthorized",
		},
		{
			name:           "not found",
			query:          "?code=missing",
			fake:           &fakeCheckInService{lookupErr: domain.ErrNotFound},
			wantStatus:     http.StatusNotFound,
			wantBodySubstr: "not_found",
		},
		{
			name:           "forbidden",
			query:          "?code=code-abc",
			fake:           &fakeCheckInService{lookupErr: domain.ErrForbidden},
			wantStatus:     http.StatusForbidden,
			wantBodySubstr: "forbidden",
		},
		{
			name:           "service error",
			query:          "?code=code-abc",
			fake:           &fakeCheckInService{lookupErr: errors.New("db down")},
			wantStatus:     http.StatusInternalServerError,
			wantBodySubstr: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewCheckInController(testLogger, tt.fake)
			req := httptest.NewRequest(http.MethodGet, "/checkin"+tt.query, nil)
			if !tt.noUserContext {
				req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
			}
			rr := httptest.NewRecorder()

			ctrl.Lookup(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBodySubstr != "" {
				assert.Contains(t, rr.Body.String(), tt.wantBodySubstr)
			}
			if tt.check != nil {
				tt.check(t, tt.fake)
			}
			if tt.wantStatus == http.StatusOK {
				var resp struct {
					Data domain.InvitationSnapshot `json:"data"`
				}
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
				assert.Equal(t, "inv-1", resp.Data.ID)
			}
		})
	}
}

func TestCheckInController_Confirm(t *testing.T) {
	result := &domain.CheckInResult{ID: "inv-1", GuestCount: 1, Message: "Check-in confirmed. Guest 1 registered."}

	tests := []struct {
		name           string
		invitationID   string
		body           string
		fake           *fakeCheckInService
		noUserContext  bool
		wantStatus     int
		wantBodySubstr string
		check          func(t *testing.T, fake *fakeCheckInService)
	}{
		{
			name:         "success",
			invitationID: "inv-1",
			body:         `{"guest_count":1}`,
			fake:         &fakeCheckInService{confirmResult: result},
			wantStatus:   http.StatusOK,
			check: func(t *testing.T, fake *fakeCheckInService) {
				assert.Equal(t, "inv-1", fake.lastConfirmID)
				assert.Equal(t, 1, fake.lastConfirmGuests)
				assert.Equal(t, "user-123", fake.lastConfirmUserID)
			},
		},
		{
			name:           "guest count out of range",
			invitationID:   "inv-1",
			body:           `{"guest_count":3}`,
			fake:           &fakeCheckInService{},
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "guest_count must be between 0 and 2",
		},
		{
			name:           "negative guest count",
			invitationID:   "inv-1",
			body:           `{"guest_count":-1}`,
			fake:           &fakeCheckInService{},
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "guest_count must be between 0 and 2",
		},
		{
			name:           "unknown field rejected",
			invitationID:   "inv-1",
			body:           `{"guest_count":1,"scanned":true}`,
			fake:           &fakeCheckInService{},
			wantStatus:     http.StatusBadRequest,
			wantBodySubstr: "unknown field",
		},
		{
			name:           "no user in context",
			invitationID:   "inv-1",
			body:           `{"guest_count":1}`,
			fake:           &fakeCheckInService{},
			noUserContext:  true,
			wantStatus:     http.StatusUnauthorized,
			wantBodySubstr: "unauthorized",
		},
		{
			name:           "not found",
			invitationID:   "inv-missing",
			body:           `{"guest_count":1}`,
			fake:           &fakeCheckInService{confirmErr: domain.ErrNotFound},
			wantStatus:     http.StatusNotFound,
			wantBodySubstr: "not_found",
		},
		{
			name:           "forbidden",
			invitationID:   "inv-1",
			body:           `{"guest_count":1}`,
			fake:           &fakeCheckInService{confirmErr: domain.ErrForbidden},
			wantStatus:     http.StatusForbidden,
			wantBodySubstr: "forbidden",
		},
		{
			name:           "guest regression maps to conflict",
			invitationID:   "inv-1",
			body:           `{"guest_count":1}`,
			fake:           &fakeCheckInService{confirmErr: domain.ErrGuestRegression},
			wantStatus:     http.StatusConflict,
			wantBodySubstr: "conflict",
		},
		{
			name:           "lost race maps to conflict",
			invitationID:   "inv-1",
			body:           `{"guest_count":1}`,
			fake:           &fakeCheckInService{confirmErr: domain.ErrConflict},
			wantStatus:     http.StatusConflict,
			wantBodySubstr: "retry",
		},
		{
			name:           "service error",
			invitationID:   "inv-1",
			body:           `{"guest_count":1}`,
			fake:           &fakeCheckInService{confirmErr: errors.New("db down")},
			wantStatus:     http.StatusInternalServerError,
			wantBodySubstr: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewCheckInController(testLogger, tt.fake)
			req := httptest.NewRequest(http.MethodPost, "/checkin/"+tt.invitationID, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.SetPathValue("invitationID", tt.invitationID)
			if !tt.noUserContext {
				req = req.WithContext(middleware.SetUserID(req.Context(), "user-123"))
			}
			rr := httptest.NewRecorder()

			ctrl.Confirm(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBodySubstr != "" {
				assert.Contains(t, rr.Body.String(), tt.wantBodySubstr)
			}
			if tt.check != nil {
				tt.check(t, tt.fake)
			}
		})
	}
}
