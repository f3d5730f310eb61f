package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"eventinvites/internal/domain"
)

const (
	// sendBatchSize invitations are sent concurrently per batch; batches are
	// separated by the pacing delay to respect downstream rate limits.
	sendBatchSize = 10
	// DefaultSendPacing is the inter-batch delay used when the caller does
	// not specify one.
	DefaultSendPacing = 100 * time.Millisecond

	listPageSize = 100
)

type invitationMailService struct {
	eventRepo      domain.EventRepository
	invitationRepo domain.InvitationRepository
	emailService   domain.EmailService
	qr             domain.QRGenerator
	publicURL      string
	logger         *slog.Logger
	sleep          func(time.Duration)
}

// NewInvitationMailService creates an InvitationMailService. publicURL is the
// base URL used to build the event link included in emails.
func NewInvitationMailService(
	eventRepo domain.EventRepository,
	invitationRepo domain.InvitationRepository,
	emailService domain.EmailService,
	qr domain.QRGenerator,
	publicURL string,
	logger *slog.Logger,
) domain.InvitationMailService {
	return &invitationMailService{
		eventRepo:      eventRepo,
		invitationRepo: invitationRepo,
		emailService:   emailService,
		qr:             qr,
		publicURL:      publicURL,
		logger:         logger,
		sleep:          time.Sleep,
	}
}

func (s *invitationMailService) SendInvitation(ctx context.Context, invitationID, actingUserID string) error {
	rec, err := s.invitationRepo.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get invitation: %w", err)
	}
	if rec.EventOwnerID != actingUserID {
		return domain.ErrForbidden
	}
	event, err := s.eventRepo.GetByID(ctx, rec.Invitation.EventID)
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	if err := s.sendOne(ctx, event, rec.Invitation); err != nil {
		return err
	}
	return nil
}

func (s *invitationMailService) SendAll(ctx context.Context, eventID, actingUserID string, pacing time.Duration) (*domain.SendReport, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != actingUserID {
		return nil, domain.ErrForbidden
	}

	invitations, err := s.listAll(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if len(invitations) == 0 {
		return nil, fmt.Errorf("%w: event has no invitations", domain.ErrInvalidInput)
	}
	if pacing <= 0 {
		pacing = DefaultSendPacing
	}

	report := &domain.SendReport{
		Total:   len(invitations),
		Results: make([]domain.SendItemResult, len(invitations)),
	}
	for start := 0; start < len(invitations); start += sendBatchSize {
		end := start + sendBatchSize
		if end > len(invitations) {
			end = len(invitations)
		}

		// Each batch is sent concurrently; per-item failures are recorded
		// and never abort the batch.
		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				inv := invitations[i]
				result := domain.SendItemResult{InvitationID: inv.ID, Email: inv.Email}
				if err := s.sendOne(ctx, event, inv); err != nil {
					result.Error = err.Error()
					s.logger.Warn("invitation send failed", "invitation_id", inv.ID, "to", inv.Email, "err", err)
				} else {
					result.Sent = true
				}
				report.Results[i] = result
			}(i)
		}
		wg.Wait()

		if end < len(invitations) {
			s.sleep(pacing)
		}
	}

	for _, r := range report.Results {
		if r.Sent {
			report.Sent++
		} else {
			report.Failed++
		}
	}
	s.logger.Info("invitation batch send completed",
		"event_id", eventID, "total", report.Total, "sent", report.Sent, "failed", report.Failed)
	return report, nil
}

func (s *invitationMailService) listAll(ctx context.Context, eventID string) ([]*domain.Invitation, error) {
	var all []*domain.Invitation
	for page := 1; ; page++ {
		invs, _, err := s.invitationRepo.ListByEventID(ctx, eventID, domain.PaginationParams{Page: page, PageSize: listPageSize})
		if err != nil {
			return nil, fmt.Errorf("list invitations: %w", err)
		}
		all = append(all, invs...)
		if len(invs) < listPageSize {
			return all, nil
		}
	}
}

func (s *invitationMailService) sendOne(ctx context.Context, event *domain.Event, inv *domain.Invitation) error {
	png, err := s.qr.Generate(inv.Code)
	if err != nil {
		return fmt.Errorf("generate qr: %w", err)
	}
	data := &domain.InvitationEmailData{
		Email:      inv.Email,
		Names:      inv.Names,
		EventTitle: event.Title,
		StartDate:  event.StartDate.Format("Monday, 2 January 2006 15:04"),
		EndDate:    event.EndDate.Format("Monday, 2 January 2006 15:04"),
		EventLink:  fmt.Sprintf("%s/event/%s", s.publicURL, event.ID),
		QRDataURI:  "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}
	if event.Description != nil {
		data.EventDescription = *event.Description
	}
	if err := s.emailService.SendEventInvitation(ctx, data); err != nil {
		return err
	}
	if err := s.invitationRepo.MarkSent(ctx, inv.ID, time.Now()); err != nil {
		// The email went out; a failed bookkeeping update should not fail the send.
		s.logger.Warn("mark sent failed", "invitation_id", inv.ID, "err", err)
	}
	return nil
}
