package services

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"eventinvites/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// invitationTemplateData mirrors domain.InvitationEmailData with the QR data
// URI typed as template.URL so html/template does not sanitize the img src.
type invitationTemplateData struct {
	Names            string
	EventTitle       string
	EventDescription string
	StartDate        string
	EndDate          string
	EventLink        string
	QRDataURI        template.URL
}

// SendEventInvitation sends the invitation email using the "invitation" template.
func (s *emailService) SendEventInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("invitation email data is nil")
	}
	tmplData := invitationTemplateData{
		Names:            data.Names,
		EventTitle:       data.EventTitle,
		EventDescription: data.EventDescription,
		StartDate:        data.StartDate,
		EndDate:          data.EndDate,
		EventLink:        data.EventLink,
		QRDataURI:        template.URL(data.QRDataURI),
	}
	subject, htmlBody, textBody, err := s.renderer.Render("invitation", tmplData)
	if err != nil {
		return fmt.Errorf("failed to render invitation template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send invitation email: %w", err)
	}
	s.logger.Info("invitation email sent", "to", data.Email, "event", data.EventTitle)
	return nil
}

// SendVerificationCode sends the email verification code using the
// "verification_code" template.
func (s *emailService) SendVerificationCode(ctx context.Context, data *domain.VerificationCodeEmailData) error {
	if data == nil {
		return fmt.Errorf("verification code email data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("verification_code", data)
	if err != nil {
		return fmt.Errorf("failed to render verification_code template: %w", err)
	}
	if err := s.mailer.Send(data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("failed to send verification code email: %w", err)
	}
	s.logger.Info("verification code sent", "to", data.Email)
	return nil
}
