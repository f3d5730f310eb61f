package domain

import (
	"context"
	"time"
)

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// QRGenerator encodes content into a PNG QR image.
type QRGenerator interface {
	Generate(content string) ([]byte, error)
}

// BlobStore persists uploaded files (event images) and returns a path that
// can later be served or deleted.
type BlobStore interface {
	Save(data []byte, originalName string) (path string, err error)
	Delete(path string) error
}

// InvitationEmailData holds data for the event invitation email. QRDataURI
// is a base64 PNG data URI embedding the scannable invitation code.
type InvitationEmailData struct {
	Email            string
	Names            string
	EventTitle       string
	EventDescription string
	StartDate        string
	EndDate          string
	EventLink        string
	QRDataURI        string
}

// VerificationCodeEmailData holds data for the email verification code email.
type VerificationCodeEmailData struct {
	Email            string
	Code             string
	ExpiresInMinutes int
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendEventInvitation(ctx context.Context, data *InvitationEmailData) error
	SendVerificationCode(ctx context.Context, data *VerificationCodeEmailData) error
}

// SendItemResult is the per-invitation outcome of a batch send.
type SendItemResult struct {
	InvitationID string `json:"invitation_id"`
	Email        string `json:"email"`
	Sent         bool   `json:"sent"`
	Error        string `json:"error,omitempty"`
}

// SendReport aggregates a batch invitation send. Per-item failures do not
// abort the batch.
type SendReport struct {
	Total   int              `json:"total"`
	Sent    int              `json:"sent"`
	Failed  int              `json:"failed"`
	Results []SendItemResult `json:"results"`
}

// InvitationMailService produces and sends invitation emails with the
// generated scan code embedded as a QR image.
type InvitationMailService interface {
	// SendInvitation (re)sends a single invitation; owner only.
	SendInvitation(ctx context.Context, invitationID, actingUserID string) error
	// SendAll sends every invitation of the event in fixed-size batches with
	// an inter-batch pacing delay to respect downstream rate limits.
	SendAll(ctx context.Context, eventID, actingUserID string, pacing time.Duration) (*SendReport, error)
}
