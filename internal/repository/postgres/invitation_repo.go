package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"eventinvites/internal/domain"
)

type invitationRepository struct {
	DB *sql.DB
}

// NewInvitationRepository returns a domain.InvitationRepository implemented
// with Postgres. The check-in state is stored in the two legacy columns
// scanned and guest.
func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{
		DB: db,
	}
}

const invitationWithOwnerQuery = `
	SELECT i.id, i.event_id, i.code, i.dni, i.names, i.program, i.mention, i.email,
	       i.scanned, i.guest, i.sent_at, i.created_at, i.updated_at,
	       e.title, e.owner_id
	FROM invitations i
	JOIN events e ON e.id = i.event_id
`

func (r *invitationRepository) GetByCode(ctx context.Context, code string) (*domain.InvitationWithOwner, error) {
	return r.getOne(ctx, invitationWithOwnerQuery+` WHERE i.code = $1`, code)
}

func (r *invitationRepository) GetByDNI(ctx context.Context, dni string) (*domain.InvitationWithOwner, error) {
	return r.getOne(ctx, invitationWithOwnerQuery+` WHERE i.dni = $1`, dni)
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.InvitationWithOwner, error) {
	return r.getOne(ctx, invitationWithOwnerQuery+` WHERE i.id = $1`, id)
}

func (r *invitationRepository) getOne(ctx context.Context, query string, arg any) (*domain.InvitationWithOwner, error) {
	inv := &domain.Invitation{}
	out := &domain.InvitationWithOwner{Invitation: inv}
	var sentAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&inv.ID, &inv.EventID, &inv.Code, &inv.DNI, &inv.Names, &inv.Program, &inv.Mention, &inv.Email,
		&inv.Scanned, &inv.GuestCount, &sentAt, &inv.CreatedAt, &inv.UpdatedAt,
		&out.EventTitle, &out.EventOwnerID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if sentAt.Valid {
		inv.SentAt = &sentAt.Time
	}
	return out, nil
}

func (r *invitationRepository) CreateMany(ctx context.Context, invs []*domain.Invitation) error {
	if len(invs) == 0 {
		return nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO invitations (
			event_id, code, dni, names, program, mention, email,
			scanned, guest, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, 0, $8, $9)
		RETURNING id
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, inv := range invs {
		err := stmt.QueryRowContext(ctx,
			inv.EventID, inv.Code, inv.DNI, inv.Names, inv.Program, inv.Mention, inv.Email,
			inv.CreatedAt, inv.UpdatedAt,
		).Scan(&inv.ID)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
				return fmt.Errorf("%w: %s (DNI %s) is already invited", domain.ErrInvalidInput, inv.Email, inv.DNI)
			}
			return fmt.Errorf("insert invitation for %s: %w", inv.Email, err)
		}
	}
	return tx.Commit()
}

func (r *invitationRepository) ListByEventID(ctx context.Context, eventID string, p domain.PaginationParams) ([]*domain.Invitation, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM invitations WHERE event_id = $1`
	if err := r.DB.QueryRowContext(ctx, countQuery, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, event_id, code, dni, names, program, mention, email,
		       scanned, guest, sent_at, created_at, updated_at
		FROM invitations
		WHERE event_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, p.Limit(20), p.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	invs := make([]*domain.Invitation, 0)
	for rows.Next() {
		inv := &domain.Invitation{}
		var sentAt sql.NullTime
		if err := rows.Scan(
			&inv.ID, &inv.EventID, &inv.Code, &inv.DNI, &inv.Names, &inv.Program, &inv.Mention, &inv.Email,
			&inv.Scanned, &inv.GuestCount, &sentAt, &inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		if sentAt.Valid {
			inv.SentAt = &sentAt.Time
		}
		invs = append(invs, inv)
	}
	return invs, total, rows.Err()
}

// ConfirmCheckIn is a compare-and-set: the update only applies while the row
// still carries the prior observed state, so two concurrent confirmations
// cannot silently overwrite each other's guest count.
func (r *invitationRepository) ConfirmCheckIn(ctx context.Context, id string, guestCount int, priorScanned bool, priorGuestCount int) error {
	query := `
		UPDATE invitations
		SET scanned = TRUE, guest = $2, updated_at = NOW()
		WHERE id = $1 AND scanned = $3 AND guest = $4
	`
	result, err := r.DB.ExecContext(ctx, query, id, guestCount, priorScanned, priorGuestCount)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *invitationRepository) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	query := `UPDATE invitations SET sent_at = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.DB.ExecContext(ctx, query, id, sentAt)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
