package postgres

import (
	"context"
	"database/sql"
	"errors"

	"eventinvites/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

// NewEventRepository returns a domain.EventRepository implemented with Postgres.
func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

const eventColumns = `
	id, title, description, start_date, end_date,
	link_zoom, link_google_meet, link_google_maps,
	private, require_approval, participant_limit,
	theme, image_path, owner_id, created_at, updated_at
`

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (
			title, description, start_date, end_date,
			link_zoom, link_google_meet, link_google_maps,
			private, require_approval, participant_limit,
			theme, image_path, owner_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, e.StartDate, e.EndDate,
		e.LinkZoom, e.LinkGoogleMeet, e.LinkGoogleMaps,
		e.Private, e.RequireApproval, e.ParticipantLimit,
		e.Theme, e.ImagePath, e.OwnerID, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE owner_id = $1 ORDER BY created_at DESC`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var desc, zoom, meet, maps, theme, image sql.NullString
	var limit sql.NullInt64
	err := row.Scan(
		&e.ID, &e.Title, &desc, &e.StartDate, &e.EndDate,
		&zoom, &meet, &maps,
		&e.Private, &e.RequireApproval, &limit,
		&theme, &image, &e.OwnerID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if desc.Valid {
		e.Description = &desc.String
	}
	if zoom.Valid {
		e.LinkZoom = &zoom.String
	}
	if meet.Valid {
		e.LinkGoogleMeet = &meet.String
	}
	if maps.Valid {
		e.LinkGoogleMaps = &maps.String
	}
	if limit.Valid {
		v := int(limit.Int64)
		e.ParticipantLimit = &v
	}
	if theme.Valid {
		e.Theme = &theme.String
	}
	if image.Valid {
		e.ImagePath = &image.String
	}
	return e, nil
}
