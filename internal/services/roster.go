package services

import (
	"context"

	"eventinvites/internal/domain"
)

type rosterService struct {
	parser domain.RosterParser
}

// NewRosterService creates a RosterService on top of the given parser.
func NewRosterService(parser domain.RosterParser) domain.RosterService {
	return &rosterService{parser: parser}
}

// Ingest parses and validates the roster, then deduplicates by DNI.
// Validation failures short-circuit before dedup: either the whole file
// parses cleanly or the upload is rejected.
func (s *rosterService) Ingest(ctx context.Context, data []byte) (*domain.RosterIngestResult, error) {
	rows, err := s.parser.Parse(data)
	if err != nil {
		return nil, err
	}
	deduped, removed := dedupByDNI(rows)
	return &domain.RosterIngestResult{
		Rows:              deduped,
		DuplicatesRemoved: removed,
	}, nil
}

// dedupByDNI drops rows whose DNI was already seen. First occurrence wins,
// in input order, which keeps ingestion deterministic.
func dedupByDNI(rows []domain.RosterRow) ([]domain.RosterRow, int) {
	seen := make(map[string]struct{}, len(rows))
	out := make([]domain.RosterRow, 0, len(rows))
	removed := 0
	for _, row := range rows {
		if _, dup := seen[row.DNI]; dup {
			removed++
			continue
		}
		seen[row.DNI] = struct{}{}
		out = append(out, row)
	}
	return out, removed
}
