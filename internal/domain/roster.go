package domain

import (
	"context"
	"fmt"
	"strings"
)

// Required roster column headers, matched case-insensitively after trimming.
// Column order in the file is irrelevant.
const (
	RosterColumnDNI     = "dni"
	RosterColumnNames   = "nombre y apellidos"
	RosterColumnProgram = "programa"
	RosterColumnMention = "mencion"
	RosterColumnEmail   = "correo"
)

// RosterColumns lists the required headers in canonical order.
var RosterColumns = []string{
	RosterColumnDNI,
	RosterColumnNames,
	RosterColumnProgram,
	RosterColumnMention,
	RosterColumnEmail,
}

// RosterRow is one validated invitee parsed from an uploaded roster. It is
// ephemeral: it becomes an Invitation only after validation and dedup.
type RosterRow struct {
	DNI     string
	Names   string
	Program string
	Mention string
	Email   string
}

// RosterValidationError is the structured failure of a roster ingestion.
// Ingestion is all-or-nothing: either every row parses cleanly or the whole
// upload is rejected with the collected row errors.
type RosterValidationError struct {
	// MissingColumns is set when required headers are absent; no rows are
	// processed in that case.
	MissingColumns []string
	// RowErrors holds at most MaxReportedRowErrors row-level messages.
	RowErrors []string
	// Remaining counts row errors beyond the reported ones.
	Remaining int
}

// MaxReportedRowErrors caps how many row-level errors are reported verbatim.
const MaxReportedRowErrors = 5

func (e *RosterValidationError) Error() string {
	if len(e.MissingColumns) > 0 {
		return fmt.Sprintf("missing required columns: %s", strings.Join(e.MissingColumns, ", "))
	}
	msg := strings.Join(e.RowErrors, "; ")
	if e.Remaining > 0 {
		msg = fmt.Sprintf("%s; and %d more error(s)", msg, e.Remaining)
	}
	return msg
}

// RosterParser converts raw spreadsheet bytes into validated rows. It is a
// pure function of its input: no file I/O, no persistence. Only the first
// sheet is read.
type RosterParser interface {
	Parse(data []byte) ([]RosterRow, error)
}

// RosterIngestResult is the outcome of a successful ingestion.
type RosterIngestResult struct {
	Rows              []RosterRow
	DuplicatesRemoved int
}

// RosterService validates and deduplicates an uploaded roster.
type RosterService interface {
	// Ingest parses and validates the roster, then removes rows whose DNI
	// was already seen (first occurrence wins, in file order). Returns a
	// *RosterValidationError when the file is rejected.
	Ingest(ctx context.Context, data []byte) (*RosterIngestResult, error)
}
