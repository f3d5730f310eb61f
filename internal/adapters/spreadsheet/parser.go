package spreadsheet

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"eventinvites/internal/domain"
)

// emailRegex accepts local@domain.tld; full RFC parsing is not attempted.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type xlsxParser struct{}

// NewRosterParser returns a RosterParser that reads the first sheet of an
// xlsx workbook. Parsing is pure: bytes in, rows or a validation error out.
func NewRosterParser() domain.RosterParser {
	return &xlsxParser{}
}

func (p *xlsxParser) Parse(data []byte) ([]domain.RosterRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []domain.RosterRow{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		// Empty file: zero data rows is a valid, empty roster.
		return []domain.RosterRow{}, nil
	}

	colIndex, missing := matchHeader(rows[0])
	if len(missing) > 0 {
		return nil, &domain.RosterValidationError{MissingColumns: missing}
	}

	var out []domain.RosterRow
	var rowErrors []string
	for i, raw := range rows[1:] {
		// The first data row is "row 2": 1-indexed, after the header.
		rowNum := i + 2
		row, rowErr := parseRow(raw, colIndex, rowNum)
		if rowErr != "" {
			rowErrors = append(rowErrors, rowErr)
			continue
		}
		out = append(out, row)
	}

	if len(rowErrors) > 0 {
		verr := &domain.RosterValidationError{RowErrors: rowErrors}
		if len(rowErrors) > domain.MaxReportedRowErrors {
			verr.RowErrors = rowErrors[:domain.MaxReportedRowErrors]
			verr.Remaining = len(rowErrors) - domain.MaxReportedRowErrors
		}
		return nil, verr
	}
	if out == nil {
		out = []domain.RosterRow{}
	}
	return out, nil
}

// matchHeader maps each required column name to its index in the header row.
// Matching is case-insensitive after trimming; column order is irrelevant.
func matchHeader(header []string) (map[string]int, []string) {
	colIndex := make(map[string]int, len(domain.RosterColumns))
	for idx, cell := range header {
		name := strings.ToLower(strings.TrimSpace(cell))
		for _, col := range domain.RosterColumns {
			if name == col {
				if _, seen := colIndex[col]; !seen {
					colIndex[col] = idx
				}
			}
		}
	}
	var missing []string
	for _, col := range domain.RosterColumns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	return colIndex, missing
}

func parseRow(raw []string, colIndex map[string]int, rowNum int) (domain.RosterRow, string) {
	cell := func(col string) string {
		idx := colIndex[col]
		if idx >= len(raw) {
			return ""
		}
		return strings.TrimSpace(raw[idx])
	}

	for _, col := range domain.RosterColumns {
		if cell(col) == "" {
			return domain.RosterRow{}, fmt.Sprintf("row %d: missing field %q", rowNum, col)
		}
	}

	email := cell(domain.RosterColumnEmail)
	if !emailRegex.MatchString(email) {
		return domain.RosterRow{}, fmt.Sprintf("row %d: invalid email %q", rowNum, email)
	}

	return domain.RosterRow{
		DNI:     cell(domain.RosterColumnDNI),
		Names:   cell(domain.RosterColumnNames),
		Program: cell(domain.RosterColumnProgram),
		Mention: cell(domain.RosterColumnMention),
		Email:   strings.ToLower(email),
	}, ""
}
