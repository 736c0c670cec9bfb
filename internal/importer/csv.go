package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

const (
	columnFullName = "full_name"
	columnDate     = "date"
)

// dateLayouts are tried in order against the optional date column.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

type row struct {
	line     int
	fullName string
	date     string
}

// parseRows reads the whole file before anything is looked up so a broken
// file never yields a partial import. Blank lines are skipped.
func parseRows(r io.Reader) ([]row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 0 // every record must match the header width

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("missing header row")
	}
	if err != nil {
		return nil, err
	}

	nameCol, dateCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case columnFullName:
			nameCol = i
		case columnDate:
			dateCol = i
		}
	}
	if nameCol < 0 {
		return nil, fmt.Errorf("header has no %q column", columnFullName)
	}

	var rows []row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}

		line, _ := cr.FieldPos(0)
		rw := row{line: line, fullName: strings.TrimSpace(rec[nameCol])}
		if dateCol >= 0 {
			rw.date = strings.TrimSpace(rec[dateCol])
		}
		rows = append(rows, rw)
	}
}

// parseDate returns the UTC instant for s, or ok=false when s is empty or
// matches none of the known layouts.
func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
