package notes

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// excelEpoch is day zero of spreadsheet serial dates (1900 date system,
// including the 1900 leap-year quirk).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// maxExcelSerial is 9999-12-31.
const maxExcelSerial = 2958465

var lastContactLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseLastContact decodes a care list's "last contact" cell. The cell holds
// either a spreadsheet serial day number or a date-like string. The note
// grammar is tried first so "5.3" stays a day.month date.
func (p *DateParser) ParseLastContact(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, ok := p.Parse(raw); ok {
		return t, true
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		return p.fromSerial(serial)
	}
	for _, layout := range lastContactLayouts {
		if t, err := time.ParseInLocation(layout, raw, p.loc()); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, p.loc()), true
		}
	}
	return time.Time{}, false
}

func (p *DateParser) fromSerial(serial float64) (time.Time, bool) {
	if serial < 1 || serial > maxExcelSerial || math.IsNaN(serial) {
		return time.Time{}, false
	}
	y, m, d := excelEpoch.AddDate(0, 0, int(serial)).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.loc()), true
}
