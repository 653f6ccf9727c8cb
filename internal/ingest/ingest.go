// Package ingest reads care-list spreadsheets into model rows.
package ingest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/AveryRegier/actsix/internal/model"
)

// Columns names the header cells that feed each Row field.
type Columns struct {
	LastName             string `mapstructure:"last_name"`
	Notes                string `mapstructure:"notes"`
	LastContactDate      string `mapstructure:"last_contact"`
	LastContactCaretaker string `mapstructure:"last_contact_caretaker"`
	AssignedCaretaker    string `mapstructure:"assigned_caretaker"`
	MemberNames          string `mapstructure:"members"`
	HouseholdID          string `mapstructure:"household_id"`
}

// DefaultColumns matches the headers of the congregation's care list.
var DefaultColumns = Columns{
	LastName:             "Last Name",
	Notes:                "Notes",
	LastContactDate:      "Last Contact",
	LastContactCaretaker: "Last Contact Deacon",
	AssignedCaretaker:    "Assigned Deacon",
	MemberNames:          "DEACON CARE  LIST",
	HouseholdID:          "Household Id",
}

// Options configures ReadRows.
type Options struct {
	SheetIndex int    // default 0
	SheetName  string // if set, overrides SheetIndex
	Delimiter  rune   // csv only, default ','
	Columns    Columns
}

// ReadRows reads a .xlsx or .csv care list and maps it to rows. The first
// row is the header. Rows without a last name are skipped.
func ReadRows(path string, opts Options) ([]model.Row, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: stat")
	}

	var raw [][]string
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx":
		raw, err = readXLSX(path, opts)
	case ".csv":
		raw, err = readCSV(path, opts)
	default:
		return nil, eris.Errorf("ingest: unsupported file type %q", ext)
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, eris.New("ingest: file has no header row")
	}

	m, err := newMapper(raw[0], withDefaults(opts.Columns))
	if err != nil {
		return nil, err
	}

	rows := make([]model.Row, 0, len(raw)-1)
	for i, cells := range raw[1:] {
		line := i + 2
		if blank(cells) {
			continue
		}
		row := m.row(cells)
		if row.LastName == "" {
			zap.L().Warn("ingest: row has no last name, skipping", zap.Int("line", line))
			continue
		}
		row.Line = line
		row.RecordedAt = info.ModTime()
		rows = append(rows, row)
	}
	return rows, nil
}

func withDefaults(c Columns) Columns {
	def := DefaultColumns
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return v
	}
	return Columns{
		LastName:             pick(c.LastName, def.LastName),
		Notes:                pick(c.Notes, def.Notes),
		LastContactDate:      pick(c.LastContactDate, def.LastContactDate),
		LastContactCaretaker: pick(c.LastContactCaretaker, def.LastContactCaretaker),
		AssignedCaretaker:    pick(c.AssignedCaretaker, def.AssignedCaretaker),
		MemberNames:          pick(c.MemberNames, def.MemberNames),
		HouseholdID:          pick(c.HouseholdID, def.HouseholdID),
	}
}

// mapper holds header positions. Missing optional columns are -1.
type mapper struct {
	lastName, notes, lastContact, lastCaretaker, assigned, members, householdID int
}

func newMapper(header []string, cols Columns) (*mapper, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := headerKey(h)
		if _, seen := pos[key]; !seen {
			pos[key] = i
		}
	}
	find := func(name string) int {
		if i, ok := pos[headerKey(name)]; ok {
			return i
		}
		return -1
	}

	m := &mapper{
		lastName:      find(cols.LastName),
		notes:         find(cols.Notes),
		lastContact:   find(cols.LastContactDate),
		lastCaretaker: find(cols.LastContactCaretaker),
		assigned:      find(cols.AssignedCaretaker),
		members:       find(cols.MemberNames),
		householdID:   find(cols.HouseholdID),
	}
	if m.lastName < 0 {
		return nil, eris.Errorf("ingest: header has no %q column", cols.LastName)
	}
	if m.notes < 0 {
		return nil, eris.Errorf("ingest: header has no %q column", cols.Notes)
	}
	return m, nil
}

func (m *mapper) row(cells []string) model.Row {
	get := func(i int) string {
		if i < 0 || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}
	return model.Row{
		HouseholdID:          get(m.householdID),
		LastName:             get(m.lastName),
		Notes:                get(m.notes),
		LastContactDate:      get(m.lastContact),
		LastContactCaretaker: get(m.lastCaretaker),
		AssignedCaretaker:    get(m.assigned),
		MemberNames:          get(m.members),
	}
}

// headerKey compares headers case-insensitively. Inner whitespace is kept
// as-is since the care list relies on "DEACON CARE  LIST" with two spaces.
func headerKey(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
