package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

type sheetData struct {
	name string
	rows [][]string
}

func writeXLSX(t *testing.T, sheets ...sheetData) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		require.NoError(t, err)
		for _, rowData := range s.rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "care.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "care.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

var careHeader = []string{"Last Name", "DEACON CARE  LIST", "Assigned Deacon", "Last Contact", "Last Contact Deacon", "Notes"}

func TestReadRows_XLSX(t *testing.T) {
	path := writeXLSX(t, sheetData{name: "Care", rows: [][]string{
		careHeader,
		{"Miller", "Ruth, Harry", "Smith", "11/15/2024", "Jones", "11/18 visited, stable. AS"},
		{"", "", "", "", "", "orphan note"},
		{"", "", "", "", "", ""},
		{" Baker ", "", "", "", "", ""},
	}})

	rows, err := ReadRows(path, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	r := rows[0]
	assert.Equal(t, 2, r.Line)
	assert.Equal(t, "Miller", r.LastName)
	assert.Equal(t, "Ruth, Harry", r.MemberNames)
	assert.Equal(t, "Smith", r.AssignedCaretaker)
	assert.Equal(t, "11/15/2024", r.LastContactDate)
	assert.Equal(t, "Jones", r.LastContactCaretaker)
	assert.Equal(t, "11/18 visited, stable. AS", r.Notes)
	assert.Empty(t, r.HouseholdID)
	assert.False(t, r.RecordedAt.IsZero())

	assert.Equal(t, 5, rows[1].Line)
	assert.Equal(t, "Baker", rows[1].LastName)
}

func TestReadRows_RecordedAtIsModTime(t *testing.T) {
	path := writeCSV(t, "Last Name,Notes\nMiller,called\n")
	mod := time.Date(2024, 11, 20, 9, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, mod, mod))

	rows, err := ReadRows(path, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].RecordedAt.Equal(mod))
}

func TestReadRows_SheetSelection(t *testing.T) {
	path := writeXLSX(t,
		sheetData{name: "Summary", rows: [][]string{{"Total"}, {"3"}}},
		sheetData{name: "Care", rows: [][]string{{"Last Name", "Notes"}, {"Miller", "x"}}},
	)

	rows, err := ReadRows(path, Options{SheetName: "Care"})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	rows, err = ReadRows(path, Options{SheetIndex: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = ReadRows(path, Options{SheetName: "Missing"})
	assert.ErrorContains(t, err, "not found")

	_, err = ReadRows(path, Options{SheetIndex: 5})
	assert.ErrorContains(t, err, "out of range")

	// Sheet 0 has no Last Name column.
	_, err = ReadRows(path, Options{})
	assert.ErrorContains(t, err, "Last Name")
}

func TestReadRows_CSV(t *testing.T) {
	path := writeCSV(t, "last name,NOTES,Household Id\n"+
		"Miller,\"11/18 visited, stable\",hh-1\n"+
		"Short\n")

	rows, err := ReadRows(path, Options{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "hh-1", rows[0].HouseholdID)
	assert.Equal(t, "11/18 visited, stable", rows[0].Notes)
	assert.Equal(t, "Short", rows[1].LastName)
	assert.Empty(t, rows[1].Notes)
}

func TestReadRows_CustomColumns(t *testing.T) {
	path := writeCSV(t, "Family;Comments\nMiller;called\n")

	rows, err := ReadRows(path, Options{
		Delimiter: ';',
		Columns:   Columns{LastName: "Family", Notes: "Comments"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Miller", rows[0].LastName)
	assert.Equal(t, "called", rows[0].Notes)
}

func TestReadRows_Errors(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "missing.xlsx"), Options{})
	assert.Error(t, err)

	_, err = ReadRows(writeCSV(t, ""), Options{})
	assert.ErrorContains(t, err, "no header")

	txt := filepath.Join(t.TempDir(), "care.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o600))
	_, err = ReadRows(txt, Options{})
	assert.ErrorContains(t, err, "unsupported")
}
