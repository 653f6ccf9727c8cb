package model

import "time"

// Row is one household's line from the care list. Rows are read-only once
// ingested.
type Row struct {
	Line                 int       `json:"line"`
	HouseholdID          string    `json:"householdId,omitempty"`
	LastName             string    `json:"lastName"`
	Notes                string    `json:"notes"`
	LastContactDate      string    `json:"lastContactDate,omitempty"`
	LastContactCaretaker string    `json:"lastContactCaretaker,omitempty"`
	AssignedCaretaker    string    `json:"assignedCaretaker,omitempty"`
	MemberNames          string    `json:"memberNames,omitempty"`
	RecordedAt           time.Time `json:"recordedAt,omitempty"`
}
