package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// ContactType classifies how a household was contacted.
type ContactType string

const (
	ContactTypePhone     ContactType = "phone"
	ContactTypeVisit     ContactType = "visit"
	ContactTypeChurch    ContactType = "church"
	ContactTypeVoicemail ContactType = "voicemail"
)

// Valid reports whether the store accepts the contact type.
func (t ContactType) Valid() bool {
	switch t {
	case ContactTypePhone, ContactTypeVisit, ContactTypeChurch, ContactTypeVoicemail:
		return true
	}
	return false
}

// ContactDateLayout is the ISO-8601 form the store writes for contact dates.
const ContactDateLayout = "2006-01-02T15:04:05.000Z07:00"

// ContactRecord is one entry in a household's contact log.
type ContactRecord struct {
	ID               string      `json:"id,omitempty"`
	MemberIDs        []string    `json:"memberIds"`
	CaretakerIDs     []string    `json:"caretakerIds"`
	ContactType      ContactType `json:"contactType"`
	Summary          string      `json:"summary"`
	ContactDate      string      `json:"contactDate"`
	FollowUpRequired bool        `json:"followUpRequired"`
}

// FormatContactDate renders t in the store's ISO-8601 form, always in UTC.
func FormatContactDate(t time.Time) string {
	return t.UTC().Format(ContactDateLayout)
}

// ParseContactDate parses a stored contact date. Both full timestamps and
// bare YYYY-MM-DD values appear in historical data; values without a zone
// are read as UTC.
func ParseContactDate(s string) (time.Time, error) {
	return ParseContactDateIn(s, time.UTC)
}

// ParseContactDateIn is ParseContactDate with values that carry no zone
// read in loc, so a bare "2024-10-01" stays on that calendar day there.
func ParseContactDateIn(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, eris.Errorf("model: unparseable contact date %q", s)
}

// Validate checks the fields the store requires on insert.
func (c ContactRecord) Validate() error {
	if len(c.MemberIDs) == 0 {
		return eris.New("model: contact requires at least one member id")
	}
	if len(c.CaretakerIDs) == 0 {
		return eris.New("model: contact requires at least one caretaker id")
	}
	if !c.ContactType.Valid() {
		return eris.Errorf("model: invalid contact type %q", c.ContactType)
	}
	if c.Summary == "" {
		return eris.New("model: contact requires a summary")
	}
	if _, err := ParseContactDate(c.ContactDate); err != nil {
		return err
	}
	return nil
}
