package actsix

import "github.com/AveryRegier/actsix/internal/model"

// Household is the API representation of a household.
type Household struct {
	ID       string `json:"_id"`
	LastName string `json:"lastName"`
	Notes    string `json:"notes,omitempty"`
}

// Member is the API representation of a person. Deacons and staff are
// members with the matching tag.
type Member struct {
	ID          string   `json:"_id"`
	HouseholdID string   `json:"householdId,omitempty"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Tags        []string `json:"tags,omitempty"`
	IsActive    *bool    `json:"isActive,omitempty"`
}

// Contact is the API representation of a contact log entry.
type Contact struct {
	ID               string   `json:"_id,omitempty"`
	MemberID         []string `json:"memberId"`
	DeaconID         []string `json:"deaconId"`
	ContactType      string   `json:"contactType"`
	Summary          string   `json:"summary"`
	ContactDate      string   `json:"contactDate"`
	FollowUpRequired bool     `json:"followUpRequired"`
}

// HouseholdList is the body of GET /api/households.
type HouseholdList struct {
	Households []Household `json:"households"`
	Count      int         `json:"count"`
}

// MemberList is the body of GET /api/households/{id}/members.
type MemberList struct {
	Members []Member `json:"members"`
	Count   int      `json:"count"`
}

// ContactList is the body of GET /api/households/{id}/contacts.
type ContactList struct {
	Contacts []Contact `json:"contacts"`
	Count    int       `json:"count"`
}

// DeaconList is the body of GET /api/deacons.
type DeaconList struct {
	Deacons []Member `json:"deacons"`
	Count   int      `json:"count"`
}

// Created is the body returned by the create endpoints.
type Created struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// ErrorBody is returned with every non-2xx response.
type ErrorBody struct {
	Error string `json:"error"`
}

// ToModel converts an API household.
func (h Household) ToModel() model.Household {
	return model.Household{ID: h.ID, LastName: h.LastName, Notes: h.Notes}
}

// HouseholdFrom converts a model household.
func HouseholdFrom(h model.Household) Household {
	return Household{ID: h.ID, LastName: h.LastName, Notes: h.Notes}
}

// ToModel converts an API member.
func (m Member) ToModel() model.Person {
	return model.Person{
		ID:          m.ID,
		HouseholdID: m.HouseholdID,
		FirstName:   m.FirstName,
		LastName:    m.LastName,
		Tags:        m.Tags,
		IsActive:    m.IsActive,
	}
}

// MemberFrom converts a model person.
func MemberFrom(p model.Person) Member {
	return Member{
		ID:          p.ID,
		HouseholdID: p.HouseholdID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Tags:        p.Tags,
		IsActive:    p.IsActive,
	}
}

// ToModel converts an API contact.
func (c Contact) ToModel() model.ContactRecord {
	return model.ContactRecord{
		ID:               c.ID,
		MemberIDs:        c.MemberID,
		CaretakerIDs:     c.DeaconID,
		ContactType:      model.ContactType(c.ContactType),
		Summary:          c.Summary,
		ContactDate:      c.ContactDate,
		FollowUpRequired: c.FollowUpRequired,
	}
}

// ContactFrom converts a model contact record.
func ContactFrom(r model.ContactRecord) Contact {
	return Contact{
		ID:               r.ID,
		MemberID:         r.MemberIDs,
		DeaconID:         r.CaretakerIDs,
		ContactType:      string(r.ContactType),
		Summary:          r.Summary,
		ContactDate:      r.ContactDate,
		FollowUpRequired: r.FollowUpRequired,
	}
}
