package model

import "strings"

// Person is a member record from the store. Caretakers (deacons, staff) and
// household members share the same shape; the roster is the subset tagged
// with a caretaker role.
type Person struct {
	ID          string   `json:"id" yaml:"id"`
	HouseholdID string   `json:"householdId,omitempty" yaml:"household_id,omitempty"`
	FirstName   string   `json:"firstName" yaml:"first_name"`
	LastName    string   `json:"lastName" yaml:"last_name"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	IsActive    *bool    `json:"isActive,omitempty" yaml:"is_active,omitempty"`
}

// FullName returns "First Last".
func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Deleted reports whether the record has been soft-deleted.
func (p Person) Deleted() bool {
	return p.IsActive != nil && !*p.IsActive
}

// HasTag reports whether the person carries the given tag.
func (p Person) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Household is a family unit in the store.
type Household struct {
	ID       string `json:"id"`
	LastName string `json:"lastName"`
	Notes    string `json:"notes,omitempty"`
}

// DefaultCaretakerRoles are the tags that always place a member on the
// caretaker roster.
var DefaultCaretakerRoles = []string{"deacon"}
