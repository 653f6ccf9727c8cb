// Package contactlog converts care-list rows into contact records. It
// builds a per-row resolution context from the record store, runs each
// row's notes through the notes accumulator, suppresses duplicates and
// submits what remains.
package contactlog

import (
	"context"

	"github.com/AveryRegier/actsix/internal/model"
)

// RecordStore is the record store as the importer sees it.
type RecordStore interface {
	ListHouseholds(ctx context.Context) ([]model.Household, error)
	ListMembers(ctx context.Context, householdID string) ([]model.Person, error)
	ListContacts(ctx context.Context, householdID string) ([]model.ContactRecord, error)
	CreateContact(ctx context.Context, rec model.ContactRecord) (string, error)
	// ListCaretakers returns members tagged deacon plus any extra roles.
	ListCaretakers(ctx context.Context, extraRoles ...string) ([]model.Person, error)
}
