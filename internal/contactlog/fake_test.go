package contactlog

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/AveryRegier/actsix/internal/model"
)

// fakeStore is an in-memory RecordStore for tests.
type fakeStore struct {
	households []model.Household
	members    map[string][]model.Person
	contacts   map[string][]model.ContactRecord
	roster     []model.Person

	rosterErr, membersErr, contactsErr, createErr error
	failCreateSummary                              string

	created    []model.ContactRecord
	rosterArgs []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:  make(map[string][]model.Person),
		contacts: make(map[string][]model.ContactRecord),
	}
}

func (f *fakeStore) addHousehold(id, lastName string, members ...model.Person) {
	f.households = append(f.households, model.Household{ID: id, LastName: lastName})
	for i := range members {
		members[i].HouseholdID = id
	}
	f.members[id] = members
}

func (f *fakeStore) ListHouseholds(_ context.Context) ([]model.Household, error) {
	return f.households, nil
}

func (f *fakeStore) ListMembers(_ context.Context, householdID string) ([]model.Person, error) {
	if f.membersErr != nil {
		return nil, f.membersErr
	}
	return f.members[householdID], nil
}

func (f *fakeStore) ListContacts(_ context.Context, householdID string) ([]model.ContactRecord, error) {
	if f.contactsErr != nil {
		return nil, f.contactsErr
	}
	return f.contacts[householdID], nil
}

func (f *fakeStore) CreateContact(_ context.Context, rec model.ContactRecord) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	if f.failCreateSummary != "" && rec.Summary == f.failCreateSummary {
		return "", eris.New("fake: rejected")
	}
	rec.ID = fmt.Sprintf("c-%d", len(f.created)+1)
	f.created = append(f.created, rec)
	for hh, members := range f.members {
		for _, m := range members {
			if len(rec.MemberIDs) > 0 && m.ID == rec.MemberIDs[0] {
				f.contacts[hh] = append(f.contacts[hh], rec)
			}
		}
	}
	return rec.ID, nil
}

func (f *fakeStore) ListCaretakers(_ context.Context, extraRoles ...string) ([]model.Person, error) {
	f.rosterArgs = extraRoles
	if f.rosterErr != nil {
		return nil, f.rosterErr
	}
	return f.roster, nil
}
