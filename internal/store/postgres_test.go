package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AveryRegier/actsix/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgres_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS households`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListHouseholds(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, last_name, notes FROM households`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "last_name", "notes"}).
			AddRow("h1", "Baker", "").
			AddRow("h2", "Miller", "moved in 2023"))

	got, err := s.ListHouseholds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Household{
		{ID: "h1", LastName: "Baker"},
		{ID: "h2", LastName: "Miller", Notes: "moved in 2023"},
	}, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListCaretakers(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, household_id, first_name, last_name, tags, is_active FROM members\s+WHERE is_active AND tags \?\| \$1`).
		WithArgs([]string{"deacon", "staff"}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "household_id", "first_name", "last_name", "tags", "is_active"}).
			AddRow("d1", "h9", "Amy", "Smith", []byte(`["deacon"]`), true))

	got, err := s.ListCaretakers(context.Background(), "staff")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Amy", got[0].FirstName)
	assert.Equal(t, []string{"deacon"}, got[0].Tags)
	assert.False(t, got[0].Deleted())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListContacts(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, member_ids, caretaker_ids, contact_type, summary, contact_date, follow_up\s+FROM contacts WHERE household_id = \$1`).
		WithArgs("h1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "member_ids", "caretaker_ids", "contact_type", "summary", "contact_date", "follow_up"}).
			AddRow("c1", []byte(`["m1","m2"]`), []byte(`["d1"]`), "visit", "visited", "2024-11-18T00:00:00.000Z", false))

	got, err := s.ListContacts(context.Background(), "h1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"m1", "m2"}, got[0].MemberIDs)
	assert.Equal(t, []string{"d1"}, got[0].CaretakerIDs)
	assert.Equal(t, model.ContactTypeVisit, got[0].ContactType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func validRecord() model.ContactRecord {
	return model.ContactRecord{
		MemberIDs:    []string{"m1"},
		CaretakerIDs: []string{"d1"},
		ContactType:  model.ContactTypePhone,
		Summary:      "called",
		ContactDate:  "2024-11-18T00:00:00.000Z",
	}
}

func TestPostgres_CreateContact(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT household_id FROM members WHERE id = \$1`).
		WithArgs("m1").
		WillReturnRows(pgxmock.NewRows([]string{"household_id"}).AddRow("h1"))
	mock.ExpectExec(`INSERT INTO contacts`).
		WithArgs(pgxmock.AnyArg(), "h1", []byte(`["m1"]`), []byte(`["d1"]`), "phone", "called", "2024-11-18T00:00:00.000Z", false).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.CreateContact(context.Background(), validRecord())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateContact_UnknownMember(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT household_id FROM members`).
		WithArgs("m1").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.CreateContact(context.Background(), validRecord())
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreatePerson(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO members`).
		WithArgs("m7", "h1", "Ruth", "Miller", []byte(`["deacon"]`), true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.CreatePerson(context.Background(), model.Person{ID: "m7", HouseholdID: "h1", FirstName: "Ruth", LastName: "Miller", Tags: []string{"deacon"}})
	require.NoError(t, err)
	assert.Equal(t, "m7", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}
