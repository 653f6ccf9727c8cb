package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/AveryRegier/actsix/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS households (
	id         TEXT PRIMARY KEY,
	last_name  TEXT NOT NULL,
	notes      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS members (
	id           TEXT PRIMARY KEY,
	household_id TEXT NOT NULL DEFAULT '',
	first_name   TEXT NOT NULL,
	last_name    TEXT NOT NULL,
	tags         TEXT NOT NULL DEFAULT '[]',
	is_active    INTEGER NOT NULL DEFAULT 1,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS contacts (
	id            TEXT PRIMARY KEY,
	household_id  TEXT NOT NULL,
	member_ids    TEXT NOT NULL,
	caretaker_ids TEXT NOT NULL,
	contact_type  TEXT NOT NULL,
	summary       TEXT NOT NULL,
	contact_date  TEXT NOT NULL,
	follow_up     INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_households_last_name ON households(last_name);
CREATE INDEX IF NOT EXISTS idx_members_household_id ON members(household_id);
CREATE INDEX IF NOT EXISTS idx_contacts_household_id ON contacts(household_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateHousehold(ctx context.Context, h model.Household) (string, error) {
	if h.LastName == "" {
		return "", eris.New("sqlite: household needs a last name")
	}
	id := h.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO households (id, last_name, notes, created_at) VALUES (?, ?, ?, ?)`,
		id, h.LastName, h.Notes, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert household")
	}
	return id, nil
}

func (s *SQLiteStore) CreatePerson(ctx context.Context, p model.Person) (string, error) {
	if err := validatePerson(p); err != nil {
		return "", err
	}
	tags, err := encodeList(p.Tags)
	if err != nil {
		return "", err
	}
	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO members (id, household_id, first_name, last_name, tags, is_active, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, p.HouseholdID, p.FirstName, p.LastName, string(tags), !p.Deleted(), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert member")
	}
	return id, nil
}

func (s *SQLiteStore) ListHouseholds(ctx context.Context) ([]model.Household, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, last_name, notes FROM households ORDER BY last_name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list households")
	}
	defer rows.Close()

	var out []model.Household
	for rows.Next() {
		var h model.Household
		if err := rows.Scan(&h.ID, &h.LastName, &h.Notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan household")
		}
		out = append(out, h)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list households iterate")
}

const sqliteMemberColumns = `id, household_id, first_name, last_name, tags, is_active`

func (s *SQLiteStore) ListMembers(ctx context.Context, householdID string) ([]model.Person, error) {
	return s.queryMembers(ctx,
		`SELECT `+sqliteMemberColumns+` FROM members WHERE household_id = ? ORDER BY created_at, id`, householdID)
}

func (s *SQLiteStore) ListCaretakers(ctx context.Context, extraRoles ...string) ([]model.Person, error) {
	all, err := s.queryMembers(ctx,
		`SELECT `+sqliteMemberColumns+` FROM members WHERE is_active = 1 ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, err
	}
	roles := caretakerRoles(extraRoles)
	var out []model.Person
	for _, p := range all {
		if onRoster(p, roles) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *SQLiteStore) queryMembers(ctx context.Context, query string, args ...any) ([]model.Person, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list members")
	}
	defer rows.Close()

	var out []model.Person
	for rows.Next() {
		var (
			p      model.Person
			tags   string
			active bool
		)
		if err := rows.Scan(&p.ID, &p.HouseholdID, &p.FirstName, &p.LastName, &tags, &active); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan member")
		}
		if p.Tags, err = decodeList([]byte(tags)); err != nil {
			return nil, err
		}
		p.IsActive = &active
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list members iterate")
}

func (s *SQLiteStore) ListContacts(ctx context.Context, householdID string) ([]model.ContactRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, member_ids, caretaker_ids, contact_type, summary, contact_date, follow_up
		FROM contacts WHERE household_id = ? ORDER BY contact_date, created_at`, householdID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contacts")
	}
	defer rows.Close()

	var out []model.ContactRecord
	for rows.Next() {
		var (
			c                model.ContactRecord
			members, careIDs string
			kind             string
		)
		if err := rows.Scan(&c.ID, &members, &careIDs, &kind, &c.Summary, &c.ContactDate, &c.FollowUpRequired); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contact")
		}
		c.ContactType = model.ContactType(kind)
		if c.MemberIDs, err = decodeList([]byte(members)); err != nil {
			return nil, err
		}
		if c.CaretakerIDs, err = decodeList([]byte(careIDs)); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list contacts iterate")
}

// CreateContact files the contact under the household of its first member.
func (s *SQLiteStore) CreateContact(ctx context.Context, rec model.ContactRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}

	var householdID string
	err := s.db.QueryRowContext(ctx, `SELECT household_id FROM members WHERE id = ?`, rec.MemberIDs[0]).Scan(&householdID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", eris.Wrapf(ErrNotFound, "sqlite: member %s", rec.MemberIDs[0])
	}
	if err != nil {
		return "", eris.Wrap(err, "sqlite: lookup member household")
	}

	members, err := encodeList(rec.MemberIDs)
	if err != nil {
		return "", err
	}
	careIDs, err := encodeList(rec.CaretakerIDs)
	if err != nil {
		return "", err
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO contacts (id, household_id, member_ids, caretaker_ids, contact_type, summary, contact_date, follow_up, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, householdID, string(members), string(careIDs), string(rec.ContactType), rec.Summary, rec.ContactDate,
		rec.FollowUpRequired, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert contact")
	}
	return id, nil
}
