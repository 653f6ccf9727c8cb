package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/AveryRegier/actsix/internal/model"
)

// pgPool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it.
type pgPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool pgPool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 4
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS households (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	last_name  TEXT NOT NULL,
	notes      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS members (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	household_id TEXT NOT NULL DEFAULT '',
	first_name   TEXT NOT NULL,
	last_name    TEXT NOT NULL,
	tags         JSONB NOT NULL DEFAULT '[]',
	is_active    BOOLEAN NOT NULL DEFAULT true,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS contacts (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	household_id  TEXT NOT NULL,
	member_ids    JSONB NOT NULL,
	caretaker_ids JSONB NOT NULL,
	contact_type  TEXT NOT NULL,
	summary       TEXT NOT NULL,
	contact_date  TEXT NOT NULL,
	follow_up     BOOLEAN NOT NULL DEFAULT false,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_households_last_name ON households(last_name);
CREATE INDEX IF NOT EXISTS idx_members_household_id ON members(household_id);
CREATE INDEX IF NOT EXISTS idx_members_tags ON members USING gin (tags);
CREATE INDEX IF NOT EXISTS idx_contacts_household_id ON contacts(household_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateHousehold(ctx context.Context, h model.Household) (string, error) {
	if h.LastName == "" {
		return "", eris.New("postgres: household needs a last name")
	}
	id := h.ID
	if id == "" {
		id = uuid.New().String()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO households (id, last_name, notes) VALUES ($1, $2, $3)`,
		id, h.LastName, h.Notes,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert household")
	}
	return id, nil
}

func (s *PostgresStore) CreatePerson(ctx context.Context, p model.Person) (string, error) {
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
	_, err = s.pool.Exec(ctx,
		`INSERT INTO members (id, household_id, first_name, last_name, tags, is_active) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, p.HouseholdID, p.FirstName, p.LastName, tags, !p.Deleted(),
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert member")
	}
	return id, nil
}

func (s *PostgresStore) ListHouseholds(ctx context.Context) ([]model.Household, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, last_name, notes FROM households ORDER BY last_name, id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list households")
	}
	defer rows.Close()

	var out []model.Household
	for rows.Next() {
		var h model.Household
		if err := rows.Scan(&h.ID, &h.LastName, &h.Notes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan household")
		}
		out = append(out, h)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list households iterate")
}

const postgresMemberColumns = `id, household_id, first_name, last_name, tags, is_active`

func (s *PostgresStore) ListMembers(ctx context.Context, householdID string) ([]model.Person, error) {
	return s.queryMembers(ctx,
		`SELECT `+postgresMemberColumns+` FROM members WHERE household_id = $1 ORDER BY created_at, id`, householdID)
}

// ListCaretakers filters on the tags column in SQL; roles match exactly as
// stored.
func (s *PostgresStore) ListCaretakers(ctx context.Context, extraRoles ...string) ([]model.Person, error) {
	roles := caretakerRoles(extraRoles)
	return s.queryMembers(ctx,
		`SELECT `+postgresMemberColumns+` FROM members
		WHERE is_active AND tags ?| $1
		ORDER BY last_name, first_name, id`, roles)
}

func (s *PostgresStore) queryMembers(ctx context.Context, query string, args ...any) ([]model.Person, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list members")
	}
	defer rows.Close()

	var out []model.Person
	for rows.Next() {
		var (
			p      model.Person
			tags   []byte
			active bool
		)
		if err := rows.Scan(&p.ID, &p.HouseholdID, &p.FirstName, &p.LastName, &tags, &active); err != nil {
			return nil, eris.Wrap(err, "postgres: scan member")
		}
		if p.Tags, err = decodeList(tags); err != nil {
			return nil, err
		}
		p.IsActive = &active
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list members iterate")
}

func (s *PostgresStore) ListContacts(ctx context.Context, householdID string) ([]model.ContactRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, member_ids, caretaker_ids, contact_type, summary, contact_date, follow_up
		FROM contacts WHERE household_id = $1 ORDER BY contact_date, created_at`, householdID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contacts")
	}
	defer rows.Close()

	var out []model.ContactRecord
	for rows.Next() {
		var (
			c                model.ContactRecord
			members, careIDs []byte
			kind             string
		)
		if err := rows.Scan(&c.ID, &members, &careIDs, &kind, &c.Summary, &c.ContactDate, &c.FollowUpRequired); err != nil {
			return nil, eris.Wrap(err, "postgres: scan contact")
		}
		c.ContactType = model.ContactType(kind)
		if c.MemberIDs, err = decodeList(members); err != nil {
			return nil, err
		}
		if c.CaretakerIDs, err = decodeList(careIDs); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list contacts iterate")
}

// CreateContact files the contact under the household of its first member.
func (s *PostgresStore) CreateContact(ctx context.Context, rec model.ContactRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}

	var householdID string
	err := s.pool.QueryRow(ctx, `SELECT household_id FROM members WHERE id = $1`, rec.MemberIDs[0]).Scan(&householdID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", eris.Wrapf(ErrNotFound, "postgres: member %s", rec.MemberIDs[0])
	}
	if err != nil {
		return "", eris.Wrap(err, "postgres: lookup member household")
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
	_, err = s.pool.Exec(ctx,
		`INSERT INTO contacts (id, household_id, member_ids, caretaker_ids, contact_type, summary, contact_date, follow_up)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, householdID, members, careIDs, string(rec.ContactType), rec.Summary, rec.ContactDate, rec.FollowUpRequired,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert contact")
	}
	return id, nil
}
