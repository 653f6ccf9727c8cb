// Package store is a local record store for households, members and
// contacts. It backs the serve command and lets the importer run without
// the hosted API.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/AveryRegier/actsix/internal/model"
)

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the record store plus the writes needed to seed it.
type Store interface {
	ListHouseholds(ctx context.Context) ([]model.Household, error)
	ListMembers(ctx context.Context, householdID string) ([]model.Person, error)
	ListContacts(ctx context.Context, householdID string) ([]model.ContactRecord, error)
	CreateContact(ctx context.Context, rec model.ContactRecord) (string, error)
	ListCaretakers(ctx context.Context, extraRoles ...string) ([]model.Person, error)

	CreateHousehold(ctx context.Context, h model.Household) (string, error)
	CreatePerson(ctx context.Context, p model.Person) (string, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Config selects the database.
type Config struct {
	Driver      string `mapstructure:"driver"`
	DatabaseURL string `mapstructure:"database_url"`
}

// Open connects to the configured database. Migrations are not run.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "sqlite", "":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "actsix.db"
		}
		return NewSQLite(dsn)
	case "postgres", "postgresql":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: postgres requires store.database_url")
		}
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// caretakerRoles is the deacon tag plus the extra roles, deduplicated.
func caretakerRoles(extra []string) []string {
	roles := append([]string{}, model.DefaultCaretakerRoles...)
	for _, r := range extra {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		dup := false
		for _, have := range roles {
			if strings.EqualFold(have, r) {
				dup = true
				break
			}
		}
		if !dup {
			roles = append(roles, r)
		}
	}
	return roles
}

func onRoster(p model.Person, roles []string) bool {
	if p.Deleted() {
		return false
	}
	for _, r := range roles {
		if p.HasTag(r) {
			return true
		}
	}
	return false
}

func encodeList(v []string) ([]byte, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	return b, eris.Wrap(err, "store: encode list")
}

func decodeList(b []byte) ([]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var v []string
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, eris.Wrap(err, "store: decode list")
	}
	if len(v) == 0 {
		return nil, nil
	}
	return v, nil
}

func validatePerson(p model.Person) error {
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return eris.New("store: person needs a first and last name")
	}
	return nil
}
