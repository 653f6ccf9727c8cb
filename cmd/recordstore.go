package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/AveryRegier/actsix/internal/config"
	"github.com/AveryRegier/actsix/internal/contactlog"
	"github.com/AveryRegier/actsix/internal/resilience"
	"github.com/AveryRegier/actsix/internal/store"
	"github.com/AveryRegier/actsix/pkg/actsix"
)

// recordStore is the importer's view of a store plus its cleanup.
type recordStore struct {
	contactlog.RecordStore
	close func() error
}

func (r recordStore) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// openRecordStore connects to the hosted API or a local database depending
// on store.driver.
func openRecordStore(ctx context.Context, c *config.Config) (recordStore, error) {
	if strings.EqualFold(c.Store.Driver, "http") {
		client := actsix.NewClient(c.API.Token,
			actsix.WithBaseURL(c.API.BaseURL),
			actsix.WithHTTPClient(&http.Client{Timeout: c.API.Timeout()}),
			actsix.WithRateLimit(c.API.RatePerSec),
			actsix.WithRetry(resilience.NewPolicy(c.API.Retry.MaxAttempts, c.API.Retry.InitialBackoffMs)),
		)
		return recordStore{RecordStore: client}, nil
	}

	st, err := openLocalStore(ctx, c)
	if err != nil {
		return recordStore{}, err
	}
	return recordStore{RecordStore: st, close: st.Close}, nil
}

// openLocalStore opens the configured database and brings its schema up to
// date.
func openLocalStore(ctx context.Context, c *config.Config) (store.Store, error) {
	st, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
