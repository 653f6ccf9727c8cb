package actsix

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AveryRegier/actsix/internal/model"
	"github.com/AveryRegier/actsix/internal/resilience"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient("test-token",
		WithBaseURL(srv.URL+"/"),
		WithRateLimit(0),
		WithRetry(resilience.Policy{Attempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}),
	)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListHouseholds(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/households", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, HouseholdList{
			Households: []Household{{ID: "h1", LastName: "Miller"}, {ID: "h2", LastName: "Baker"}},
			Count:      2,
		})
	})

	got, err := c.ListHouseholds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Household{{ID: "h1", LastName: "Miller"}, {ID: "h2", LastName: "Baker"}}, got)
}

func TestListMembersAndContacts(t *testing.T) {
	t.Parallel()

	inactive := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/households/h1/members":
			_, _ = w.Write([]byte(`{"members":[{"_id":"m1","householdId":"h1","firstName":"Ruth","lastName":"Miller"},` +
				`{"_id":"m2","firstName":"Harry","lastName":"Miller","isActive":false}],"count":2}`))
		case "/api/households/h1/contacts":
			_, _ = w.Write([]byte(`{"contacts":[{"_id":"c1","memberId":["m1"],"deaconId":["d1","d2"],` +
				`"contactType":"visit","summary":"visited","contactDate":"2024-11-18T00:00:00.000Z"}],"count":1}`))
		default:
			http.NotFound(w, r)
		}
	})

	ms, err := c.ListMembers(context.Background(), "h1")
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, model.Person{ID: "m1", HouseholdID: "h1", FirstName: "Ruth", LastName: "Miller"}, ms[0])
	assert.Equal(t, &inactive, ms[1].IsActive)
	assert.True(t, ms[1].Deleted())

	cs, err := c.ListContacts(context.Background(), "h1")
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, []string{"m1"}, cs[0].MemberIDs)
	assert.Equal(t, []string{"d1", "d2"}, cs[0].CaretakerIDs)
	assert.Equal(t, model.ContactTypeVisit, cs[0].ContactType)

	_, err = c.ListMembers(context.Background(), "missing")
	assert.ErrorContains(t, err, "404")
}

func TestListCaretakers_AddsRoles(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		queries []string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/deacons", r.URL.Path)
		mu.Lock()
		queries = append(queries, r.URL.Query().Get("add"))
		mu.Unlock()
		writeJSON(w, http.StatusOK, DeaconList{Deacons: []Member{{ID: "d1", FirstName: "Amy", LastName: "Smith", Tags: []string{"deacon"}}}, Count: 1})
	})

	got, err := c.ListCaretakers(context.Background(), "staff", "elder")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].HasTag("deacon"))

	_, err = c.ListCaretakers(context.Background())
	require.NoError(t, err)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"staff,elder", ""}, queries)
}

func TestCreateContact_WireFormat(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/contacts", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		assert.Equal(t, []any{"m1"}, raw["memberId"])
		assert.Equal(t, []any{"d1"}, raw["deaconId"])
		assert.Equal(t, "phone", raw["contactType"])
		assert.NotContains(t, raw, "_id")

		writeJSON(w, http.StatusCreated, Created{Message: "Contact logged", ID: "c9"})
	})

	id, err := c.CreateContact(context.Background(), model.ContactRecord{
		MemberIDs:    []string{"m1"},
		CaretakerIDs: []string{"d1"},
		ContactType:  model.ContactTypePhone,
		Summary:      "called",
		ContactDate:  "2024-11-18T00:00:00.000Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "c9", id)
}

func TestRetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			writeJSON(w, http.StatusServiceUnavailable, ErrorBody{Error: "warming up"})
			return
		}
		writeJSON(w, http.StatusOK, HouseholdList{})
	})

	_, err := c.ListHouseholds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoesNotRetryClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadRequest, ErrorBody{Error: "Missing required fields"})
	})

	_, err := c.CreateContact(context.Background(), model.ContactRecord{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing required fields")
	assert.Equal(t, int32(1), calls.Load())
}

func TestConverters(t *testing.T) {
	rec := model.ContactRecord{ID: "c1", MemberIDs: []string{"m1"}, CaretakerIDs: []string{"d1"}, ContactType: model.ContactTypeVisit, Summary: "s", ContactDate: "d"}
	assert.Equal(t, rec, ContactFrom(rec).ToModel())

	p := model.Person{ID: "m1", FirstName: "Ruth", LastName: "Miller", Tags: []string{"deacon"}}
	assert.Equal(t, p, MemberFrom(p).ToModel())

	h := model.Household{ID: "h1", LastName: "Miller"}
	assert.Equal(t, h, HouseholdFrom(h).ToModel())
}

func TestBreakerStopsCallingDeadStore(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadGateway, ErrorBody{Error: "down"})
	}))
	t.Cleanup(srv.Close)

	c := NewClient("",
		WithBaseURL(srv.URL),
		WithRateLimit(0),
		WithRetry(resilience.Policy{Attempts: 1}),
		WithBreaker(resilience.NewBreaker("test", 2, time.Hour)),
	)

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := c.ListMembers(ctx, "hh1")
		require.Error(t, err)
	}
	_, err := c.ListMembers(ctx, "hh1")
	require.Error(t, err)
	assert.ErrorIs(t, err, resilience.ErrBreakerOpen)
	assert.Equal(t, int32(2), calls.Load())
}
