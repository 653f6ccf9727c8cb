// Package actsix is a client for the care-ministry record store API.
package actsix

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/AveryRegier/actsix/internal/model"
	"github.com/AveryRegier/actsix/internal/resilience"
)

// Client reads households, members and contacts and records new contacts.
type Client interface {
	ListHouseholds(ctx context.Context) ([]model.Household, error)
	ListMembers(ctx context.Context, householdID string) ([]model.Person, error)
	ListContacts(ctx context.Context, householdID string) ([]model.ContactRecord, error)
	// ListCaretakers returns the deacon roster plus members tagged with any
	// of the extra roles.
	ListCaretakers(ctx context.Context, extraRoles ...string) ([]model.Person, error)
	CreateContact(ctx context.Context, rec model.ContactRecord) (string, error)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL sets the API root, e.g. "http://localhost:3001".
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps requests per second. Zero disables limiting.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry sets the retry policy for transient failures.
func WithRetry(p resilience.Policy) Option {
	return func(c *httpClient) {
		c.retry = p
	}
}

// WithBreaker replaces the circuit breaker shared by all calls. Nil
// disables it.
func WithBreaker(b *resilience.Breaker) Option {
	return func(c *httpClient) {
		c.breaker = b
	}
}

type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.Policy
	breaker *resilience.Breaker
}

// NewClient creates a client authenticating with the bearer token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: "http://localhost:3001",
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(10, 10),
		retry:   resilience.DefaultPolicy(),
		breaker: resilience.NewBreaker("actsix", 5, 30*time.Second),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.Notify == nil {
		c.retry.Notify = resilience.LogRetries("actsix")
	}
	return c
}

func (c *httpClient) ListHouseholds(ctx context.Context) ([]model.Household, error) {
	var body HouseholdList
	if err := c.do(ctx, http.MethodGet, "/api/households", nil, &body); err != nil {
		return nil, eris.Wrap(err, "actsix: list households")
	}
	out := make([]model.Household, len(body.Households))
	for i, h := range body.Households {
		out[i] = h.ToModel()
	}
	return out, nil
}

func (c *httpClient) ListMembers(ctx context.Context, householdID string) ([]model.Person, error) {
	var body MemberList
	path := "/api/households/" + url.PathEscape(householdID) + "/members"
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, eris.Wrapf(err, "actsix: list members of %s", householdID)
	}
	return members(body.Members), nil
}

func (c *httpClient) ListContacts(ctx context.Context, householdID string) ([]model.ContactRecord, error) {
	var body ContactList
	path := "/api/households/" + url.PathEscape(householdID) + "/contacts"
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, eris.Wrapf(err, "actsix: list contacts of %s", householdID)
	}
	out := make([]model.ContactRecord, len(body.Contacts))
	for i, ct := range body.Contacts {
		out[i] = ct.ToModel()
	}
	return out, nil
}

func (c *httpClient) ListCaretakers(ctx context.Context, extraRoles ...string) ([]model.Person, error) {
	path := "/api/deacons"
	if len(extraRoles) > 0 {
		path += "?" + url.Values{"add": {strings.Join(extraRoles, ",")}}.Encode()
	}
	var body DeaconList
	if err := c.do(ctx, http.MethodGet, path, nil, &body); err != nil {
		return nil, eris.Wrap(err, "actsix: list deacons")
	}
	return members(body.Deacons), nil
}

func (c *httpClient) CreateContact(ctx context.Context, rec model.ContactRecord) (string, error) {
	payload, err := json.Marshal(ContactFrom(rec))
	if err != nil {
		return "", eris.Wrap(err, "actsix: marshal contact")
	}
	var body Created
	if err := c.do(ctx, http.MethodPost, "/api/contacts", payload, &body); err != nil {
		return "", eris.Wrap(err, "actsix: create contact")
	}
	return body.ID, nil
}

func members(in []Member) []model.Person {
	out := make([]model.Person, len(in))
	for i, m := range in {
		out[i] = m.ToModel()
	}
	return out
}

// do sends one request through the breaker, limiter and retry policy and
// decodes a 2xx JSON body into out.
func (c *httpClient) do(ctx context.Context, method, path string, payload []byte, out any) error {
	if c.breaker == nil {
		return c.attempt(ctx, method, path, payload, out)
	}
	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.attempt(ctx, method, path, payload, out)
	})
}

func (c *httpClient) attempt(ctx context.Context, method, path string, payload []byte, out any) error {
	return c.retry.Do(ctx, func(ctx context.Context) error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return eris.Wrap(err, "rate limit wait")
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return eris.Wrap(err, "create request")
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return eris.Wrap(err, "send request")
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
		if err != nil {
			return eris.Wrap(err, "read body")
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &resilience.StatusError{Status: resp.StatusCode, Body: errorMessage(data)}
		}
		if out == nil {
			return nil
		}
		return eris.Wrap(json.Unmarshal(data, out), "decode body")
	})
}

func errorMessage(data []byte) string {
	var eb ErrorBody
	if json.Unmarshal(data, &eb) == nil && eb.Error != "" {
		return eb.Error
	}
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
