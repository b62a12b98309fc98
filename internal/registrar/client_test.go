package registrar_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/pagecrest/domains/internal/registrar"
	"go.uber.org/zap"
)

// capturedRequest records one request the fake platform received.
type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

// fakePlatform is an httptest-backed platform API. Responses are keyed by
// "METHOD path"; unknown routes return 404 with the platform error envelope.
type fakePlatform struct {
	mu        sync.Mutex
	requests  []capturedRequest
	responses map[string]func(w http.ResponseWriter)
	server    *httptest.Server
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	p := &fakePlatform{responses: make(map[string]func(w http.ResponseWriter))}
	p.server = httptest.NewServer(http.HandlerFunc(p.handle))
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakePlatform) handle(w http.ResponseWriter, r *http.Request) {
	req := capturedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
	}
	if r.Body != nil {
		var body map[string]any
		if json.NewDecoder(r.Body).Decode(&body) == nil {
			req.Body = body
		}
	}
	p.mu.Lock()
	p.requests = append(p.requests, req)
	fn := p.responses[r.Method+" "+r.URL.Path]
	p.mu.Unlock()

	if fn == nil {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"code":"not_found","message":"domain not found"}}`)
		return
	}
	fn(w)
}

func (p *fakePlatform) respond(method, path string, status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[method+" "+path] = func(w http.ResponseWriter) {
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}
}

func (p *fakePlatform) captured() []capturedRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]capturedRequest(nil), p.requests...)
}

func newClient(p *fakePlatform, teamID string) *registrar.Client {
	return registrar.New(registrar.Config{
		BaseURL: p.server.URL,
		Token:   "secret-token",
		TeamID:  teamID,
	}, zap.NewNop())
}

// ── Add ────────────────────────────────────────────────────────────────────

func TestAdd_subdomain(t *testing.T) {
	p := newFakePlatform(t)
	p.respond(http.MethodPost, "/v1/domains", http.StatusOK,
		`{"name":"shop.acme.com","verified":false,"verification":[{"type":"TXT","domain":"_pagecrest.shop.acme.com","value":"tok-1","reason":"pending"}]}`)

	result, err := newClient(p, "").Add(context.Background(), "shop.acme.com", false)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if result.Name != "shop.acme.com" || result.Verified {
		t.Errorf("result: %+v", result)
	}
	if len(result.Verification) != 1 || result.Verification[0].Value != "tok-1" {
		t.Errorf("verification: %+v", result.Verification)
	}

	reqs := p.captured()
	if len(reqs) != 1 {
		t.Fatalf("expected one request, got %d", len(reqs))
	}
	if reqs[0].Auth != "Bearer secret-token" {
		t.Errorf("Authorization: %q", reqs[0].Auth)
	}
	if reqs[0].Body["name"] != "shop.acme.com" {
		t.Errorf("body: %v", reqs[0].Body)
	}
}

func TestAdd_apexRegistersWWWRedirect(t *testing.T) {
	p := newFakePlatform(t)
	p.respond(http.MethodPost, "/v1/domains", http.StatusOK, `{"name":"acme.com"}`)

	result, err := newClient(p, "").Add(context.Background(), "acme.com", true)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("warnings: %v", result.Warnings)
	}

	reqs := p.captured()
	if len(reqs) != 2 {
		t.Fatalf("expected apex + www requests, got %d", len(reqs))
	}
	www := reqs[1].Body
	if www["name"] != "www.acme.com" || www["redirect"] != "acme.com" {
		t.Errorf("www body: %v", www)
	}
	if code, _ := www["redirectStatusCode"].(float64); int(code) != http.StatusPermanentRedirect {
		t.Errorf("redirectStatusCode: %v", www["redirectStatusCode"])
	}
}

func TestAdd_wwwFailureBecomesWarning(t *testing.T) {
	p := newFakePlatform(t)
	calls := 0
	p.mu.Lock()
	p.responses["POST /v1/domains"] = func(w http.ResponseWriter) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, `{"name":"acme.com"}`)
			return
		}
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error":{"code":"domain_taken","message":"www.acme.com belongs to another team"}}`)
	}
	p.mu.Unlock()

	result, err := newClient(p, "").Add(context.Background(), "acme.com", true)
	if err != nil {
		t.Fatalf("apex add must succeed despite www failure: %v", err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("warnings: %v", result.Warnings)
	}
	if !strings.Contains(result.Warnings[0], "www.acme.com") {
		t.Errorf("warning text: %q", result.Warnings[0])
	}
}

func TestAdd_alreadyExistsIsSuccess(t *testing.T) {
	p := newFakePlatform(t)
	p.respond(http.MethodPost, "/v1/domains", http.StatusConflict,
		`{"error":{"code":"domain_already_exists","message":"domain acme.com already exists"}}`)

	result, err := newClient(p, "").Add(context.Background(), "shop.acme.com", false)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if result.Name != "shop.acme.com" {
		t.Errorf("result: %+v", result)
	}
}

func TestAdd_platformError(t *testing.T) {
	p := newFakePlatform(t)
	p.respond(http.MethodPost, "/v1/domains", http.StatusForbidden,
		`{"error":{"code":"forbidden","message":"invalid token"}}`)

	_, err := newClient(p, "").Add(context.Background(), "acme.com", false)

	var apiErr *registrar.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusForbidden || apiErr.Code != "forbidden" {
		t.Errorf("APIError: %+v", apiErr)
	}
	if apiErr.Error() != "invalid token" {
		t.Errorf("Error(): %q", apiErr.Error())
	}
}

func TestAdd_errorWithoutEnvelope(t *testing.T) {
	p := newFakePlatform(t)
	p.respond(http.MethodPost, "/v1/domains", http.StatusBadGateway, "upstream timeout")

	_, err := newClient(p, "").Add(context.Background(), "acme.com", false)

	var apiErr *registrar.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if !strings.Contains(apiErr.Error(), "502") {
		t.Errorf("Error(): %q", apiErr.Error())
	}
}

// ── Remove ─────────────────────────────────────────────────────────────────

func TestRemove_apexRemovesWWWFirst(t *testing.T) {
	p := newFakePlatform(t)
	p.respond(http.MethodDelete, "/v1/domains/www.acme.com", http.StatusOK, `{}`)
	p.respond(http.MethodDelete, "/v1/domains/acme.com", http.StatusOK, `{}`)

	if err := newClient(p, "").Remove(context.Background(), "acme.com", true); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	reqs := p.captured()
	if len(reqs) != 2 {
		t.Fatalf("expected two deletes, got %d", len(reqs))
	}
	if reqs[0].Path != "/v1/domains/www.acme.com" || reqs[1].Path != "/v1/domains/acme.com" {
		t.Errorf("delete order: %q then %q", reqs[0].Path, reqs[1].Path)
	}
}

func TestRemove_wwwFailureIgnored(t *testing.T) {
	p := newFakePlatform(t)
	// www delete 404s (the fake's default); only the primary is registered.
	p.respond(http.MethodDelete, "/v1/domains/acme.com", http.StatusOK, `{}`)

	if err := newClient(p, "").Remove(context.Background(), "acme.com", true); err != nil {
		t.Fatalf("primary removal must succeed when only the alias fails: %v", err)
	}
}

func TestRemove_primaryFailurePropagates(t *testing.T) {
	p := newFakePlatform(t)

	err := newClient(p, "").Remove(context.Background(), "shop.acme.com", false)

	var apiErr *registrar.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("status: %d", apiErr.StatusCode)
	}
}

// ── GetConfig / Verify ─────────────────────────────────────────────────────

func TestGetConfig(t *testing.T) {
	p := newFakePlatform(t)
	p.respond(http.MethodGet, "/v1/domains/acme.com/config", http.StatusOK,
		`{"misconfigured":true,"configuredBy":null,"acceptedChallenges":["dns-01"]}`)

	cfg, err := newClient(p, "").GetConfig(context.Background(), "acme.com")
	if err != nil {
		t.Fatalf("GetConfig: %v", err)
	}
	if !cfg.Misconfigured {
		t.Errorf("config: %+v", cfg)
	}
}

func TestVerify(t *testing.T) {
	p := newFakePlatform(t)
	p.respond(http.MethodPost, "/v1/domains/acme.com/verify", http.StatusOK,
		`{"verified":false,"error":{"code":"missing_txt_record","message":"TXT record not found"}}`)

	result, err := newClient(p, "").Verify(context.Background(), "acme.com")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if result.Verified {
		t.Error("expected verified=false")
	}
	if result.Error != "TXT record not found" {
		t.Errorf("reason: %q", result.Error)
	}
}

// ── Request shaping ────────────────────────────────────────────────────────

func TestTeamIDQueryParameter(t *testing.T) {
	p := newFakePlatform(t)
	p.respond(http.MethodGet, "/v1/domains/acme.com/config", http.StatusOK, `{}`)

	if _, err := newClient(p, "team_abc123").GetConfig(context.Background(), "acme.com"); err != nil {
		t.Fatalf("GetConfig: %v", err)
	}

	reqs := p.captured()
	if reqs[0].Query != "teamId=team_abc123" {
		t.Errorf("query: %q", reqs[0].Query)
	}
}

func TestMetricsHook(t *testing.T) {
	p := newFakePlatform(t)
	p.respond(http.MethodPost, "/v1/domains", http.StatusOK, `{"name":"shop.acme.com"}`)

	c := newClient(p, "")
	var mu sync.Mutex
	results := map[string][]bool{}
	c.SetMetrics(func(op string, ok bool) {
		mu.Lock()
		results[op] = append(results[op], ok)
		mu.Unlock()
	})

	c.Add(context.Background(), "shop.acme.com", false)
	c.Remove(context.Background(), "shop.acme.com", false) // fake 404s the delete

	if got := results["add"]; len(got) != 1 || !got[0] {
		t.Errorf("add outcomes: %v", got)
	}
	if got := results["remove"]; len(got) != 1 || got[0] {
		t.Errorf("remove outcomes: %v", got)
	}
}
