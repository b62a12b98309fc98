// Package client is the Go SDK for the Pagecrest custom-domains service.
//
// It wraps the dashboard-facing domain lifecycle endpoints and the public
// resolve endpoint with typed results.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned when the service reports 404 for the requested
// tenant, domain, or hostname.
var ErrNotFound = errors.New("not found")

// DNSRecord is one record the user must create at their DNS provider.
type DNSRecord struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ValidateResult is the dry-run validation outcome.
type ValidateResult struct {
	Valid    bool   `json:"valid"`
	Hostname string `json:"hostname,omitempty"`
	IsApex   bool   `json:"is_apex,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ProvisionResult is returned when a domain is attached to a tenant.
type ProvisionResult struct {
	Hostname string      `json:"hostname"`
	IsApex   bool        `json:"is_apex"`
	State    string      `json:"state"`
	Records  []DNSRecord `json:"records"`
	Warnings []string    `json:"warnings,omitempty"`
}

// CheckResult mirrors one verification pass.
type CheckResult struct {
	Configured bool     `json:"configured"`
	Verified   bool     `json:"verified"`
	Errors     []string `json:"errors"`
}

// DomainStatus is the current domain state plus the latest check.
type DomainStatus struct {
	Hostname string      `json:"hostname"`
	IsApex   bool        `json:"is_apex"`
	State    string      `json:"state"`
	Check    CheckResult `json:"check"`
	Records  []DNSRecord `json:"records"`
}

// ResolveResult maps a hostname to its tenant.
type ResolveResult struct {
	Slug     string `json:"slug"`
	TenantID string `json:"tenant_id"`
}

// Client talks to the custom-domains service API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken attaches a dashboard bearer token to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a Client targeting baseURL (e.g. "https://domains.pagecrest.com").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ValidateDomain runs the server-side dry-run validation for raw.
func (c *Client) ValidateDomain(ctx context.Context, raw string) (*ValidateResult, error) {
	var out ValidateResult
	err := c.do(ctx, http.MethodPost, "/api/v1/domains/validate",
		map[string]string{"domain": raw}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AddDomain attaches raw as tenantID's custom domain and returns the DNS
// instructions.
func (c *Client) AddDomain(ctx context.Context, tenantID, raw string) (*ProvisionResult, error) {
	var out ProvisionResult
	err := c.do(ctx, http.MethodPost, "/api/v1/tenants/"+url.PathEscape(tenantID)+"/domain",
		map[string]string{"domain": raw}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DomainStatus runs one verification pass and returns the current status.
func (c *Client) DomainStatus(ctx context.Context, tenantID string) (*DomainStatus, error) {
	var out DomainStatus
	err := c.do(ctx, http.MethodGet, "/api/v1/tenants/"+url.PathEscape(tenantID)+"/domain", nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveDomain detaches tenantID's custom domain.
func (c *Client) RemoveDomain(ctx context.Context, tenantID string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/tenants/"+url.PathEscape(tenantID)+"/domain", nil, nil)
}

// Resolve maps hostname to its tenant. Returns ErrNotFound when the
// hostname does not route anywhere.
func (c *Client) Resolve(ctx context.Context, hostname string) (*ResolveResult, error) {
	var out ResolveResult
	err := c.do(ctx, http.MethodGet, "/api/v1/resolve?hostname="+url.QueryEscape(hostname), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// apiError is the service's error body.
type apiError struct {
	Error string `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.Error != "" {
			return fmt.Errorf("service returned %d: %s", resp.StatusCode, ae.Error)
		}
		return fmt.Errorf("service returned %d", resp.StatusCode)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
