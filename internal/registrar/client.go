package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Config holds the platform API connection settings. Token and TeamID are
// environment configuration, never request input.
type Config struct {
	BaseURL string
	Token   string
	TeamID  string        // optional team scope, appended as ?teamId=
	Timeout time.Duration // default 10s
}

// MetricsFunc records the outcome of a single platform API call.
// Wired from the handler metrics in cmd; nil disables recording.
type MetricsFunc func(op string, ok bool)

// Client issues domain API calls against the hosting platform.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  *zap.Logger
	metrics MetricsFunc
}

// New creates a Client. A zero Timeout defaults to 10 seconds.
func New(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// SetMetrics installs a per-call outcome recorder.
func (c *Client) SetMetrics(fn MetricsFunc) { c.metrics = fn }

type addRequest struct {
	Name               string `json:"name"`
	Redirect           string `json:"redirect,omitempty"`
	RedirectStatusCode int    `json:"redirectStatusCode,omitempty"`
}

type addResponse struct {
	Name         string         `json:"name"`
	Verified     bool           `json:"verified"`
	Verification []Verification `json:"verification"`
}

// Add registers hostname with the platform. For apex domains it additionally
// registers www.<hostname> as a permanent (308) redirect to the apex; failure
// of the www call is reported as a warning, not an error. An
// "already exists" response from the primary add is treated as success.
func (c *Client) Add(ctx context.Context, hostname string, isApex bool) (*AddResult, error) {
	var resp addResponse
	err := c.do(ctx, http.MethodPost, "/v1/domains", addRequest{Name: hostname}, &resp)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Code != codeDomainExists {
			c.record("add", false)
			return nil, err
		}
		c.logger.Info("domain already registered, treating add as success",
			zap.String("hostname", hostname))
		resp.Name = hostname
	}
	c.record("add", true)

	result := &AddResult{
		Name:         resp.Name,
		Verified:     resp.Verified,
		Verification: resp.Verification,
	}

	if isApex {
		www := addRequest{
			Name:               "www." + hostname,
			Redirect:           hostname,
			RedirectStatusCode: http.StatusPermanentRedirect,
		}
		if err := c.do(ctx, http.MethodPost, "/v1/domains", www, nil); err != nil {
			// Best effort: the apex stays registered even when the alias fails.
			c.logger.Warn("www alias registration failed",
				zap.String("hostname", hostname),
				zap.Error(err),
			)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("could not register www.%s: %s", hostname, err.Error()))
		}
	}
	return result, nil
}

// Remove deregisters hostname. For apex domains the www alias is removed
// first — the platform refuses to remove an apex while its alias exists.
// The alias removal is best effort; only the primary failure is reported.
func (c *Client) Remove(ctx context.Context, hostname string, isApex bool) error {
	if isApex {
		path := "/v1/domains/" + url.PathEscape("www."+hostname)
		if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
			c.logger.Warn("www alias removal failed",
				zap.String("hostname", hostname),
				zap.Error(err),
			)
		}
	}
	err := c.do(ctx, http.MethodDelete, "/v1/domains/"+url.PathEscape(hostname), nil, nil)
	c.record("remove", err == nil)
	return err
}

// GetConfig probes the platform's view of the domain's DNS configuration.
func (c *Client) GetConfig(ctx context.Context, hostname string) (*DomainConfig, error) {
	var cfg DomainConfig
	err := c.do(ctx, http.MethodGet, "/v1/domains/"+url.PathEscape(hostname)+"/config", nil, &cfg)
	c.record("config", err == nil)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

type verifyResponse struct {
	Verified bool `json:"verified"`
	Error    *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Verify triggers a verification attempt for hostname.
func (c *Client) Verify(ctx context.Context, hostname string) (*VerifyResult, error) {
	var resp verifyResponse
	err := c.do(ctx, http.MethodPost, "/v1/domains/"+url.PathEscape(hostname)+"/verify", nil, &resp)
	c.record("verify", err == nil)
	if err != nil {
		return nil, err
	}
	result := &VerifyResult{Verified: resp.Verified}
	if resp.Error != nil {
		result.Error = resp.Error.Message
	}
	return result, nil
}

// errorEnvelope is the platform's error body shape.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do issues one request and decodes the response into out (when non-nil).
// Non-2xx responses become *APIError with the message extracted from the
// body when present.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	u, err := url.Parse(c.cfg.BaseURL + path)
	if err != nil {
		return fmt.Errorf("build registrar URL: %w", err)
	}
	if c.cfg.TeamID != "" {
		q := u.Query()
		q.Set("teamId", c.cfg.TeamID)
		u.RawQuery = q.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode registrar request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("build registrar request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("registrar request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read registrar response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope errorEnvelope
		if json.Unmarshal(raw, &envelope) == nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode registrar response: %w", err)
		}
	}
	return nil
}

// record reports a call outcome to the installed metrics hook.
func (c *Client) record(op string, ok bool) {
	if c.metrics != nil {
		c.metrics(op, ok)
	}
}
