package domain

import (
	"context"
	"errors"

	"github.com/pagecrest/domains/internal/registrar"
	"go.uber.org/zap"
)

// CheckResult is the transient outcome of one verification pass. It is a
// rendered status, never an error: polling UIs consume it directly.
// Configured and Verified flip to true together, only once a pass fully
// succeeds; anything short of that reports both false with the reasons in
// Errors.
type CheckResult struct {
	Configured bool     `json:"configured"`
	Verified   bool     `json:"verified"`
	Errors     []string `json:"errors"`
}

// MisconfiguredMessage is surfaced when the platform's probe reports DNS
// records that exist but point at the wrong target.
const MisconfiguredMessage = "DNS records are misconfigured"

// configVerifier is the slice of the registrar client the Checker needs.
// *registrar.Client satisfies it; tests substitute stubs.
type configVerifier interface {
	GetConfig(ctx context.Context, hostname string) (*registrar.DomainConfig, error)
	Verify(ctx context.Context, hostname string) (*registrar.VerifyResult, error)
}

// Checker combines the platform's config probe and verify call into one
// verification outcome, and renders the DNS records users must create.
type Checker struct {
	registrar   configVerifier
	apexIP      string
	cnameTarget string
	logger      *zap.Logger
}

// NewChecker creates a Checker using the default routing targets.
func NewChecker(r configVerifier, logger *zap.Logger) *Checker {
	return &Checker{
		registrar:   r,
		apexIP:      DefaultApexIP,
		cnameTarget: DefaultCNAMETarget,
		logger:      logger,
	}
}

// SetTargets overrides the apex A record IP and the CNAME target.
func (c *Checker) SetTargets(apexIP, cnameTarget string) {
	if apexIP != "" {
		c.apexIP = apexIP
	}
	if cnameTarget != "" {
		c.cnameTarget = cnameTarget
	}
}

// CheckDNS runs one verification pass for hostname.
//
// The config probe runs first: a misconfigured domain fails fast without a
// useless verify round-trip. Registrar and network failures from either call
// are folded into the Errors list — this method never fails, since polling
// and UI callers must always get a renderable status.
func (c *Checker) CheckDNS(ctx context.Context, hostname string) CheckResult {
	cfg, err := c.registrar.GetConfig(ctx, hostname)
	if err != nil {
		c.logger.Warn("domain config probe failed",
			zap.String("hostname", hostname),
			zap.Error(err),
		)
		return CheckResult{Errors: []string{registrarMessage(err)}}
	}
	if cfg.Misconfigured {
		return CheckResult{Errors: []string{MisconfiguredMessage}}
	}

	verify, err := c.registrar.Verify(ctx, hostname)
	if err != nil {
		c.logger.Warn("domain verify call failed",
			zap.String("hostname", hostname),
			zap.Error(err),
		)
		return CheckResult{Errors: []string{registrarMessage(err)}}
	}
	if verify.Verified {
		return CheckResult{Configured: true, Verified: true, Errors: []string{}}
	}

	reason := verify.Error
	if reason == "" {
		reason = "Verification failed"
	}
	return CheckResult{Errors: []string{reason}}
}

// BuildInstructions returns the ordered DNS records for hostname using the
// Checker's configured routing targets. Pure; no I/O.
func (c *Checker) BuildInstructions(hostname string, isApex bool, verification []registrar.Verification) []Record {
	return buildInstructions(hostname, isApex, verification, c.apexIP, c.cnameTarget)
}

// registrarMessage extracts the platform's message from an API error, or
// falls back to the wrapped error text.
func registrarMessage(err error) string {
	var apiErr *registrar.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
