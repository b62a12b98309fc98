// Package registrar wraps the hosting platform's custom-domain HTTP API.
//
// The platform owns TLS issuance and authoritative DNS checks; this package
// only issues the add/remove/config/verify calls and maps their responses
// into typed results. It never retries — retry policy belongs to callers.
package registrar

import "fmt"

// Verification is a single ownership challenge returned when a domain is
// added. The payload is stored on the tenant record and passed through to
// DNS instruction rendering unmodified.
type Verification struct {
	Type   string `json:"type"`
	Domain string `json:"domain"`
	Value  string `json:"value"`
	Reason string `json:"reason,omitempty"`
}

// AddResult is the outcome of registering a domain with the platform.
type AddResult struct {
	Name         string
	Verified     bool
	Verification []Verification
	// Warnings lists non-fatal problems, currently only a failed www alias
	// registration for apex domains.
	Warnings []string
}

// DomainConfig is the platform's read-only DNS configuration probe result.
type DomainConfig struct {
	Misconfigured      bool     `json:"misconfigured"`
	ConfiguredBy       string   `json:"configuredBy,omitempty"`
	AcceptedChallenges []string `json:"acceptedChallenges,omitempty"`
}

// VerifyResult is the outcome of a verification attempt.
type VerifyResult struct {
	Verified bool
	// Error carries the platform's reason when verification did not succeed.
	Error string
}

// APIError is the uniform error shape for any non-2xx platform response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("registrar returned status %d", e.StatusCode)
}

// codeDomainExists is returned by the platform when the domain is already
// registered to this project. Adds treat it as success so provisioning is
// idempotent.
const codeDomainExists = "domain_already_exists"
