// Package tenant holds the tenant record, its Postgres repository, and the
// domain lifecycle service that ties validation, provisioning, verification,
// and cache invalidation together.
package tenant

import (
	"time"

	"github.com/google/uuid"
	"github.com/pagecrest/domains/internal/registrar"
)

// DomainState is the custom-domain lifecycle state held on the tenant
// record. It is mutated only by the domain service.
type DomainState string

const (
	DomainUnconfigured  DomainState = "unconfigured"
	DomainPending       DomainState = "pending"
	DomainVerified      DomainState = "verified"
	DomainMisconfigured DomainState = "misconfigured"
)

// Tenant is one site on the platform. Hostname is empty while DomainState is
// unconfigured. VerificationData is the platform's challenge payload, stored
// opaquely and passed through to instruction rendering unmodified.
type Tenant struct {
	ID               uuid.UUID                `json:"id"`
	Slug             string                   `json:"slug"`
	Name             string                   `json:"name"`
	Hostname         string                   `json:"hostname,omitempty"`
	DomainState      DomainState              `json:"domain_state"`
	VerificationData []registrar.Verification `json:"verification_data,omitempty"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}
