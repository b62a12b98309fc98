package tenant

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/pagecrest/domains/internal/cache"
	"github.com/pagecrest/domains/internal/domain"
	"github.com/pagecrest/domains/internal/registrar"
	"go.uber.org/zap"
)

// Sentinel errors for the domain service.
var (
	// ErrNoDomain is returned when an operation needs an attached domain and
	// the tenant has none.
	ErrNoDomain = errors.New("tenant has no custom domain")
)

// ValidationError reports a rejected domain. The reason is user-facing and
// surfaced verbatim; validation failures are never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// store is the persistence interface the service requires. *Repository
// satisfies it.
type store interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	SetDomain(ctx context.Context, id uuid.UUID, hostname string, verification []registrar.Verification) error
	SetDomainState(ctx context.Context, id uuid.UUID, state DomainState) error
	ClearDomain(ctx context.Context, id uuid.UUID) error
}

// domainRegistrar is the slice of the registrar client the service uses.
type domainRegistrar interface {
	Add(ctx context.Context, hostname string, isApex bool) (*registrar.AddResult, error)
	Remove(ctx context.Context, hostname string, isApex bool) error
}

// dnsChecker runs verification passes and renders DNS instructions.
// *domain.Checker satisfies it.
type dnsChecker interface {
	CheckDNS(ctx context.Context, hostname string) domain.CheckResult
	BuildInstructions(hostname string, isApex bool, verification []registrar.Verification) []domain.Record
}

// ProvisionResult is returned by ProvisionDomain: the normalized hostname,
// the platform's challenges, and the full instruction set to show the user.
type ProvisionResult struct {
	Hostname     string                   `json:"hostname"`
	IsApex       bool                     `json:"is_apex"`
	State        DomainState              `json:"state"`
	Verification []registrar.Verification `json:"verification,omitempty"`
	Records      []domain.Record          `json:"records"`
	Warnings     []string                 `json:"warnings,omitempty"`
}

// DomainStatus is returned by CheckDomain: one verification pass plus the
// records the user still needs (or needed) to create.
type DomainStatus struct {
	Hostname string             `json:"hostname"`
	IsApex   bool               `json:"is_apex"`
	State    DomainState        `json:"state"`
	Check    domain.CheckResult `json:"check"`
	Records  []domain.Record    `json:"records"`
}

// Service orchestrates the custom-domain lifecycle. The resolution cache is
// invalidated on every state transition so the next public request
// re-derives truth from the tenant store.
type Service struct {
	store     store
	registrar domainRegistrar
	checker   dnsChecker
	validator *domain.Validator
	cache     cache.Cache
	logger    *zap.Logger
}

// NewService creates a Service. Pass cache.NewNoop() when no cache backend
// is configured.
func NewService(store store, reg domainRegistrar, checker dnsChecker, validator *domain.Validator, c cache.Cache, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		registrar: reg,
		checker:   checker,
		validator: validator,
		cache:     c,
		logger:    logger,
	}
}

// ValidateDomain runs the pure syntax/policy check. No side effects.
func (s *Service) ValidateDomain(raw string) domain.Result {
	return s.validator.Validate(raw)
}

// ProvisionDomain validates raw, registers it with the platform, persists it
// on the tenant in the pending state, and returns the DNS instructions.
func (s *Service) ProvisionDomain(ctx context.Context, tenantID uuid.UUID, raw string) (*ProvisionResult, error) {
	vr := s.validator.Validate(raw)
	if !vr.Valid {
		return nil, &ValidationError{Reason: vr.Err}
	}

	t, err := s.store.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	added, err := s.registrar.Add(ctx, vr.Hostname, vr.IsApex)
	if err != nil {
		return nil, fmt.Errorf("failed to add domain: %w", err)
	}

	if err := s.store.SetDomain(ctx, tenantID, vr.Hostname, added.Verification); err != nil {
		return nil, err
	}

	// Invalidate the new hostname and, when the tenant is switching domains,
	// the one it is leaving behind.
	s.cache.Invalidate(ctx, vr.Hostname)
	if t.Hostname != "" && t.Hostname != vr.Hostname {
		s.cache.Invalidate(ctx, t.Hostname)
	}

	s.logger.Info("domain provisioned",
		zap.String("tenant_id", tenantID.String()),
		zap.String("hostname", vr.Hostname),
		zap.Bool("is_apex", vr.IsApex),
		zap.Int("challenges", len(added.Verification)),
		zap.Strings("warnings", added.Warnings),
	)

	return &ProvisionResult{
		Hostname:     vr.Hostname,
		IsApex:       vr.IsApex,
		State:        DomainPending,
		Verification: added.Verification,
		Records:      s.checker.BuildInstructions(vr.Hostname, vr.IsApex, added.Verification),
		Warnings:     added.Warnings,
	}, nil
}

// CheckDomain runs one verification pass for the tenant's domain, applies
// the resulting lifecycle transition, and returns the status with the
// instruction records. Registrar failures never surface as errors here —
// they arrive folded into the check result.
func (s *Service) CheckDomain(ctx context.Context, tenantID uuid.UUID) (*DomainStatus, error) {
	t, err := s.store.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t.Hostname == "" {
		return nil, ErrNoDomain
	}

	isApex := s.validator.Validate(t.Hostname).IsApex
	check := s.checker.CheckDNS(ctx, t.Hostname)

	// Verification not yet succeeding is still pending; only a positively
	// misconfigured probe (records present but wrong) marks the domain
	// misconfigured, and a clean probe moves it back.
	newState := t.DomainState
	switch {
	case check.Verified:
		newState = DomainVerified
	case slices.Contains(check.Errors, domain.MisconfiguredMessage):
		newState = DomainMisconfigured
	case t.DomainState == DomainMisconfigured:
		// Probe is clean again; back to awaiting verification.
		newState = DomainPending
	}
	if newState != t.DomainState {
		if err := s.store.SetDomainState(ctx, tenantID, newState); err != nil {
			return nil, err
		}
		s.cache.Invalidate(ctx, t.Hostname)
		s.logger.Info("domain state transition",
			zap.String("tenant_id", tenantID.String()),
			zap.String("hostname", t.Hostname),
			zap.String("from", string(t.DomainState)),
			zap.String("to", string(newState)),
		)
	}

	return &DomainStatus{
		Hostname: t.Hostname,
		IsApex:   isApex,
		State:    newState,
		Check:    check,
		Records:  s.checker.BuildInstructions(t.Hostname, isApex, t.VerificationData),
	}, nil
}

// RemoveDomain deregisters the tenant's domain from the platform and clears
// it from the record. The registrar's primary failure propagates; nothing is
// cleared in that case so the user can retry.
func (s *Service) RemoveDomain(ctx context.Context, tenantID uuid.UUID) error {
	t, err := s.store.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if t.Hostname == "" {
		return ErrNoDomain
	}

	isApex := s.validator.Validate(t.Hostname).IsApex
	if err := s.registrar.Remove(ctx, t.Hostname, isApex); err != nil {
		return fmt.Errorf("failed to remove domain: %w", err)
	}

	if err := s.store.ClearDomain(ctx, tenantID); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, t.Hostname)

	s.logger.Info("domain removed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("hostname", t.Hostname),
	)
	return nil
}
