// Package resolver maps request hostnames to tenants on the public serving
// path.
//
// Lookups hit the resolution cache first and fall back to the tenant store,
// repopulating the cache positively or negatively. Concurrent misses for the
// same hostname are collapsed into a single store lookup.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pagecrest/domains/internal/cache"
	"github.com/pagecrest/domains/internal/tenant"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TenantSource is the authoritative lookup behind the cache.
// *tenant.Repository satisfies it.
type TenantSource interface {
	GetByHostname(ctx context.Context, hostname string) (*tenant.Tenant, error)
}

// MetricsFunc records a resolution outcome: "cache_hit", "cache_negative",
// "resolved", "not_found", or "error".
type MetricsFunc func(outcome string)

// lookupTimeout bounds the shared store lookup behind the singleflight
// group, which is detached from any individual caller's context.
const lookupTimeout = 5 * time.Second

// Resolver serves hostname → tenant mappings to the public router.
type Resolver struct {
	cache   cache.Cache
	tenants TenantSource
	group   singleflight.Group
	logger  *zap.Logger
	metrics MetricsFunc
}

// New creates a Resolver. Pass cache.NewNoop() to run uncached.
func New(c cache.Cache, tenants TenantSource, logger *zap.Logger) *Resolver {
	return &Resolver{cache: c, tenants: tenants, logger: logger}
}

// SetMetrics installs a per-lookup outcome recorder.
func (r *Resolver) SetMetrics(fn MetricsFunc) { r.metrics = fn }

// Resolve returns the mapping for hostname, or (nil, nil) when the hostname
// does not route to any tenant. Only tenants with a verified domain resolve;
// everything else is cached negatively so repeated probes stay cheap.
func (r *Resolver) Resolve(ctx context.Context, hostname string) (*cache.Mapping, error) {
	host := strings.ToLower(strings.TrimSuffix(strings.TrimSpace(hostname), "."))
	if host == "" {
		return nil, fmt.Errorf("hostname is required")
	}

	switch res := r.cache.Get(ctx, host); res.Kind {
	case cache.Hit:
		r.record("cache_hit")
		return &res.Mapping, nil
	case cache.Negative:
		r.record("cache_negative")
		return nil, nil
	}

	// Collapse concurrent misses for the same hostname into one store
	// lookup before repopulating the cache. The shared lookup runs on a
	// detached context with its own deadline: cancelling the first caller
	// must not fail every collapsed request riding on its flight.
	v, err, _ := r.group.Do(host, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return r.lookup(lookupCtx, host)
	})
	if err != nil {
		r.record("error")
		return nil, err
	}
	return v.(*cache.Mapping), nil
}

func (r *Resolver) lookup(ctx context.Context, host string) (*cache.Mapping, error) {
	t, err := r.tenants.GetByHostname(ctx, host)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			r.cache.SetNegative(ctx, host)
			r.record("not_found")
			return nil, nil
		}
		return nil, fmt.Errorf("tenant lookup for %s: %w", host, err)
	}

	if t.DomainState != tenant.DomainVerified {
		r.cache.SetNegative(ctx, host)
		r.record("not_found")
		return nil, nil
	}

	m := &cache.Mapping{Slug: t.Slug, TenantID: t.ID.String()}
	r.cache.Set(ctx, host, *m)
	r.record("resolved")

	r.logger.Debug("hostname resolved",
		zap.String("hostname", host),
		zap.String("tenant_id", m.TenantID),
	)
	return m, nil
}

func (r *Resolver) record(outcome string) {
	if r.metrics != nil {
		r.metrics(outcome)
	}
}
