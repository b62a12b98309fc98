// Package cache implements the hostname → tenant resolution cache.
//
// The cache sits on the hot path of every public page view served under a
// custom domain. It is a disposable accelerator, never a source of truth:
// every operation degrades to a miss or a no-op when the backend is
// unreachable, so the public router can always fall back to the tenant
// store.
package cache

import (
	"context"
	"time"
)

// Mapping is the positive cache payload: the tenant a hostname routes to.
type Mapping struct {
	Slug     string `json:"slug"`
	TenantID string `json:"tenant_id"`
}

// Kind tags a lookup outcome. A stored negative marker and an absent key are
// distinct: Negative means "looked up recently, resolved to nothing"; Miss
// means "no recent lookup, consult the source of truth".
type Kind int

const (
	Miss Kind = iota
	Hit
	Negative
)

// Result is a tagged lookup outcome. Mapping is meaningful only for Hit.
type Result struct {
	Kind    Kind
	Mapping Mapping
}

// Cache is the narrow capability the resolution path depends on.
//
// Implementations must be safe for unbounded concurrent readers. Writes are
// single-key, last-writer-wins. None of the operations report errors:
// backend failure is absorbed and logged by the implementation.
type Cache interface {
	Get(ctx context.Context, hostname string) Result
	Set(ctx context.Context, hostname string, m Mapping)
	SetNegative(ctx context.Context, hostname string)
	Invalidate(ctx context.Context, hostname string)
}

// Default TTLs. Mappings change rarely (publish, unpublish, domain change),
// so positive entries live long; the negative TTL bounds how long a freshly
// verified domain can stay unresolvable behind a stale marker.
const (
	DefaultPositiveTTL = time.Hour
	DefaultNegativeTTL = time.Minute
)

// keyPrefix namespaces our keys away from unrelated users of the backend.
const keyPrefix = "customdomain:"

// Noop is the null-object Cache selected at startup when no backend is
// configured. Every lookup is a Miss.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) Get(context.Context, string) Result   { return Result{Kind: Miss} }
func (Noop) Set(context.Context, string, Mapping) {}
func (Noop) SetNegative(context.Context, string)  {}
func (Noop) Invalidate(context.Context, string)   {}
