// Package health aggregates readiness probes for the service's backing
// dependencies (Postgres, the cache backend, the registrar API).
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProbeFunc checks one dependency, returning nil when it is usable.
type ProbeFunc func(ctx context.Context) error

// probe is a named dependency check with its criticality. Non-critical
// dependencies (the cache) degrade the report without failing readiness.
type probe struct {
	name     string
	critical bool
	fn       ProbeFunc
}

// Status is the aggregated outcome of one readiness pass.
type Status struct {
	Ready  bool              `json:"ready"`
	Checks map[string]string `json:"checks"` // name → "ok" or the error text
}

// Checker runs registered probes with a bounded per-probe timeout.
type Checker struct {
	mu      sync.Mutex
	probes  []probe
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Checker. A zero timeout defaults to 3 seconds per probe.
func New(timeout time.Duration, logger *zap.Logger) *Checker {
	if timeout == 0 {
		timeout = 3 * time.Second
	}
	return &Checker{timeout: timeout, logger: logger}
}

// Register adds a critical probe: failure marks the service not ready.
func (c *Checker) Register(name string, fn ProbeFunc) {
	c.add(name, true, fn)
}

// RegisterOptional adds a non-critical probe: failure is reported but does
// not affect readiness. Used for the cache, which the service must survive
// without.
func (c *Checker) RegisterOptional(name string, fn ProbeFunc) {
	c.add(name, false, fn)
}

func (c *Checker) add(name string, critical bool, fn ProbeFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probes = append(c.probes, probe{name: name, critical: critical, fn: fn})
}

// Check runs all probes sequentially and aggregates the result.
func (c *Checker) Check(ctx context.Context) Status {
	c.mu.Lock()
	probes := make([]probe, len(c.probes))
	copy(probes, c.probes)
	c.mu.Unlock()

	status := Status{Ready: true, Checks: make(map[string]string, len(probes))}
	for _, p := range probes {
		probeCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err := p.fn(probeCtx)
		cancel()

		if err != nil {
			status.Checks[p.name] = err.Error()
			if p.critical {
				status.Ready = false
			}
			c.logger.Warn("readiness probe failed",
				zap.String("probe", p.name),
				zap.Bool("critical", p.critical),
				zap.Error(err),
			)
			continue
		}
		status.Checks[p.name] = "ok"
	}
	return status
}
