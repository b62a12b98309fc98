package health_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pagecrest/domains/internal/health"
	"go.uber.org/zap"
)

func TestCheck_allHealthy(t *testing.T) {
	c := health.New(0, zap.NewNop())
	c.Register("postgres", func(ctx context.Context) error { return nil })
	c.RegisterOptional("redis", func(ctx context.Context) error { return nil })

	status := c.Check(context.Background())

	if !status.Ready {
		t.Error("expected ready")
	}
	if status.Checks["postgres"] != "ok" || status.Checks["redis"] != "ok" {
		t.Errorf("checks: %v", status.Checks)
	}
}

func TestCheck_criticalFailureBlocksReadiness(t *testing.T) {
	c := health.New(0, zap.NewNop())
	c.Register("postgres", func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	status := c.Check(context.Background())

	if status.Ready {
		t.Error("expected not ready")
	}
	if status.Checks["postgres"] != "connection refused" {
		t.Errorf("checks: %v", status.Checks)
	}
}

func TestCheck_optionalFailureDegradesOnly(t *testing.T) {
	c := health.New(0, zap.NewNop())
	c.Register("postgres", func(ctx context.Context) error { return nil })
	c.RegisterOptional("redis", func(ctx context.Context) error {
		return errors.New("connection refused")
	})

	status := c.Check(context.Background())

	if !status.Ready {
		t.Error("an optional probe failure must not fail readiness")
	}
	if status.Checks["redis"] != "connection refused" {
		t.Errorf("checks: %v", status.Checks)
	}
}

func TestCheck_perProbeTimeout(t *testing.T) {
	c := health.New(20*time.Millisecond, zap.NewNop())
	c.Register("slow", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	start := time.Now()
	status := c.Check(context.Background())

	if status.Ready {
		t.Error("a timed-out critical probe must fail readiness")
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("probe timeout not enforced, took %v", elapsed)
	}
}

func TestCheck_noProbes(t *testing.T) {
	status := health.New(0, zap.NewNop()).Check(context.Background())
	if !status.Ready || len(status.Checks) != 0 {
		t.Errorf("status: %+v", status)
	}
}
