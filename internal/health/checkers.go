package health

import (
	"context"
	"fmt"
)

// Pinger is the subset of *pgxpool.Pool the database checker needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Database returns a Checker that verifies the PostgreSQL pool can reach the
// server.
func Database(p Pinger) Checker {
	return Checker{
		Name: "database",
		Check: func(ctx context.Context) error {
			if p == nil {
				return fmt.Errorf("no database pool")
			}
			return p.Ping(ctx)
		},
	}
}

// Provider returns an optional Checker that reports whether the named
// provider is configured. The orchestrator degrades the affected stages when
// one is missing, so an unconfigured provider shows as degraded on /readyz
// rather than failing it.
func Provider(name string, configured func() bool) Checker {
	return Checker{
		Name:     name,
		Optional: true,
		Check: func(context.Context) error {
			if !configured() {
				return fmt.Errorf("%s provider is not configured", name)
			}
			return nil
		},
	}
}
