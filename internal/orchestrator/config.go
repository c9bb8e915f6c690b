package orchestrator

import (
	"fmt"
	"time"

	"github.com/dusk-indust/agentmux/internal/registry"
)

const (
	// DefaultFallbackResponder receives the whole question when the
	// decomposition cannot be parsed.
	DefaultFallbackResponder = "finance"

	// DefaultDispatchTimeout bounds each responder call.
	DefaultDispatchTimeout = 60 * time.Second
)

// Config holds runtime configuration for the pipeline. It is immutable once
// passed to New.
type Config struct {
	// FallbackResponder is the responder ID used when the decomposition
	// response cannot be parsed. Must be registered.
	FallbackResponder string

	// DispatchTimeout bounds each responder call independently.
	DispatchTimeout time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		FallbackResponder: DefaultFallbackResponder,
		DispatchTimeout:   DefaultDispatchTimeout,
	}
}

// Validate checks cfg against the registry it will be used with.
func (c Config) Validate(reg *registry.Registry) error {
	if c.DispatchTimeout <= 0 {
		return fmt.Errorf("orchestrator: dispatch timeout must be positive, got %s", c.DispatchTimeout)
	}
	if c.FallbackResponder == "" {
		return fmt.Errorf("orchestrator: fallback responder is required")
	}
	if _, ok := reg.Lookup(c.FallbackResponder); !ok {
		return fmt.Errorf("orchestrator: fallback responder %q is not registered (have %v)",
			c.FallbackResponder, reg.IDs())
	}
	return nil
}
