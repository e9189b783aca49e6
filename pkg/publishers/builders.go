package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Builder creates a Publisher from its config entry.
type Builder func(ctx context.Context, cfg Config, log Logger) (Publisher, error)

// Builders maps sink types to their constructors.
type Builders map[string]Builder

// DefaultBuilders knows every sink type this package ships.
func DefaultBuilders() Builders {
	return Builders{
		TypeHTTP:   newHTTPPublisher,
		TypeSQS:    newSQSPublisher,
		TypeSNS:    newSNSPublisher,
		TypePubSub: newPubSubPublisher,
	}
}

// Build constructs the publisher for cfg.
func (b Builders) Build(ctx context.Context, cfg Config, log Logger) (Publisher, error) {
	build, ok := b[cfg.Type]
	if !ok || build == nil {
		return nil, fmt.Errorf("no publisher registered for type %q", cfg.Type)
	}
	return build(ctx, cfg, ensureLogger(log))
}

// BuildAll constructs a route per config. On failure the publishers built so
// far are closed before returning.
func BuildAll(ctx context.Context, b Builders, cfgs []Config, log Logger) ([]Route, error) {
	routes := make([]Route, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := b.Build(ctx, cfg, log)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("build publisher %q: %w", cfg.ID, err), closeRoutes(routes))
		}
		routes = append(routes, Route{Publisher: pub, Notify: cfg.Notify})
	}
	return routes, nil
}

func closeRoutes(routes []Route) error {
	var errs []error
	for _, r := range routes {
		if c, ok := r.Publisher.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", r.Publisher.Type(), r.Publisher.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
