package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jcttech/specstack/pkg/domain/events"
	"github.com/jcttech/specstack/pkg/domain/messaging"
)

// Registry creates messaging adapters from configuration and fans
// domain events out to the ones whose filters match.
type Registry struct {
	entries []entry
	logger  *slog.Logger
}

type entry struct {
	adapter messaging.MessageAdapter
	config  messaging.AdapterConfig
}

// NewRegistry creates adapters from a MessagingConfig.
func NewRegistry(config *messaging.MessagingConfig) (*Registry, error) {
	r := &Registry{logger: slog.Default()}
	if config == nil {
		return r, nil
	}

	for _, cfg := range config.Adapters {
		if !cfg.Enabled {
			continue
		}

		adapter, err := createAdapter(cfg)
		if err != nil {
			return nil, fmt.Errorf("create adapter %q: %w", cfg.Name, err)
		}
		r.entries = append(r.entries, entry{adapter: adapter, config: cfg})
	}

	return r, nil
}

// Adapters returns all active adapters.
func (r *Registry) Adapters() []messaging.MessageAdapter {
	adapters := make([]messaging.MessageAdapter, 0, len(r.entries))
	for _, e := range r.entries {
		adapters = append(adapters, e.adapter)
	}
	return adapters
}

// Handle forwards an event to every adapter whose filter matches.
// Delivery is best effort; a failing channel is logged, never fatal.
func (r *Registry) Handle(ctx context.Context, event events.DomainEvent) error {
	base := events.AsBase(event)
	if base == nil {
		return nil
	}

	for _, e := range r.entries {
		if !e.config.Matches(base.Type) {
			continue
		}
		if err := e.adapter.Send(ctx, base); err != nil {
			r.logger.Warn("messaging adapter send failed",
				"adapter", e.adapter.Name(),
				"event_type", base.Type,
				"error", err)
		}
	}
	return nil
}

// Registration returns the dispatcher registration for the registry.
func (r *Registry) Registration() events.HandlerRegistration {
	return events.HandlerRegistration{
		Name:       "MessagingRegistry",
		Handler:    r.Handle,
		EventTypes: []string{"*"},
	}
}

func createAdapter(cfg messaging.AdapterConfig) (messaging.MessageAdapter, error) {
	switch cfg.Type {
	case "webhook":
		return NewWebhookAdapter(cfg), nil
	case "slack":
		return NewSlackAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("unknown adapter type: %s", cfg.Type)
	}
}
