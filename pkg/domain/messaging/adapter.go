// Package messaging defines the pluggable messaging adapter interface.
package messaging

import (
	"context"

	"github.com/jcttech/specstack/pkg/domain/events"
)

// MessageAdapter sends event notifications to an external channel.
type MessageAdapter interface {
	Send(ctx context.Context, event *events.BaseEvent) error
	Name() string
	Type() string
}

// AdapterConfig defines configuration for a messaging adapter.
type AdapterConfig struct {
	Name         string            `yaml:"name" json:"name"`
	Type         string            `yaml:"type" json:"type"` // "webhook", "slack"
	URL          string            `yaml:"url" json:"url"`
	Secret       string            `yaml:"secret,omitempty" json:"secret,omitempty"`
	EventFilters []string          `yaml:"event_filters,omitempty" json:"event_filters,omitempty"`
	Enabled      bool              `yaml:"enabled" json:"enabled"`
	Options      map[string]string `yaml:"options,omitempty" json:"options,omitempty"`
}

// Matches reports whether the adapter should receive the given event type.
// An empty filter list matches every event.
func (c AdapterConfig) Matches(eventType string) bool {
	if len(c.EventFilters) == 0 {
		return true
	}
	for _, f := range c.EventFilters {
		if f == eventType {
			return true
		}
	}
	return false
}

// MessagingConfig holds all configured messaging adapters.
type MessagingConfig struct {
	Adapters []AdapterConfig `yaml:"adapters" json:"adapters"`
}

// Find returns the adapter config with the given name, or nil.
func (c *MessagingConfig) Find(name string) *AdapterConfig {
	for i := range c.Adapters {
		if c.Adapters[i].Name == name {
			return &c.Adapters[i]
		}
	}
	return nil
}
