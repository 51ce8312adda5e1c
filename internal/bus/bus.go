// Package bus provides event bus implementations for the scoring pipeline.
package bus

import (
	"fmt"

	"github.com/trustvault/riskd/internal/domain"
)

// New creates an event bus based on configuration.
// Community tier: in-process channel bus. Pro tier: NATS.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSBus(cfg)

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}
