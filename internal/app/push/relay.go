package push

import (
	"github.com/rs/zerolog"

	"ichats/internal/app/message"
	"ichats/internal/app/presence"
	"ichats/internal/pkg/logx"
)

// Deliverer pushes a stored message toward its receiver. It exists as an
// interface so handlers can be exercised without a live connection.
type Deliverer interface {
	Deliver(msg message.Message)
}

// Relay looks up the receiver in the presence registry and, if a connection
// is open, enqueues the notification events. Delivery is fire-and-forget:
// an offline receiver observes the message later through the conversation
// read path, and no failure here ever reaches the sender's request.
type Relay struct {
	registry presence.Registry
	logger   zerolog.Logger
}

// NewRelay constructs a Relay over the given presence registry.
func NewRelay(registry presence.Registry) *Relay {
	return &Relay{
		registry: registry,
		logger:   logx.Logger().With().Str("component", "relay").Logger(),
	}
}

// Deliver pushes the message to the receiver's connection when present.
// The message must already be durably stored; persistence is the source of
// truth and push success is never reported back.
func (r *Relay) Deliver(msg message.Message) {
	handle, online := r.registry.Lookup(msg.ReceiverID)
	if !online {
		return
	}

	events, err := encodeEvents(msg)
	if err != nil {
		r.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to encode push events.")
		return
	}

	for _, event := range events {
		if !handle.Enqueue(event) {
			r.logger.Warn().
				Str("message_id", msg.ID).
				Str("receiver_id", msg.ReceiverID).
				Msg("Receiver send queue full, dropping push event.")
			return
		}
	}
}
