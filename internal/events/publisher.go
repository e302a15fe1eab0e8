// Package events fans significant simulation events out to NATS. Publishing
// is strictly best-effort: the kernel never blocks or fails on broker
// trouble, and a nil publisher is a valid no-op.
package events

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

const subjectPrefix = "eternaverse.events."

// Publisher broadcasts universe events.
type Publisher struct {
	nc  *nats.Conn
	log zerolog.Logger
}

// NewPublisher wraps a NATS connection. Pass a nil connection to disable
// publishing.
func NewPublisher(nc *nats.Conn, log zerolog.Logger) *Publisher {
	return &Publisher{nc: nc, log: log.With().Str("component", "events").Logger()}
}

type envelope struct {
	UniverseID string                    `json:"universeId"`
	Event      universe.SignificantEvent `json:"event"`
}

// PublishEvent sends one significant event on the universe's subject.
func (p *Publisher) PublishEvent(universeID string, evt universe.SignificantEvent) {
	if p == nil || p.nc == nil {
		return
	}
	payload, err := json.Marshal(envelope{UniverseID: universeID, Event: evt})
	if err != nil {
		p.log.Warn().Err(err).Msg("marshaling event")
		return
	}
	if err := p.nc.Publish(subjectPrefix+universeID, payload); err != nil {
		p.log.Warn().Err(err).Str("universe", universeID).Msg("publishing event")
	}
}
