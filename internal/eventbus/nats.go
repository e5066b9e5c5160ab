/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eventbus

import (
	"fmt"
	"sync"
	"time"

	"github.com/friendsincode/videogallery/internal/events"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// NATSBus mirrors gallery events over NATS core subjects. Local delivery
// always goes through an in-memory bus; a missing server degrades to
// local-only delivery.
type NATSBus struct {
	conn   *nats.Conn
	logger zerolog.Logger
	local  *events.Bus
	nodeID string

	mu   sync.Mutex
	subs map[events.EventType]*nats.Subscription
}

// NewNATSBus connects to url. Connection failures are logged and the bus
// stays local-only.
func NewNATSBus(url, nodeID string, logger zerolog.Logger) *NATSBus {
	logger = logger.With().Str("component", "eventbus").Str("backend", "nats").Logger()
	nb := &NATSBus{
		logger: logger,
		local:  events.NewBus(),
		nodeID: nodeID,
		subs:   make(map[events.EventType]*nats.Subscription),
	}

	conn, err := nats.Connect(url,
		nats.Name("videogallery-"+nodeID),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		logger.Warn().Err(err).Str("url", url).Msg("NATS connection failed, using in-memory fallback")
		return nb
	}

	nb.conn = conn
	logger.Info().Str("url", url).Str("node_id", nodeID).Msg("NATS event bus initialized")
	return nb
}

// Subscribe registers a local subscriber and subscribes to the remote subject
// on first use.
func (nb *NATSBus) Subscribe(eventType events.EventType) events.Subscriber {
	sub := nb.local.Subscribe(eventType)
	if nb.conn == nil {
		return sub
	}

	nb.mu.Lock()
	defer nb.mu.Unlock()
	if _, exists := nb.subs[eventType]; exists {
		return sub
	}

	remote, err := nb.conn.Subscribe(Subject(eventType), func(m *nats.Msg) {
		msg, err := unmarshalMessage(m.Data)
		if err != nil {
			nb.logger.Error().Err(err).Msg("failed to unmarshal NATS message")
			return
		}
		if msg.NodeID == nb.nodeID {
			return
		}
		nb.local.Publish(eventType, msg.payload())
	})
	if err != nil {
		nb.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("NATS subscribe failed")
		return sub
	}
	nb.subs[eventType] = remote
	return sub
}

// Publish delivers locally, then mirrors the event to NATS.
func (nb *NATSBus) Publish(eventType events.EventType, payload events.Payload) {
	nb.local.Publish(eventType, payload)
	if nb.conn == nil {
		return
	}

	data, err := marshalMessage(eventType, payload, nb.nodeID)
	if err != nil {
		nb.logger.Error().Err(err).Msg("failed to marshal NATS message")
		return
	}
	if err := nb.conn.Publish(Subject(eventType), data); err != nil {
		nb.logger.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to publish to NATS")
	}
}

// Unsubscribe removes a local subscriber and the remote subscription once
// the type has no local listeners.
func (nb *NATSBus) Unsubscribe(eventType events.EventType, sub events.Subscriber) {
	nb.local.Unsubscribe(eventType, sub)
	if nb.local.SubscriberCount(eventType) > 0 {
		return
	}

	nb.mu.Lock()
	defer nb.mu.Unlock()
	if remote, ok := nb.subs[eventType]; ok {
		_ = remote.Unsubscribe()
		delete(nb.subs, eventType)
	}
}

// Close drains the connection.
func (nb *NATSBus) Close() error {
	if nb.conn == nil {
		return nil
	}
	if err := nb.conn.Drain(); err != nil {
		nb.conn.Close()
		return fmt.Errorf("drain nats: %w", err)
	}
	nb.logger.Info().Msg("NATS event bus closed")
	return nil
}
