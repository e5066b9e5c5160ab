/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package eventbus

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/friendsincode/videogallery/internal/events"
	"github.com/google/uuid"
)

// SubjectPrefix namespaces gallery events on the shared broker.
const SubjectPrefix = "gallery.events."

// Subject returns the channel or subject name for an event type.
func Subject(eventType events.EventType) string {
	return SubjectPrefix + string(eventType)
}

// message is the envelope published to remote brokers.
type message struct {
	EventType events.EventType `json:"event_type"`
	Payload   events.Payload   `json:"payload"`
	Timestamp time.Time        `json:"timestamp"`
	NodeID    string           `json:"node_id"` // used to drop our own echoes
}

// OriginKey marks payloads that arrived from another node. Its value is the
// sending node id.
const OriginKey = "origin"

// payload returns the remote payload tagged with its origin node.
func (m *message) payload() events.Payload {
	if m.Payload == nil {
		m.Payload = events.Payload{}
	}
	m.Payload[OriginKey] = m.NodeID
	return m.Payload
}

func marshalMessage(eventType events.EventType, payload events.Payload, nodeID string) ([]byte, error) {
	return json.Marshal(message{
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		NodeID:    nodeID,
	})
}

func unmarshalMessage(data []byte) (*message, error) {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal event message: %w", err)
	}
	return &msg, nil
}

// NodeID returns id when set, otherwise hostname plus a random suffix.
func NodeID(id string) string {
	if id != "" {
		return id
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "gallery"
	}
	return host + "-" + uuid.NewString()[:8]
}
