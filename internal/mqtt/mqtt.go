// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/pglab/photogate-daq/internal/gate"
)

// TopicFrames carries binary chunk frames, one chunk per message.
const TopicFrames = "physics/photogate/frames"

// TopicEdges carries JSON edge events.
const TopicEdges = "physics/photogate/edges"

// TopicSystem carries system lifecycle events.
const TopicSystem = "physics/photogate/system"

// Publisher publishes acquisition output to MQTT.
type Publisher interface {
	// PublishFrame sends one chunk frame. Delivery is best-effort: the
	// call must not block waiting for broker confirmation.
	PublishFrame(frame []byte) error

	// PublishEdge sends an edge event to the broker.
	PublishEdge(e gate.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// EdgePayload represents the MQTT message payload for an edge event.
type EdgePayload struct {
	Edge EdgeInner `json:"edge"`
}

// EdgeInner contains the edge event details.
type EdgeInner struct {
	Channel     int    `json:"channel"`
	Direction   string `json:"direction"`
	TimestampMs uint32 `json:"timestamp_ms"`
	Reading     uint16 `json:"reading"`
}

// FormatEdgePayload creates the JSON payload for an edge event.
func FormatEdgePayload(e gate.Event) ([]byte, error) {
	payload := EdgePayload{
		Edge: EdgeInner{
			Channel:     e.Channel,
			Direction:   string(e.Direction),
			TimestampMs: e.TimestampMS,
			Reading:     e.Reading,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
