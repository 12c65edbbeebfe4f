package mqtt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/pglab/photogate-daq/internal/gate"
)

func TestFormatEdgePayload(t *testing.T) {
	event := gate.Event{
		Channel:     3,
		Direction:   gate.Rise,
		TimestampMS: 125034,
		Reading:     3910,
	}

	payload, err := FormatEdgePayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed EdgePayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Edge.Channel != 3 {
		t.Errorf("unexpected channel: %d", parsed.Edge.Channel)
	}
	if parsed.Edge.Direction != "RISE" {
		t.Errorf("unexpected direction: %s", parsed.Edge.Direction)
	}
	if parsed.Edge.TimestampMs != 125034 {
		t.Errorf("unexpected timestamp: %d", parsed.Edge.TimestampMs)
	}
	if parsed.Edge.Reading != 3910 {
		t.Errorf("unexpected reading: %d", parsed.Edge.Reading)
	}
}

func TestFormatEdgePayloadFall(t *testing.T) {
	payload, err := FormatEdgePayload(gate.Event{
		Channel:     0,
		Direction:   gate.Fall,
		TimestampMS: 1,
		Reading:     12,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed EdgePayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Edge.Direction != "FALL" {
		t.Errorf("unexpected direction: %s", parsed.Edge.Direction)
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.System.Timestamp != "2026-02-02T22:18:12Z" {
		t.Errorf("unexpected timestamp: %s", parsed.System.Timestamp)
	}
	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("unexpected event: %s", parsed.System.Event)
	}
	if parsed.System.Reason != "SIGTERM" {
		t.Errorf("unexpected reason: %s", parsed.System.Reason)
	}
}

func TestFormatSystemPayloadRawPassthrough(t *testing.T) {
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)
	payload, err := FormatSystemPayload(SystemEvent{RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload not passed through: %s", payload)
	}
}

func TestFakePublisherRecordsOutput(t *testing.T) {
	f := NewFakePublisher()
	f.Connected = true

	frame := []byte{1, 2, 3, 4}
	if err := f.PublishFrame(frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Mutating the caller's slice must not corrupt the recorded frame
	frame[0] = 99
	if f.Frames[0][0] != 1 {
		t.Error("recorded frame aliases the caller's slice")
	}

	if err := f.PublishEdge(gate.Event{Channel: 1, Direction: gate.Rise}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Edges) != 1 || len(f.EdgePayloads) != 1 {
		t.Errorf("expected 1 recorded edge, got %d events %d payloads", len(f.Edges), len(f.EdgePayloads))
	}

	if !f.HasConsumers() {
		t.Error("connected fake should report consumers")
	}
	f.Connected = false
	if f.HasConsumers() {
		t.Error("disconnected fake should report no consumers")
	}
}
