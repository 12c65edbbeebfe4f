package mqtt

import (
	"github.com/pglab/photogate-daq/internal/gate"
)

// FakePublisher records published output for test assertions.
type FakePublisher struct {
	// Frames contains all binary chunk frames that were published.
	Frames [][]byte

	// Edges contains all edge events that were published.
	Edges []gate.Event

	// EdgePayloads contains the JSON payloads for edge events.
	EdgePayloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishFrameError, if set, will be returned by PublishFrame.
	PublishFrameError error

	// PublishEdgeError, if set, will be returned by PublishEdge.
	PublishEdgeError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls IsConnected and HasConsumers.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishFrame records the frame. The slice is copied so tests can assert
// on it after the pipeline has recycled its buffer.
func (f *FakePublisher) PublishFrame(frame []byte) error {
	if f.PublishFrameError != nil {
		return f.PublishFrameError
	}

	cp := make([]byte, len(frame))
	copy(cp, frame)
	f.Frames = append(f.Frames, cp)

	return nil
}

// PublishEdge records the edge event.
func (f *FakePublisher) PublishEdge(e gate.Event) error {
	if f.PublishEdgeError != nil {
		return f.PublishEdgeError
	}

	f.Edges = append(f.Edges, e)

	payload, err := FormatEdgePayload(e)
	if err != nil {
		return err
	}
	f.EdgePayloads = append(f.EdgePayloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// HasConsumers mirrors IsConnected, like the real publisher.
func (f *FakePublisher) HasConsumers() bool {
	return f.Connected
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded output.
func (f *FakePublisher) Reset() {
	f.Frames = nil
	f.Edges = nil
	f.EdgePayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishFrameError = nil
	f.PublishEdgeError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
