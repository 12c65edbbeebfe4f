package mqtt

import (
	"fmt"
	"log"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/pglab/photogate-daq/internal/gate"
)

// edgeBufferCapacity bounds how many edge events are held across a broker
// outage before the oldest are dropped.
const edgeBufferCapacity = 256

// edgeAckTimeout bounds how long the ack watcher waits on a QoS 1 edge
// publish before logging the loss.
const edgeAckTimeout = 5 * time.Second

// RealPublisher publishes to an actual MQTT broker.
type RealPublisher struct {
	client paho.Client
	ring   *edgeRing
}

// NewRealPublisher creates a publisher connected to the given broker.
// Edge events published while disconnected are buffered and replayed
// when the connection returns.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{
		ring: newEdgeRing(edgeBufferCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("photogate-daq").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect)

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return p, nil
}

// PublishFrame sends one chunk frame on the frames topic.
// QoS 0 and the token is deliberately not awaited: the acquisition loop
// must never observe transport back-pressure, so delivery is best-effort
// and a slow broker silently drops frames.
func (p *RealPublisher) PublishFrame(frame []byte) error {
	p.client.Publish(TopicFrames, 0, false, frame)
	return nil
}

// PublishEdge sends an edge event on the edges topic. While disconnected
// the event is buffered for replay instead.
//
// The broker ack is watched on its own goroutine: this method runs on the
// acquisition tick, which must never wait on the network — a slow broker
// would otherwise stretch the sampling cadence and lose edges.
func (p *RealPublisher) PublishEdge(e gate.Event) error {
	payload, err := FormatEdgePayload(e)
	if err != nil {
		return fmt.Errorf("format edge payload: %w", err)
	}

	if !p.client.IsConnected() {
		p.ring.push(payload)
		return nil
	}

	// QoS 1 (at-least-once): edge timestamps are the experiment's output
	token := p.client.Publish(TopicEdges, 1, false, payload)
	go func() {
		if !token.WaitTimeout(edgeAckTimeout) {
			log.Printf("mqtt: edge publish ack timeout")
			return
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: edge publish: %v", err)
		}
	}()

	return nil
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	token := p.client.Publish(TopicSystem, 1, event.Retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}

	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// HasConsumers reports whether the transport can deliver frames. With a
// broker in the path this is connectivity: no broker means no consumers.
func (p *RealPublisher) HasConsumers() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

// onConnect replays edge events buffered during the outage. This runs on
// paho's connection handler goroutine, so awaiting the acks here is fine.
func (p *RealPublisher) onConnect(client paho.Client) {
	payloads := p.ring.drainAll()
	if len(payloads) == 0 {
		return
	}

	log.Printf("mqtt: replaying %d buffered edge events", len(payloads))
	for _, payload := range payloads {
		token := client.Publish(TopicEdges, 1, false, payload)
		token.WaitTimeout(edgeAckTimeout)
	}
}
