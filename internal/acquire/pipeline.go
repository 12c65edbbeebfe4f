// Package acquire implements the acquisition pipeline: per-tick channel
// scans feed the edge detectors and the chunk buffer, and every completed
// chunk is serialized into one binary frame and handed to the transmitter.
package acquire

import (
	"fmt"
	"log"
	"time"

	"github.com/pglab/photogate-daq/internal/adc"
	"github.com/pglab/photogate-daq/internal/clock"
	"github.com/pglab/photogate-daq/internal/gate"
	"github.com/pglab/photogate-daq/internal/packet"
	"github.com/pglab/photogate-daq/internal/status"
)

// Transmitter is the transport surface the pipeline publishes into.
type Transmitter interface {
	// PublishFrame sends one completed chunk as a single binary message.
	// Implementations must not block on delivery confirmation; frames may
	// be dropped by the transport.
	PublishFrame(frame []byte) error

	// PublishEdge sends one consumed edge event. Like PublishFrame this
	// runs on the tick path: implementations must not await delivery
	// confirmation, or a slow broker stretches the sampling cadence.
	PublishEdge(e gate.Event) error

	// HasConsumers reports whether anyone is listening. While false the
	// pipeline pauses and discards its partial chunk instead of buffering
	// unboundedly.
	HasConsumers() bool
}

// Pipeline owns the per-tick acquisition sequence. Everything runs on the
// single goroutine that calls Tick — there is no locking on the hot path
// and no allocation beyond the flush-time frame.
type Pipeline struct {
	reader   adc.Reader
	clk      *clock.Clock
	channels [packet.NumChannels]*gate.Channel
	buf      *ChunkBuffer
	tx       Transmitter
	tracker  *status.Tracker // optional

	interval time.Duration
	paused   bool
}

// New assembles a pipeline. tracker may be nil.
func New(reader adc.Reader, clk *clock.Clock, buf *ChunkBuffer, tx Transmitter, interval time.Duration, tracker *status.Tracker) (*Pipeline, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sample interval must be positive, got %v", interval)
	}

	p := &Pipeline{
		reader:   reader,
		clk:      clk,
		buf:      buf,
		tx:       tx,
		tracker:  tracker,
		interval: interval,
	}
	for i := range p.channels {
		p.channels[i] = gate.NewChannel()
	}
	return p, nil
}

// Channel returns the detector for one channel, for configuration.
func (p *Pipeline) Channel(i int) (*gate.Channel, error) {
	if i < 0 || i >= packet.NumChannels {
		return nil, fmt.Errorf("channel %d out of range (0-%d)", i, packet.NumChannels-1)
	}
	return p.channels[i], nil
}

// SetReferenceLevel updates one channel's threshold. Out-of-range values
// are rejected and the prior level is retained.
func (p *Pipeline) SetReferenceLevel(channel int, level uint16) error {
	ch, err := p.Channel(channel)
	if err != nil {
		return err
	}
	return ch.SetReferenceLevel(level)
}

// SetRiseEnabled masks or unmasks rise stamping for one channel.
func (p *Pipeline) SetRiseEnabled(channel int, enabled bool) error {
	ch, err := p.Channel(channel)
	if err != nil {
		return err
	}
	ch.SetRiseEnabled(enabled)
	return nil
}

// SetFallEnabled masks or unmasks fall stamping for one channel.
func (p *Pipeline) SetFallEnabled(channel int, enabled bool) error {
	ch, err := p.Channel(channel)
	if err != nil {
		return err
	}
	ch.SetFallEnabled(enabled)
	return nil
}

// SetChunkCapacity replaces the chunk capacity, discarding any partial
// chunk. Non-positive capacities are rejected.
func (p *Pipeline) SetChunkCapacity(n int) error {
	return p.buf.SetCapacity(n)
}

// SetSampleInterval updates the tick cadence. Non-positive intervals are
// rejected and the prior interval is retained. The driving loop picks up
// the change on its next tick.
func (p *Pipeline) SetSampleInterval(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("sample interval must be positive, got %v", d)
	}
	p.interval = d
	return nil
}

// SampleInterval returns the current tick cadence.
func (p *Pipeline) SampleInterval() time.Duration {
	return p.interval
}

// Epoch returns the acquisition epoch t0.
func (p *Pipeline) Epoch() time.Time {
	return p.clk.Epoch()
}

// Tick runs one acquisition step: consumer check, channel scan, edge
// detection, buffer fill, and — when the chunk fills — flush. All errors
// are local to the tick; nothing here is fatal.
func (p *Pipeline) Tick() {
	if !p.tx.HasConsumers() {
		if !p.paused {
			log.Printf("acquire: no consumers, pausing (discarding %d buffered samples)", p.buf.Len())
			p.buf.Reset()
			p.paused = true
			if p.tracker != nil {
				p.tracker.SetPaused(true)
			}
		}
		return
	}

	if p.paused {
		log.Printf("acquire: consumer attached, resuming")
		p.paused = false
		if p.tracker != nil {
			p.tracker.SetPaused(false)
		}
	}

	before := p.clk.Now()
	scan, err := p.reader.ReadAll()
	if err != nil {
		log.Printf("acquire: scan error: %v", err)
		if p.tracker != nil {
			p.tracker.RecordScanError()
		}
		return
	}
	readMs := p.clk.Delta(before)
	ts := p.clk.Now()

	sample := packet.Sample{TimestampMS: ts}
	for i, ch := range p.channels {
		raw := scan[i]
		sample.Readings[i] = raw
		ch.Observe(raw)

		if ch.TakeRise() {
			p.emitEdge(gate.Event{Channel: i, Direction: gate.Rise, TimestampMS: ts, Reading: raw})
		}
		if ch.TakeFall() {
			p.emitEdge(gate.Event{Channel: i, Direction: gate.Fall, TimestampMS: ts, Reading: raw})
		}
	}

	if p.tracker != nil {
		p.tracker.RecordScan(readMs)
	}

	if p.buf.Push(sample) {
		frame := p.buf.Flush()
		err := p.tx.PublishFrame(frame)
		if err != nil {
			log.Printf("acquire: frame publish error: %v", err)
		}
		if p.tracker != nil {
			p.tracker.RecordFrame(err == nil)
		}
	}
}

func (p *Pipeline) emitEdge(e gate.Event) {
	if err := p.tx.PublishEdge(e); err != nil {
		log.Printf("acquire: edge publish error: %v", err)
	}
	if p.tracker != nil {
		p.tracker.RecordEdge(e.Channel, e.Direction)
	}
}
