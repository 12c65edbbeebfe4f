// Package gate contains pure edge-detection logic for photogate channels.
// This package has NO hardware or transport dependencies — raw readings
// are always passed in, never read here.
package gate

import "fmt"

// FullScale is the maximum raw count of the 12-bit converter (0–4095).
const FullScale = 4095

// DefaultReferenceLevel separates "beam clear" from "beam blocked" on the
// stock pull-up wiring, where an unobstructed gate idles near full scale.
const DefaultReferenceLevel = 3500

// Direction identifies which way a reading crossed the reference level.
type Direction string

const (
	Rise Direction = "RISE"
	Fall Direction = "FALL"
)

// Event is a single detected edge, stamped by the acquisition clock.
type Event struct {
	Channel     int
	Direction   Direction
	TimestampMS uint32
	Reading     uint16
}

// Channel tracks threshold state for one photogate input.
//
// The signalState latch provides the debounce: the state only flips once
// per threshold crossing, so a noisy signal sitting at the reference level
// cannot retrigger the same edge. Pending flags are single-shot — set by
// Observe, cleared by TakeRise/TakeFall — and at most one direction is
// pending at a time.
type Channel struct {
	refLevel    uint16
	primed      bool
	signalHigh  bool
	pendingRise bool
	pendingFall bool
	riseEnabled bool
	fallEnabled bool
}

// NewChannel returns a channel with the default reference level, rise
// stamping enabled, and fall stamping disabled (the stock front-panel
// defaults of the original instrument).
func NewChannel() *Channel {
	return &Channel{
		refLevel:    DefaultReferenceLevel,
		riseEnabled: true,
	}
}

// Observe feeds one raw reading through the detector.
//
// The first reading primes the latch to the signal's current side of the
// reference level without stamping an edge: attaching to a gate whose
// beam is already unbroken (pull-up wiring idles near full scale) must
// not report a phantom rise.
//
// A masked direction still updates the signalState latch, so an operator
// can silence a spurious channel without losing level tracking. Setting a
// pending flag clears the opposite one: an unconsumed rise is superseded
// by a later fall rather than coexisting with it.
func (c *Channel) Observe(raw uint16) {
	if !c.primed {
		c.primed = true
		c.signalHigh = raw > c.refLevel
		return
	}

	if raw > c.refLevel && !c.signalHigh {
		c.signalHigh = true
		if c.riseEnabled {
			c.pendingRise = true
			c.pendingFall = false
		}
		return
	}

	if raw < c.refLevel && c.signalHigh {
		c.signalHigh = false
		if c.fallEnabled {
			c.pendingFall = true
			c.pendingRise = false
		}
	}
}

// TakeRise reports and clears a pending rise. Each edge is consumed
// exactly once: a second call without a new qualifying reading returns
// false.
func (c *Channel) TakeRise() bool {
	was := c.pendingRise
	c.pendingRise = false
	return was
}

// TakeFall reports and clears a pending fall.
func (c *Channel) TakeFall() bool {
	was := c.pendingFall
	c.pendingFall = false
	return was
}

// SignalHigh reports whether the last observed reading left the channel
// above its reference level.
func (c *Channel) SignalHigh() bool {
	return c.signalHigh
}

// ReferenceLevel returns the current threshold.
func (c *Channel) ReferenceLevel() uint16 {
	return c.refLevel
}

// SetReferenceLevel updates the threshold. Values outside the ADC domain
// are rejected and the prior level is retained.
func (c *Channel) SetReferenceLevel(v uint16) error {
	if v > FullScale {
		return fmt.Errorf("reference level %d out of range (0-%d)", v, FullScale)
	}
	c.refLevel = v
	return nil
}

// SetRiseEnabled masks or unmasks rise stamping for this channel.
func (c *Channel) SetRiseEnabled(enabled bool) {
	c.riseEnabled = enabled
	if !enabled {
		c.pendingRise = false
	}
}

// SetFallEnabled masks or unmasks fall stamping for this channel.
func (c *Channel) SetFallEnabled(enabled bool) {
	c.fallEnabled = enabled
	if !enabled {
		c.pendingFall = false
	}
}

// RiseEnabled reports whether rise stamping is enabled.
func (c *Channel) RiseEnabled() bool { return c.riseEnabled }

// FallEnabled reports whether fall stamping is enabled.
func (c *Channel) FallEnabled() bool { return c.fallEnabled }
