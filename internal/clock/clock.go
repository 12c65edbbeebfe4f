// Package clock provides the millisecond time base for acquisition.
package clock

import "time"

// Clock counts elapsed milliseconds relative to a fixed acquisition epoch
// t0, captured once when the clock is created.
type Clock struct {
	epoch time.Time
	now   func() time.Time
}

// New captures t0 from now() and returns a clock reporting elapsed time
// relative to it. A nil now defaults to time.Now.
func New(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{epoch: now(), now: now}
}

// Epoch returns t0. Diagnostic only; t0 is not part of the wire format.
func (c *Clock) Epoch() time.Time {
	return c.epoch
}

// Now returns elapsed milliseconds since t0, truncated to 32 bits.
// The counter wraps at 2^32 ms (about 49.7 days).
func (c *Clock) Now() uint32 {
	return uint32(c.now().Sub(c.epoch).Milliseconds())
}

// Delta returns the milliseconds elapsed since a previously captured
// timestamp. The unsigned subtraction deliberately relies on wraparound
// arithmetic: the result stays correct across a counter wrap, so a wrap
// mid-measurement is not an error condition.
func (c *Clock) Delta(prev uint32) uint32 {
	return c.Now() - prev
}
