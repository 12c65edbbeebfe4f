package acquire

import (
	"time"

	"github.com/pglab/photogate-daq/internal/packet"
)

// Transmission cost estimates for the reference MQTT-over-WiFi transport,
// measured with the -probe-rate burst against a LAN broker. Used only for
// offline interval planning, never on the hot path.
const (
	// DefaultFrameOverhead is the fixed per-frame publish cost t_0.
	DefaultFrameOverhead = 2 * time.Millisecond

	// DefaultPerByte is the marginal publish cost per payload byte k.
	DefaultPerByte = 8 * time.Microsecond
)

// MinInterval returns the minimum stable sampling interval for a chunk of
// chunkSize samples of packetBytes bytes each, given the measured time to
// read all channels once (readTime, t_r), the fixed per-frame transmission
// overhead (frameOverhead, t_0) and the marginal transmission time per
// byte (perByte, k).
//
// Stability requires that a chunk transmits no slower than the next one
// fills: t_0 + k*N*B <= N*interval. Dividing by N and taking the max with
// the hard floor t_r (sampling cannot outrun the converter) gives
//
//	interval_min = max(t_r, t_0/N + k*B)
func MinInterval(chunkSize int, readTime, frameOverhead, perByte time.Duration, packetBytes int) time.Duration {
	if chunkSize < 1 {
		chunkSize = 1
	}

	transmit := frameOverhead/time.Duration(chunkSize) + perByte*time.Duration(packetBytes)
	if readTime > transmit {
		return readTime
	}
	return transmit
}

// RecommendInterval applies MinInterval to the wire packet size and the
// reference transport estimates.
func RecommendInterval(chunkSize int, readTime time.Duration) time.Duration {
	return MinInterval(chunkSize, readTime, DefaultFrameOverhead, DefaultPerByte, packet.Size)
}
