package acquire

import (
	"fmt"

	"github.com/pglab/photogate-daq/internal/packet"
)

// ChunkBuffer is the fixed-capacity sample chunk cycled FILLING → FULL →
// FILLING. Storage is allocated once; a flush resets the fill index and
// the same backing array is overwritten by the next chunk.
//
// Not safe for concurrent use — the buffer is owned by the acquisition
// loop, which only lends it out for the duration of a flush.
type ChunkBuffer struct {
	samples []packet.Sample
	fill    int
}

// NewChunkBuffer creates a buffer holding capacity samples per chunk.
func NewChunkBuffer(capacity int) (*ChunkBuffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("chunk capacity must be positive, got %d", capacity)
	}
	return &ChunkBuffer{samples: make([]packet.Sample, capacity)}, nil
}

// Push stores one sample and reports whether the chunk just became full.
// The caller must Flush a full chunk before pushing again; a push against
// an unflushed full chunk is ignored and reported full again.
func (b *ChunkBuffer) Push(s packet.Sample) bool {
	if b.fill == len(b.samples) {
		return true
	}
	b.samples[b.fill] = s
	b.fill++
	return b.fill == len(b.samples)
}

// Flush serializes the filled chunk into one wire frame and resets the
// fill index. Called only when the chunk is full, so the frame is always
// exactly Cap() * packet.Size bytes.
func (b *ChunkBuffer) Flush() []byte {
	frame := make([]byte, 0, b.fill*packet.Size)
	for _, s := range b.samples[:b.fill] {
		frame = s.AppendTo(frame)
	}
	b.fill = 0
	return frame
}

// Reset discards any partially filled chunk.
func (b *ChunkBuffer) Reset() {
	b.fill = 0
}

// SetCapacity replaces the chunk capacity. Any partially filled chunk is
// discarded. Non-positive capacities are rejected and the prior capacity
// is retained.
func (b *ChunkBuffer) SetCapacity(capacity int) error {
	if capacity <= 0 {
		return fmt.Errorf("chunk capacity must be positive, got %d", capacity)
	}
	b.samples = make([]packet.Sample, capacity)
	b.fill = 0
	return nil
}

// Len returns the current fill index.
func (b *ChunkBuffer) Len() int {
	return b.fill
}

// Cap returns the configured chunk capacity.
func (b *ChunkBuffer) Cap() int {
	return len(b.samples)
}
