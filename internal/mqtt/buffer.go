package mqtt

import (
	"log"
	"sync"
)

// edgeRing is a fixed-capacity FIFO of serialized edge events held while
// the broker is unreachable. Chunk frames are never buffered: frames are
// droppable raw telemetry, edge timestamps are the physics output and
// worth replaying. When full the oldest event is overwritten. Safe for
// concurrent use.
type edgeRing struct {
	mu       sync.Mutex
	payloads [][]byte
	capacity int
	head     int // next write position
	count    int
	overflow bool // true if any event was dropped since last drain
}

func newEdgeRing(capacity int) *edgeRing {
	return &edgeRing{
		payloads: make([][]byte, capacity),
		capacity: capacity,
	}
}

func (r *edgeRing) push(payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == r.capacity {
		if !r.overflow {
			log.Printf("mqtt: edge buffer full (%d events), dropping oldest", r.capacity)
			r.overflow = true
		}
		// Overwrite oldest: head is already pointing at it
		r.payloads[r.head] = payload
		r.head = (r.head + 1) % r.capacity
		// count stays at capacity
		return
	}
	r.payloads[r.head] = payload
	r.head = (r.head + 1) % r.capacity
	r.count++
}

func (r *edgeRing) drainAll() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		return nil
	}

	result := make([][]byte, r.count)
	// Oldest item is at (head - count) mod capacity
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.payloads[(start+i)%r.capacity]
	}

	r.count = 0
	r.head = 0
	r.overflow = false
	return result
}

func (r *edgeRing) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}
