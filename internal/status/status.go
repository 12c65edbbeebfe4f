// Package status provides a thread-safe status tracker for the
// photogate-daq daemon. It is read by the heartbeat publisher and the
// system-event payload formatter.
package status

import (
	"sync"
	"time"

	"github.com/pglab/photogate-daq/internal/gate"
	"github.com/pglab/photogate-daq/internal/packet"
)

// ewmaAlpha is the smoothing factor for the read-latency estimate.
const ewmaAlpha = 0.1

// NetworkInfo contains network state as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	SampleIntervalUs int64
	ChunkCapacity    int
	HeartbeatMs      int64
	Broker           string
	Source           string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	SamplesAcquired uint64
	FramesPublished uint64
	FramesDropped   uint64
	ScanErrors      uint64
	Rises           [packet.NumChannels]uint64
	Falls           [packet.NumChannels]uint64
	ReadLatencyMs   float64 // EWMA over recent scans; feeds the rate model's t_r
	Paused          bool
	Epoch           time.Time
	Now             time.Time
	MQTTConnected   bool
	Network         *NetworkInfo
	Config          Config
}

// Uptime returns the duration since the acquisition epoch.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.Epoch)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given acquisition epoch and config.
func NewTracker(epoch time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Epoch:  epoch,
			Config: cfg,
		},
	}
}

// RecordScan counts one successful scan and folds its read latency into
// the running estimate. Called from the acquisition loop on every tick.
func (t *Tracker) RecordScan(latencyMs uint32) {
	t.mu.Lock()
	t.snap.SamplesAcquired++
	if t.snap.SamplesAcquired == 1 {
		t.snap.ReadLatencyMs = float64(latencyMs)
	} else {
		t.snap.ReadLatencyMs += ewmaAlpha * (float64(latencyMs) - t.snap.ReadLatencyMs)
	}
	t.mu.Unlock()
}

// RecordScanError counts a failed scan.
func (t *Tracker) RecordScanError() {
	t.mu.Lock()
	t.snap.ScanErrors++
	t.mu.Unlock()
}

// RecordEdge counts one consumed edge event.
func (t *Tracker) RecordEdge(channel int, dir gate.Direction) {
	if channel < 0 || channel >= packet.NumChannels {
		return
	}
	t.mu.Lock()
	if dir == gate.Rise {
		t.snap.Rises[channel]++
	} else {
		t.snap.Falls[channel]++
	}
	t.mu.Unlock()
}

// RecordFrame counts one completed chunk: published on success, dropped
// when the transmitter rejected it.
func (t *Tracker) RecordFrame(published bool) {
	t.mu.Lock()
	if published {
		t.snap.FramesPublished++
	} else {
		t.snap.FramesDropped++
	}
	t.mu.Unlock()
}

// SetPaused sets the consumer-absence pause state.
func (t *Tracker) SetPaused(paused bool) {
	t.mu.Lock()
	t.snap.Paused = paused
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
