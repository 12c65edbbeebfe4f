package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event           string       `json:"event,omitempty"`
	Reason          string       `json:"reason,omitempty"`
	Paused          bool         `json:"paused"`
	SamplesAcquired uint64       `json:"samples_acquired"`
	FramesPublished uint64       `json:"frames_published"`
	FramesDropped   uint64       `json:"frames_dropped"`
	ScanErrors      uint64       `json:"scan_errors"`
	Rises           []uint64     `json:"rises"`
	Falls           []uint64     `json:"falls"`
	ReadLatencyMs   float64      `json:"read_latency_ms"`
	UptimeSeconds   int64        `json:"uptime_seconds"`
	Epoch           string       `json:"epoch"`
	Timestamp       string       `json:"timestamp"`
	MQTT            MQTTStatus   `json:"mqtt"`
	Network         *NetworkJSON `json:"network,omitempty"`
	Config          ConfigJSON   `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SampleIntervalUs int64  `json:"sample_interval_us"`
	ChunkCapacity    int    `json:"chunk_capacity"`
	HeartbeatMs      int64  `json:"heartbeat_ms"`
	Broker           string `json:"broker"`
	Source           string `json:"source"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Paused:          snap.Paused,
		SamplesAcquired: snap.SamplesAcquired,
		FramesPublished: snap.FramesPublished,
		FramesDropped:   snap.FramesDropped,
		ScanErrors:      snap.ScanErrors,
		Rises:           snap.Rises[:],
		Falls:           snap.Falls[:],
		ReadLatencyMs:   snap.ReadLatencyMs,
		UptimeSeconds:   int64(snap.Uptime().Truncate(time.Second).Seconds()),
		Epoch:           snap.Epoch.UTC().Format(time.RFC3339),
		Timestamp:       snap.Now.UTC().Format(time.RFC3339),
		MQTT:            MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			SampleIntervalUs: snap.Config.SampleIntervalUs,
			ChunkCapacity:    snap.Config.ChunkCapacity,
			HeartbeatMs:      snap.Config.HeartbeatMs,
			Broker:           snap.Config.Broker,
			Source:           snap.Config.Source,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
