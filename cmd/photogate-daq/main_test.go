package main

import (
	"encoding/json"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/pglab/photogate-daq/internal/acquire"
	"github.com/pglab/photogate-daq/internal/adc"
	"github.com/pglab/photogate-daq/internal/clock"
	"github.com/pglab/photogate-daq/internal/config"
	"github.com/pglab/photogate-daq/internal/gate"
	"github.com/pglab/photogate-daq/internal/mqtt"
	"github.com/pglab/photogate-daq/internal/packet"
	"github.com/pglab/photogate-daq/internal/status"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env. If pi-helper changes its var names, this test fails
// and we update the constants, not the other way around.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "LabNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}

	if info.Type != "wifi" {
		t.Errorf("Type: got %q, want %q", info.Type, "wifi")
	}
	if info.IP != "192.168.1.100" {
		t.Errorf("IP: got %q, want %q", info.IP, "192.168.1.100")
	}
	if info.Status != "connected" {
		t.Errorf("Status: got %q, want %q", info.Status, "connected")
	}
	if info.Gateway != "192.168.1.1" {
		t.Errorf("Gateway: got %q, want %q", info.Gateway, "192.168.1.1")
	}
	if info.SSID != "LabNetwork" {
		t.Errorf("SSID: got %q, want %q", info.SSID, "LabNetwork")
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	t.Setenv(envNetworkStatus, "")
	if info := readNetworkInfo(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

// newLoopRig wires a pipeline from fakes for runLoop tests. The fake reader
// yields all-zero scans, which never cross a reference level, so the tests
// below see frames and system events but no edges.
func newLoopRig(t *testing.T, capacity, scans int) (*acquire.Pipeline, *mqtt.FakePublisher, *status.Tracker) {
	t.Helper()

	reader := adc.NewFakeReader(make([]adc.Scan, scans))
	publisher := mqtt.NewFakePublisher()
	publisher.Connected = true

	clk := clock.New(nil)
	tracker := status.NewTracker(clk.Epoch(), status.Config{ChunkCapacity: capacity})

	buf, err := acquire.NewChunkBuffer(capacity)
	if err != nil {
		t.Fatalf("new buffer: %v", err)
	}
	pipe, err := acquire.New(reader, clk, buf, publisher, time.Millisecond, tracker)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	return pipe, publisher, tracker
}

func TestRunLoopPublishesFramesAndShutdown(t *testing.T) {
	pipe, publisher, tracker := newLoopRig(t, 2, 8)

	tick := make(chan time.Time)
	sig := make(chan os.Signal)
	done := make(chan error, 1)

	go func() {
		done <- runLoop(pipe, publisher, publisher, tracker, 0, time.Now, tick, nil, sig)
	}()

	// Unbuffered channels keep this deterministic: each send returns only
	// after the loop has taken the previous one.
	for i := 0; i < 4; i++ {
		tick <- time.Now()
	}
	sig <- syscall.SIGTERM

	if err := <-done; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(publisher.Frames) != 2 {
		t.Errorf("expected 2 frames, got %d", len(publisher.Frames))
	}
	for i, frame := range publisher.Frames {
		if len(frame) != 2*packet.Size {
			t.Errorf("frame %d: length got %d, want %d", i, len(frame), 2*packet.Size)
		}
	}

	if len(publisher.SystemEvents) == 0 {
		t.Fatal("expected a shutdown system event")
	}
	last := publisher.SystemEvents[len(publisher.SystemEvents)-1]
	if last.Event != "SHUTDOWN" {
		t.Errorf("last system event: got %s, want SHUTDOWN", last.Event)
	}
	if last.Reason != "SIGTERM" {
		t.Errorf("shutdown reason: got %s, want SIGTERM", last.Reason)
	}
	if !last.Retained {
		t.Error("shutdown event should be retained")
	}
	if last.RawPayload == nil {
		t.Fatal("shutdown event should carry a status snapshot")
	}

	var parsed status.StatusJSON
	if err := json.Unmarshal(last.RawPayload, &parsed); err != nil {
		t.Fatalf("shutdown payload: invalid JSON: %v", err)
	}
	if parsed.Status.FramesPublished != 2 {
		t.Errorf("snapshot frames: got %d, want 2", parsed.Status.FramesPublished)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	pipe, publisher, tracker := newLoopRig(t, 100, 4)

	tick := make(chan time.Time)
	sig := make(chan os.Signal)
	done := make(chan error, 1)

	go func() {
		// A nanosecond heartbeat interval fires on the first tick.
		done <- runLoop(pipe, publisher, publisher, tracker, time.Nanosecond, time.Now, tick, nil, sig)
	}()

	tick <- time.Now()
	sig <- syscall.SIGINT

	if err := <-done; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var sawHeartbeat bool
	for _, e := range publisher.SystemEvents {
		if e.Event == "HEARTBEAT" {
			sawHeartbeat = true
			if e.RawPayload == nil {
				t.Error("heartbeat should carry a status snapshot")
			}
		}
	}
	if !sawHeartbeat {
		t.Error("expected a heartbeat system event")
	}

	last := publisher.SystemEvents[len(publisher.SystemEvents)-1]
	if last.Reason != "SIGINT" {
		t.Errorf("shutdown reason: got %s, want SIGINT", last.Reason)
	}
}

func TestRunLoopResetsTickerOnIntervalChange(t *testing.T) {
	pipe, publisher, _ := newLoopRig(t, 2, 8)

	var reticks []time.Duration
	retick := func(d time.Duration) { reticks = append(reticks, d) }

	// The pipeline is single-goroutine, so the retune has to happen on the
	// loop goroutine. now() runs there once per tick, after the interval
	// check, so a change made on the first tick is picked up on the second.
	calls := 0
	now := func() time.Time {
		calls++
		if calls == 2 {
			if err := pipe.SetSampleInterval(2 * time.Millisecond); err != nil {
				t.Errorf("set interval: %v", err)
			}
		}
		return time.Now()
	}

	tick := make(chan time.Time)
	sig := make(chan os.Signal)
	done := make(chan error, 1)

	go func() {
		done <- runLoop(pipe, publisher, publisher, nil, 0, now, tick, retick, sig)
	}()

	tick <- time.Now()
	tick <- time.Now()
	sig <- syscall.SIGTERM

	if err := <-done; err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if len(reticks) != 1 || reticks[0] != 2*time.Millisecond {
		t.Errorf("retick calls: got %v, want [2ms]", reticks)
	}
}

func TestConfigureChannels(t *testing.T) {
	pipe, _, _ := newLoopRig(t, 2, 1)

	cfg := config.Default()
	cfg.Channels[2].ReferenceLevel = 2048
	cfg.Channels[2].FallEnabled = true

	if err := configureChannels(pipe, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ch, err := pipe.Channel(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ch.ReferenceLevel() != 2048 {
		t.Errorf("reference level: got %d, want 2048", ch.ReferenceLevel())
	}
	if !ch.FallEnabled() {
		t.Error("fall should be enabled")
	}
}

func TestConfigureChannelsRejectsOutOfRange(t *testing.T) {
	pipe, _, _ := newLoopRig(t, 2, 1)

	cfg := config.Default()
	cfg.Channels[0].ReferenceLevel = gate.FullScale + 1

	if err := configureChannels(pipe, cfg); err == nil {
		t.Error("expected error for out-of-range reference level")
	}
}

func TestBuildReaderUnknownKind(t *testing.T) {
	cfg := config.Default()
	cfg.Source.Kind = "i2c"
	if _, err := buildReader(cfg); err == nil {
		t.Error("expected error for unknown source kind")
	}
}
