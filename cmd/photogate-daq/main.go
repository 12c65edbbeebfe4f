// Command photogate-daq samples analog photogate channels, detects beam
// edges, and publishes chunked binary frames and edge events to MQTT.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pglab/photogate-daq/internal/acquire"
	"github.com/pglab/photogate-daq/internal/adc"
	"github.com/pglab/photogate-daq/internal/clock"
	"github.com/pglab/photogate-daq/internal/config"
	"github.com/pglab/photogate-daq/internal/mqtt"
	"github.com/pglab/photogate-daq/internal/status"
)

func main() {
	configPath := flag.String("config", "photogate.yaml", "YAML configuration file")
	broker := flag.String("broker", "", "MQTT broker address (overrides config)")
	interval := flag.Duration("interval", 0, "Sampling interval (overrides config)")
	chunk := flag.Int("chunk", 0, "Chunk capacity in samples (overrides config)")
	probeRate := flag.Bool("probe-rate", false, "Measure channel read time, print the recommended sampling interval, and exit")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if *broker != "" {
		cfg.Broker = *broker
	}
	if *interval > 0 {
		cfg.SampleIntervalUs = int(interval.Microseconds())
	}
	if *chunk > 0 {
		cfg.ChunkCapacity = *chunk
	}

	if err := run(cfg, *probeRate); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, probeRate bool) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	reader, err := buildReader(cfg)
	if err != nil {
		return fmt.Errorf("init reader: %w", err)
	}
	defer reader.Close()

	if probeRate {
		return probe(reader, cfg.ChunkCapacity)
	}

	publisher, err := mqtt.NewRealPublisher(cfg.Broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	clk := clock.New(time.Now)
	tracker := status.NewTracker(clk.Epoch(), status.Config{
		SampleIntervalUs: int64(cfg.SampleIntervalUs),
		ChunkCapacity:    cfg.ChunkCapacity,
		HeartbeatMs:      cfg.Heartbeat().Milliseconds(),
		Broker:           cfg.Broker,
		Source:           cfg.Source.Kind,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	buf, err := acquire.NewChunkBuffer(cfg.ChunkCapacity)
	if err != nil {
		return fmt.Errorf("init buffer: %w", err)
	}

	pipe, err := acquire.New(reader, clk, buf, publisher, cfg.SampleInterval(), tracker)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}
	if err := configureChannels(pipe, cfg); err != nil {
		return fmt.Errorf("configure channels: %w", err)
	}

	// Publish startup event with full status snapshot
	tracker.SetMQTTConnected(publisher.IsConnected())
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	log.Printf("started: interval=%v chunk=%d broker=%s heartbeat=%v source=%s",
		cfg.SampleInterval(), cfg.ChunkCapacity, cfg.Broker, cfg.Heartbeat(), cfg.Source.Kind)

	ticker := time.NewTicker(pipe.SampleInterval())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(pipe, publisher, publisher, tracker, cfg.Heartbeat(), time.Now, ticker.C, ticker.Reset, sigCh)
}

// runLoop drives the pipeline off the tick channel until a signal arrives.
// All collaborators are injectable for tests; retick may be nil when the
// caller has no resettable ticker.
func runLoop(pipe *acquire.Pipeline, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, retick func(time.Duration), sig <-chan os.Signal) error {
	lastHeartbeat := now()
	interval := pipe.SampleInterval()

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			if tracker != nil && mqttStatus != nil {
				tracker.SetMQTTConnected(mqttStatus.IsConnected())
			}

			pipe.Tick()

			// Configuration may have retuned the cadence
			if d := pipe.SampleInterval(); d != interval {
				log.Printf("sample interval changed: %v -> %v", interval, d)
				if retick != nil {
					retick(d)
				}
				interval = d
			}

			t := now()
			if heartbeat > 0 && t.Sub(lastHeartbeat) >= heartbeat {
				lastHeartbeat = t

				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					snap := tracker.Snapshot()
					log.Printf("heartbeat: uptime=%v samples=%d frames=%d dropped=%d read_latency=%.2fms",
						snap.Uptime().Truncate(time.Second), snap.SamplesAcquired, snap.FramesPublished,
						snap.FramesDropped, snap.ReadLatencyMs)
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}
		}
	}
}

// configureChannels applies per-channel detector settings from the config.
func configureChannels(pipe *acquire.Pipeline, cfg *config.Config) error {
	for i, ch := range cfg.Channels {
		if err := pipe.SetReferenceLevel(i, ch.ReferenceLevel); err != nil {
			return fmt.Errorf("channel %d: %w", i, err)
		}
		if err := pipe.SetRiseEnabled(i, ch.RiseEnabled); err != nil {
			return fmt.Errorf("channel %d: %w", i, err)
		}
		if err := pipe.SetFallEnabled(i, ch.FallEnabled); err != nil {
			return fmt.Errorf("channel %d: %w", i, err)
		}
	}
	return nil
}

// buildReader constructs the acquisition front-end named by the config.
func buildReader(cfg *config.Config) (adc.Reader, error) {
	switch cfg.Source.Kind {
	case "serial":
		return adc.NewSerialReader(cfg.Source.Serial.Port, cfg.Source.Serial.BaudRate)
	case "gpio":
		return adc.NewComparatorReader(cfg.Source.GPIO.Chip, cfg.Source.GPIO.Pins)
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

// probe measures the per-scan read time over a burst and prints the
// recommended minimum sampling interval from the rate model.
func probe(reader adc.Reader, chunkCapacity int) error {
	const scans = 200

	// A serial front-end needs its first line before scans succeed.
	deadline := time.Now().Add(5 * time.Second)
	for {
		_, err := reader.ReadAll()
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("probe: no data from front-end: %w", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	start := time.Now()
	for i := 0; i < scans; i++ {
		if _, err := reader.ReadAll(); err != nil {
			return fmt.Errorf("probe scan %d: %w", i, err)
		}
	}
	readTime := time.Since(start) / scans

	recommended := acquire.RecommendInterval(chunkCapacity, readTime)
	fmt.Printf("measured read time: %v per scan (%d scans)\n", readTime, scans)
	fmt.Printf("recommended minimum sample interval for chunks of %d: %v\n", chunkCapacity, recommended)
	return nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
