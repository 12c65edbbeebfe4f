// Package adc provides analog acquisition with hardware abstraction.
// The serial implementation talks to a serial-attached ADC front-end,
// the comparator implementation uses the Linux GPIO character device for
// LM393-style digital gates, and the fake implementation allows testing
// without hardware.
package adc

import "github.com/pglab/photogate-daq/internal/packet"

// Scan is one synchronized set of raw counts, one per channel.
type Scan [packet.NumChannels]uint16

// Reader produces synchronized channel scans.
type Reader interface {
	// ReadAll samples every channel once and returns the raw counts.
	ReadAll() (Scan, error)

	// Close releases acquisition resources.
	Close() error
}
