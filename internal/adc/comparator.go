//go:build linux

package adc

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/pglab/photogate-daq/internal/gate"
	"github.com/pglab/photogate-daq/internal/packet"
)

// ComparatorReader reads LM393-style digital photogate front-ends through
// the Linux GPIO character device. Each comparator output is mapped onto
// the analog domain as a rail-to-rail count: logic high reads as
// gate.FullScale counts, logic low as 0, so the edge detector sees the
// same value range as with a true ADC.
type ComparatorReader struct {
	chip  *gpiocdev.Chip
	lines []*gpiocdev.Line
}

// NewComparatorReader requests up to NumChannels GPIO lines as inputs with
// pull-ups (a gate with an unbroken beam idles high on the stock wiring).
// Channels beyond len(pins) always read 0.
func NewComparatorReader(chipName string, pins []int) (*ComparatorReader, error) {
	if chipName == "" {
		chipName = "gpiochip0"
	}
	if len(pins) == 0 || len(pins) > packet.NumChannels {
		return nil, fmt.Errorf("need between 1 and %d pins, got %d", packet.NumChannels, len(pins))
	}

	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", chipName, err)
	}

	r := &ComparatorReader{chip: chip}
	for _, pin := range pins {
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("request pin %d: %w", pin, err)
		}
		r.lines = append(r.lines, line)
	}

	return r, nil
}

// ReadAll samples every requested line once.
func (r *ComparatorReader) ReadAll() (Scan, error) {
	var scan Scan
	for i, line := range r.lines {
		v, err := line.Value()
		if err != nil {
			return Scan{}, fmt.Errorf("read pin %d: %w", line.Offset(), err)
		}
		if v != 0 {
			scan[i] = gate.FullScale
		}
	}
	return scan, nil
}

// Close releases the requested lines and the chip.
func (r *ComparatorReader) Close() error {
	var errs []error
	for _, line := range r.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pin %d: %w", line.Offset(), err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
