//go:build !linux

package adc

import "errors"

// ComparatorReader is not available on non-Linux platforms.
type ComparatorReader struct{}

// NewComparatorReader returns an error on non-Linux platforms.
func NewComparatorReader(chipName string, pins []int) (*ComparatorReader, error) {
	return nil, errors.New("adc: gpio comparator not supported on this platform (requires Linux)")
}

// ReadAll is not implemented on non-Linux platforms.
func (r *ComparatorReader) ReadAll() (Scan, error) {
	return Scan{}, errors.New("adc: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *ComparatorReader) Close() error {
	return nil
}
