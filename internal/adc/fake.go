package adc

import "errors"

// FakeReader is a test double that returns scripted scans.
type FakeReader struct {
	// Scans contains scripted readings. Each call to ReadAll consumes the
	// next scan; once exhausted, the last scan repeats.
	Scans []Scan

	// index tracks current position in Scans
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by ReadAll
	ReadError error
}

// NewFakeReader creates a FakeReader with the given scans.
func NewFakeReader(scans []Scan) *FakeReader {
	return &FakeReader{Scans: scans}
}

// ReadAll returns the next scripted scan.
func (f *FakeReader) ReadAll() (Scan, error) {
	if f.ReadError != nil {
		return Scan{}, f.ReadError
	}

	if len(f.Scans) == 0 {
		return Scan{}, errors.New("no scans configured")
	}

	scan := f.Scans[f.index]
	if f.index < len(f.Scans)-1 {
		f.index++
	}

	return scan, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of its scans.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}
