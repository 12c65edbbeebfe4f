// Package packet defines the binary wire layout for photogate samples.
//
// One packet is 16 bytes, little-endian, no padding: six uint16 channel
// readings followed by a uint32 millisecond timestamp. A frame is the plain
// concatenation of packets with no header or separators — receivers infer
// the sample count from len(frame) / Size.
package packet

import (
	"encoding/binary"
	"fmt"
)

// NumChannels is the number of photogate channels carried in every sample.
const NumChannels = 6

// Size is the encoded size of one sample in bytes.
const Size = NumChannels*2 + 4

// Sample is one synchronized reading across all channels.
type Sample struct {
	// Readings holds raw ADC counts, one per channel, in channel order.
	Readings [NumChannels]uint16

	// TimestampMS is milliseconds since the acquisition epoch t0.
	TimestampMS uint32
}

// AppendTo appends the 16-byte encoding of s to dst and returns the
// extended slice.
func (s Sample) AppendTo(dst []byte) []byte {
	for _, r := range s.Readings {
		dst = binary.LittleEndian.AppendUint16(dst, r)
	}
	return binary.LittleEndian.AppendUint32(dst, s.TimestampMS)
}

// Decode parses one packet from the first Size bytes of b.
func Decode(b []byte) Sample {
	var s Sample
	for i := range s.Readings {
		s.Readings[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	s.TimestampMS = binary.LittleEndian.Uint32(b[NumChannels*2:])
	return s
}

// DecodeFrame parses a whole frame into samples. A frame whose length is
// not a positive multiple of Size is malformed and rejected.
func DecodeFrame(frame []byte) ([]Sample, error) {
	if len(frame) == 0 || len(frame)%Size != 0 {
		return nil, fmt.Errorf("malformed frame: %d bytes is not a positive multiple of %d", len(frame), Size)
	}

	samples := make([]Sample, len(frame)/Size)
	for i := range samples {
		samples[i] = Decode(frame[i*Size:])
	}
	return samples, nil
}
