package kernel

import (
	"github.com/x448/float16"

	"candleflame/internal/field"
)

// halfStaging converts field data to and from binary16 for half-precision
// device storage. One slice is reused for every transfer, so moving fields of
// the same size never allocates. Staged data is valid until the next call.
type halfStaging struct {
	bits []uint16
}

func (s *halfStaging) resize(n int) []uint16 {
	if cap(s.bits) < n {
		s.bits = make([]uint16, n)
	}
	s.bits = s.bits[:n]
	return s.bits
}

// pack narrows b's host data, rounding to nearest even.
func (s *halfStaging) pack(b *field.Buffer) []uint16 {
	bits := s.resize(len(b.Data))
	for i, v := range b.Data {
		bits[i] = float16.Fromfloat32(v).Bits()
	}
	return bits
}

// slot returns staging space for a readback of b.
func (s *halfStaging) slot(b *field.Buffer) []uint16 {
	return s.resize(len(b.Data))
}

// unpack widens the staged readback into b's host data.
func (s *halfStaging) unpack(b *field.Buffer) {
	for i, h := range s.bits[:len(b.Data)] {
		b.Data[i] = float16.Frombits(h).Float32()
	}
}

// halfBytes is the device size of n binary16 values.
func halfBytes(n int) int { return 2 * n }
