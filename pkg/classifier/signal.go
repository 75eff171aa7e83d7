package classifier

import "fmt"

// Signal is the packed model input: one float per pixel of the fixed input
// grid in row-major order, each value holding 0xRRGGBB.
type Signal struct {
	width  int
	height int
	data   []float32
}

// NewSignal allocates a zeroed signal for a width x height input.
func NewSignal(width, height int) *Signal {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Signal{
		width:  width,
		height: height,
		data:   make([]float32, width*height),
	}
}

// Width returns the input width the signal was sized for.
func (s *Signal) Width() int { return s.width }

// Height returns the input height the signal was sized for.
func (s *Signal) Height() int { return s.height }

// Len returns the number of entries, always Width*Height.
func (s *Signal) Len() int { return len(s.data) }

// Set stores the packed value of pixel i (row-major).
func (s *Signal) Set(i int, v float32) {
	s.data[i] = v
}

// At returns entry i.
func (s *Signal) At(i int) float32 {
	return s.data[i]
}

// Get copies length entries starting at offset into out.
// Consumers pull ranges rather than receiving the backing array.
func (s *Signal) Get(offset, length int, out []float32) error {
	if offset < 0 || length < 0 || offset > len(s.data) || length > len(s.data)-offset {
		return fmt.Errorf("%w: offset %d length %d of %d", ErrSignalRange, offset, length, len(s.data))
	}
	if len(out) < length {
		return fmt.Errorf("%w: output holds %d, need %d", ErrSignalRange, len(out), length)
	}
	copy(out[:length], s.data[offset:offset+length])
	return nil
}

// Pack encodes three 8-bit channels as 0xRRGGBB stored in a float32.
// 24 bits fit the float32 mantissa exactly.
func Pack(r, g, b uint8) float32 {
	return float32(uint32(r)<<16 | uint32(g)<<8 | uint32(b))
}

// Unpack reverses Pack.
func Unpack(v float32) (r, g, b uint8) {
	p := uint32(v)
	return uint8(p >> 16), uint8(p >> 8), uint8(p)
}
