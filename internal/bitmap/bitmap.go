// Package bitmap implements the one-bit-per-unit occupancy maps of a volume.
//
// Bits are ordered most significant first within each byte: bit index 0 is
// 0x80 of byte 0, bit index 7 is 0x01 of byte 0, bit index 8 is 0x80 of
// byte 1. A set bit means allocated.
package bitmap

import "fmt"

// Bitmap is an in-memory occupancy map
type Bitmap struct {
	bits []byte
}

// New returns a zeroed bitmap spanning the given number of blocks
func New(blocks uint64, blockSize uint32) *Bitmap {
	return &Bitmap{bits: make([]byte, blocks*uint64(blockSize))}
}

// FromBytes wraps raw bitmap bytes read from disk. The slice is not copied.
func FromBytes(data []byte) *Bitmap {
	return &Bitmap{bits: data}
}

// Bytes returns the backing bytes
func (b *Bitmap) Bytes() []byte {
	return b.bits
}

// Len returns the number of bits in the map
func (b *Bitmap) Len() uint64 {
	return uint64(len(b.bits)) * 8
}

func mask(i uint64) byte {
	return 0x80 >> (i % 8)
}

func (b *Bitmap) check(i uint64) error {
	if i >= b.Len() {
		return fmt.Errorf("bit %d out of range [0, %d)", i, b.Len())
	}
	return nil
}

// IsSet reports whether bit i is allocated
func (b *Bitmap) IsSet(i uint64) (bool, error) {
	if err := b.check(i); err != nil {
		return false, err
	}
	return b.bits[i/8]&mask(i) != 0, nil
}

// Set marks bit i allocated
func (b *Bitmap) Set(i uint64) error {
	if err := b.check(i); err != nil {
		return err
	}
	b.bits[i/8] |= mask(i)
	return nil
}

// Clear marks bit i free
func (b *Bitmap) Clear(i uint64) error {
	if err := b.check(i); err != nil {
		return err
	}
	b.bits[i/8] &^= mask(i)
	return nil
}

// SetRange marks bits [start, end) allocated
func (b *Bitmap) SetRange(start, end uint64) error {
	if start > end {
		return fmt.Errorf("invalid range [%d, %d)", start, end)
	}
	if end > b.Len() {
		return fmt.Errorf("range [%d, %d) exceeds bitmap of %d bits", start, end, b.Len())
	}
	for i := start; i < end; i++ {
		b.bits[i/8] |= mask(i)
	}
	return nil
}

// FirstClear returns a free bit below limit.
//
// The scan walks whole bytes first: a byte whose lowest bit is set is taken
// as fully allocated and skipped. The first byte with its lowest bit clear is
// then searched bit by bit from the most significant bit. Bits freed inside a
// skipped byte are only found by the bit-level pass that runs when the byte
// scan comes up empty.
func (b *Bitmap) FirstClear(limit uint64) (uint64, bool) {
	if limit > b.Len() {
		limit = b.Len()
	}

	var scanned uint64
	for _, v := range b.bits {
		if scanned >= limit {
			break
		}
		if v&1 != 0 {
			scanned += 8
			continue
		}
		for bit := uint64(0); bit < 8; bit++ {
			if v&(0x80>>bit) == 0 {
				if scanned+bit < limit {
					return scanned + bit, true
				}
				break
			}
		}
		break
	}

	for i := uint64(0); i < limit; i++ {
		if b.bits[i/8]&mask(i) == 0 {
			return i, true
		}
	}
	return 0, false
}

// CountSet returns the number of allocated bits below limit
func (b *Bitmap) CountSet(limit uint64) uint64 {
	if limit > b.Len() {
		limit = b.Len()
	}
	var n uint64
	for i := uint64(0); i < limit; i++ {
		if b.bits[i/8]&mask(i) != 0 {
			n++
		}
	}
	return n
}
