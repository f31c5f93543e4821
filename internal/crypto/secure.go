// Package crypto implements the secret key protection pipeline: password
// based key derivation, authenticated symmetric encryption of the private
// key, and pinned memory for every piece of key material on the way.
package crypto

import (
	"fmt"
)

// SecureBuffer is a fixed capacity byte buffer for secrets. Where the
// platform allows it the memory is mapped outside the Go heap and locked
// so it is never written to swap. Destroy zeroes and releases it; callers
// should defer Destroy right after construction.
type SecureBuffer struct {
	data   []byte
	size   int
	mapped bool
	locked bool
}

// NewSecureBuffer allocates an empty buffer holding up to capacity bytes
func NewSecureBuffer(capacity int) (*SecureBuffer, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("invalid secure buffer capacity %d", capacity)
	}
	if capacity == 0 {
		return &SecureBuffer{}, nil
	}

	data, locked, err := allocate(capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate secure memory: %w", err)
	}
	return &SecureBuffer{data: data, mapped: true, locked: locked}, nil
}

// SecureBufferFrom copies p into a new buffer of exactly len(p) bytes
func SecureBufferFrom(p []byte) (*SecureBuffer, error) {
	b, err := NewSecureBuffer(len(p))
	if err != nil {
		return nil, err
	}
	if err := b.Append(p...); err != nil {
		b.Destroy()
		return nil, err
	}
	return b, nil
}

// Append adds bytes to the end of the buffer
func (b *SecureBuffer) Append(p ...byte) error {
	if b.size+len(p) > len(b.data) {
		return fmt.Errorf("secure buffer full: capacity %d", len(b.data))
	}
	copy(b.data[b.size:], p)
	b.size += len(p)
	return nil
}

// Pop removes and zeroes the last byte. It reports false on an empty buffer.
func (b *SecureBuffer) Pop() bool {
	if b.size == 0 {
		return false
	}
	b.size--
	b.data[b.size] = 0
	return true
}

// Bytes returns the contents. The slice aliases the secure memory and is
// invalid after Destroy.
func (b *SecureBuffer) Bytes() []byte {
	return b.data[:b.size]
}

// Len returns the number of bytes held
func (b *SecureBuffer) Len() int {
	return b.size
}

// Cap returns the capacity
func (b *SecureBuffer) Cap() int {
	return len(b.data)
}

// Locked reports whether the memory is pinned in RAM
func (b *SecureBuffer) Locked() bool {
	return b.locked
}

// Wipe zeroes the contents and empties the buffer
func (b *SecureBuffer) Wipe() {
	zero(b.data)
	b.size = 0
}

// Destroy wipes and releases the memory. It is safe to call more than once.
func (b *SecureBuffer) Destroy() error {
	if b == nil || b.data == nil {
		return nil
	}
	b.Wipe()

	var err error
	if b.mapped {
		err = release(b.data, b.locked)
	}
	b.data = nil
	b.mapped = false
	b.locked = false
	return err
}

func zero(p []byte) {
	for i := range p {
		p[i] = 0
	}
}
