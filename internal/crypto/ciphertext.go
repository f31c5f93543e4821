package crypto

import (
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/deploymenttheory/go-hushfs/internal/types"
)

const (
	// NonceSize is the length of the random nonce prefixed to every ciphertext.
	NonceSize = 24
	// Overhead is the length of the authentication tag added to the plaintext.
	Overhead = secretbox.Overhead
)

// CipherText is a nonce together with the authenticated ciphertext it sealed
type CipherText struct {
	nonce [NonceSize]byte
	data  []byte
}

// NewCipherText bundles a nonce and ciphertext. Both are copied.
func NewCipherText(nonce [NonceSize]byte, data []byte) *CipherText {
	return &CipherText{nonce: nonce, data: append([]byte(nil), data...)}
}

// ParseCipherText splits nonce || ciphertext as stored in a private key file
func ParseCipherText(b []byte) (*CipherText, error) {
	if len(b) < NonceSize+Overhead {
		return nil, types.NewDecodeError("parse ciphertext", fmt.Sprintf("%d bytes is shorter than nonce and tag (%d)", len(b), NonceSize+Overhead), nil)
	}
	var nonce [NonceSize]byte
	copy(nonce[:], b[:NonceSize])
	return NewCipherText(nonce, b[NonceSize:]), nil
}

// Nonce returns the nonce
func (c *CipherText) Nonce() [NonceSize]byte {
	return c.nonce
}

// Data returns the ciphertext including its tag
func (c *CipherText) Data() []byte {
	return append([]byte(nil), c.data...)
}

// Len returns the ciphertext length, plaintext length plus Overhead
func (c *CipherText) Len() int {
	return len(c.data)
}

// Bytes returns nonce || ciphertext
func (c *CipherText) Bytes() []byte {
	out := make([]byte, 0, NonceSize+len(c.data))
	out = append(out, c.nonce[:]...)
	return append(out, c.data...)
}
