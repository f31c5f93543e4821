package crypto

import (
	"errors"
	"io"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// Symmetric seals and opens messages with XSalsa20-Poly1305 under a SecretKey
type Symmetric struct {
	key *SecretKey
}

// NewSymmetric returns a cipher keyed by key, which must already hold a key
func NewSymmetric(key *SecretKey) (*Symmetric, error) {
	if key == nil || !key.HasKey() {
		return nil, types.NewKeyDerivationError("new cipher", "secret key has no key material", nil)
	}
	return &Symmetric{key: key}, nil
}

func (s *Symmetric) keyArray(op string) (*[KeySize]byte, error) {
	if !s.key.HasKey() {
		return nil, types.NewKeyDerivationError(op, "secret key has been destroyed", nil)
	}
	return (*[KeySize]byte)(s.key.Key()), nil
}

// Encipher seals message under a fresh random nonce
func (s *Symmetric) Encipher(message []byte) (*CipherText, error) {
	key, err := s.keyArray("encipher")
	if err != nil {
		return nil, err
	}

	var nonce [NonceSize]byte
	if _, err := io.ReadFull(randReader, nonce[:]); err != nil {
		return nil, types.NewIOError("generate nonce", -1, err)
	}

	sealed := secretbox.Seal(make([]byte, 0, len(message)+Overhead), message, &nonce, key)
	return &CipherText{nonce: nonce, data: sealed}, nil
}

// Decipher verifies and opens ct. The plaintext is returned in secure memory
// and nothing is returned when the tag does not verify.
func (s *Symmetric) Decipher(ct *CipherText) (*SecureBuffer, error) {
	key, err := s.keyArray("decipher")
	if err != nil {
		return nil, err
	}
	if len(ct.data) < Overhead {
		return nil, types.NewDecodeError("decipher", "ciphertext shorter than tag", nil)
	}

	out, err := NewSecureBuffer(len(ct.data) - Overhead)
	if err != nil {
		return nil, err
	}

	nonce := ct.nonce
	// Open appends into out's backing array, which has exactly the room needed
	plain, ok := secretbox.Open(out.data[:0], ct.data, &nonce, key)
	if !ok {
		out.Destroy()
		return nil, types.NewAuthenticationError("decipher", errors.New("ciphertext or key is wrong"))
	}
	out.size = len(plain)
	return out, nil
}
