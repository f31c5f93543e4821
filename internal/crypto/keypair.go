package crypto

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"

	"github.com/deploymenttheory/go-hushfs/internal/types"
)

const (
	// PublicKeySize is the length of a Curve25519 public key.
	PublicKeySize = 32
	// PrivateKeySize is the length of a Curve25519 private key.
	PrivateKeySize = 32
)

// KeyPair is a Curve25519 box key pair with the private half in secure memory
type KeyPair struct {
	public  [PublicKeySize]byte
	private *SecureBuffer
}

// GenerateKeyPair creates a new random key pair
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := box.GenerateKey(randReader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key pair: %w", err)
	}
	defer zero(priv[:])

	buf, err := SecureBufferFrom(priv[:])
	if err != nil {
		return nil, err
	}
	return &KeyPair{public: *pub, private: buf}, nil
}

// KeyPairFromPrivate rebuilds a pair from a recovered private key
func KeyPairFromPrivate(private *SecureBuffer) (*KeyPair, error) {
	pub, err := PublicFromPrivate(private.Bytes())
	if err != nil {
		return nil, err
	}
	return &KeyPair{public: pub, private: private}, nil
}

// PublicFromPrivate computes the public key belonging to a private key
func PublicFromPrivate(private []byte) ([PublicKeySize]byte, error) {
	var pub [PublicKeySize]byte
	if len(private) != PrivateKeySize {
		return pub, types.NewDecodeError("derive public key", fmt.Sprintf("private key must be %d bytes, got %d", PrivateKeySize, len(private)), nil)
	}
	out, err := curve25519.X25519(private, curve25519.Basepoint)
	if err != nil {
		return pub, types.NewDecodeError("derive public key", "invalid private key", err)
	}
	copy(pub[:], out)
	return pub, nil
}

// PublicKey returns a copy of the public key
func (kp *KeyPair) PublicKey() []byte {
	return append([]byte(nil), kp.public[:]...)
}

// PrivateKey returns the private key. The slice aliases secure memory.
func (kp *KeyPair) PrivateKey() []byte {
	return kp.private.Bytes()
}

// Matches reports whether public equals this pair's public key
func (kp *KeyPair) Matches(public []byte) bool {
	return subtle.ConstantTimeCompare(kp.public[:], public) == 1
}

// Destroy wipes the private key
func (kp *KeyPair) Destroy() error {
	return kp.private.Destroy()
}
