package crypto

import (
	"crypto/rand"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"

	"github.com/deploymenttheory/go-hushfs/internal/types"
)

const (
	// SaltSize is the length of the password hashing salt.
	SaltSize = 16
	// KeySize is the length of the derived symmetric key.
	KeySize = 32
)

// randReader is the entropy source for salts, nonces and key pairs
var randReader io.Reader = rand.Reader

// KDFParams are the Argon2id cost parameters
type KDFParams struct {
	Iterations  uint32
	MemoryKiB   uint32
	Parallelism uint8
	// MaxMemoryKiB caps MemoryKiB; a larger request is refused as resource exhaustion.
	MaxMemoryKiB uint32
}

// InteractiveKDFParams returns the interactive cost level: two passes over
// 64 MiB on a single lane.
func InteractiveKDFParams() KDFParams {
	return KDFParams{
		Iterations:   2,
		MemoryKiB:    64 * 1024,
		Parallelism:  1,
		MaxMemoryKiB: 1024 * 1024,
	}
}

// Validate checks the parameters can be handed to Argon2id
func (p KDFParams) Validate() error {
	switch {
	case p.Iterations < 1:
		return types.NewKeyDerivationError("validate parameters", "iterations must be at least 1", nil)
	case p.Parallelism < 1:
		return types.NewKeyDerivationError("validate parameters", "parallelism must be at least 1", nil)
	case p.MemoryKiB < 8*uint32(p.Parallelism):
		return types.NewKeyDerivationError("validate parameters", fmt.Sprintf("memory must be at least %d KiB", 8*uint32(p.Parallelism)), nil)
	case p.MaxMemoryKiB != 0 && p.MemoryKiB > p.MaxMemoryKiB:
		return types.NewKeyDerivationError("validate parameters", fmt.Sprintf("memory limit exceeded: %d KiB requested, %d KiB allowed", p.MemoryKiB, p.MaxMemoryKiB), nil)
	}
	return nil
}

// SecretKey derives and owns a symmetric key. A key is derived at most once
// per SecretKey; the key lives in a SecureBuffer until Destroy.
type SecretKey struct {
	params  KDFParams
	salt    [SaltSize]byte
	key     *SecureBuffer
	hasSalt bool
	hasKey  bool
}

// NewSecretKey returns an empty SecretKey using params for derivation
func NewSecretKey(params KDFParams) *SecretKey {
	return &SecretKey{params: params}
}

// SetSalt copies salt, or generates a random one when salt is nil
func (k *SecretKey) SetSalt(salt []byte) error {
	if salt == nil {
		if _, err := io.ReadFull(randReader, k.salt[:]); err != nil {
			return types.NewKeyDerivationError("generate salt", "random source failed", err)
		}
		k.hasSalt = true
		return nil
	}

	if len(salt) != SaltSize {
		return types.NewKeyDerivationError("set salt", fmt.Sprintf("salt must be %d bytes, got %d", SaltSize, len(salt)), nil)
	}
	copy(k.salt[:], salt)
	k.hasSalt = true
	return nil
}

// GenerateKey derives the key from password and the salt, generating a salt
// first if none is set. It fails without touching the existing key when the
// SecretKey already holds one.
func (k *SecretKey) GenerateKey(password []byte) error {
	if k.hasKey {
		return types.NewKeyDerivationError("generate key", "key already generated", nil)
	}
	if err := k.params.Validate(); err != nil {
		return err
	}
	if !k.hasSalt {
		if err := k.SetSalt(nil); err != nil {
			return err
		}
	}

	derived, err := k.derive(password)
	if err != nil {
		return err
	}
	defer zero(derived)

	buf, err := SecureBufferFrom(derived)
	if err != nil {
		return types.NewKeyDerivationError("generate key", "out of secure memory", err)
	}
	k.key = buf
	k.hasKey = true
	return nil
}

func (k *SecretKey) derive(password []byte) (derived []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			derived = nil
			err = types.NewKeyDerivationError("generate key", "out of memory", fmt.Errorf("%v", r))
		}
	}()
	return argon2.IDKey(password, k.salt[:], k.params.Iterations, k.params.MemoryKiB, k.params.Parallelism, KeySize), nil
}

// SetKey installs raw key material directly, for keys not derived from a password
func (k *SecretKey) SetKey(key []byte) error {
	if k.hasKey {
		return types.NewKeyDerivationError("set key", "key already generated", nil)
	}
	if len(key) != KeySize {
		return types.NewKeyDerivationError("set key", fmt.Sprintf("key must be %d bytes, got %d", KeySize, len(key)), nil)
	}
	buf, err := SecureBufferFrom(key)
	if err != nil {
		return types.NewKeyDerivationError("set key", "out of secure memory", err)
	}
	k.key = buf
	k.hasKey = true
	return nil
}

// Salt returns a copy of the salt
func (k *SecretKey) Salt() []byte {
	if !k.hasSalt {
		return nil
	}
	return append([]byte(nil), k.salt[:]...)
}

// Key returns the key. The slice aliases secure memory and is invalid after Destroy.
func (k *SecretKey) Key() []byte {
	if !k.hasKey {
		return nil
	}
	return k.key.Bytes()
}

// HasSalt reports whether a salt is set
func (k *SecretKey) HasSalt() bool {
	return k.hasSalt
}

// HasKey reports whether a key has been derived
func (k *SecretKey) HasKey() bool {
	return k.hasKey
}

// Params returns the derivation parameters
func (k *SecretKey) Params() KDFParams {
	return k.params
}

// Destroy wipes the key and salt
func (k *SecretKey) Destroy() error {
	zero(k.salt[:])
	k.hasSalt = false
	k.hasKey = false
	if k.key == nil {
		return nil
	}
	err := k.key.Destroy()
	k.key = nil
	return err
}
