package crypto

import (
	"fmt"

	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// KDFRecordSize is the length of an encoded KDF record: iterations and
// memory as little-endian uint32, one parallelism byte, then the salt.
const KDFRecordSize = 4 + 4 + 1 + SaltSize

// EncodeKDFRecord stores the parameters a key was derived with next to its salt
func EncodeKDFRecord(params KDFParams, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, types.NewKeyDerivationError("encode kdf record", fmt.Sprintf("salt must be %d bytes, got %d", SaltSize, len(salt)), nil)
	}

	data := make([]byte, KDFRecordSize)
	types.Endian.PutUint32(data[0:4], params.Iterations)
	types.Endian.PutUint32(data[4:8], params.MemoryKiB)
	data[8] = params.Parallelism
	copy(data[9:], salt)
	return data, nil
}

// ParseKDFRecord decodes a record written by EncodeKDFRecord. A bare salt
// carries no parameters, in which case fallback is returned with it. The
// memory cap of fallback always applies, so a record cannot demand more
// memory than the caller allows.
func ParseKDFRecord(data []byte, fallback KDFParams) (KDFParams, []byte, error) {
	switch len(data) {
	case SaltSize:
		return fallback, append([]byte(nil), data...), nil
	case KDFRecordSize:
	default:
		return KDFParams{}, nil, types.NewDecodeError("parse kdf record", fmt.Sprintf("record must be %d or %d bytes, got %d", SaltSize, KDFRecordSize, len(data)), nil)
	}

	params := KDFParams{
		Iterations:   types.Endian.Uint32(data[0:4]),
		MemoryKiB:    types.Endian.Uint32(data[4:8]),
		Parallelism:  data[8],
		MaxMemoryKiB: fallback.MaxMemoryKiB,
	}
	if err := params.Validate(); err != nil {
		return KDFParams{}, nil, err
	}
	return params, append([]byte(nil), data[9:]...), nil
}
