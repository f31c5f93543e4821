// File: internal/interfaces/keys.go
package interfaces

import (
	"github.com/deploymenttheory/go-hushfs/internal/crypto"
)

// PasswordPrompter captures a password from the user
type PasswordPrompter interface {
	// Ask shows prompt and returns the typed password. With confirm set the
	// password is asked twice and a differing retype is a PasswordMismatch error.
	Ask(prompt string, confirm bool) (*crypto.SecureBuffer, error)
}

// TextCodec converts binary key material to and from a portable text block
type TextCodec interface {
	// Encode returns the RFC 4648 base64 encoding of data
	Encode(data []byte) string

	// Decode reverses Encode
	Decode(text string) ([]byte, error)

	// Pemify wraps base64 text in BEGIN/END framing for label
	Pemify(b64 string, label string) string

	// Unpemify strips the framing and line breaks from a PEM block
	Unpemify(block string) (string, error)
}
