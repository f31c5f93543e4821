// Package codec converts key material to and from the text blocks stored
// in key files: RFC 4648 base64 wrapped in SODIUM PEM framing.
package codec

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/deploymenttheory/go-hushfs/internal/interfaces"
	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// Block labels
const (
	LabelPrivateKey = "PRIVATE KEY"
	LabelPublicKey  = "PUBLIC KEY"
	LabelSalt       = "SALT"
)

const (
	// LineWidth is the number of base64 characters per framed line.
	LineWidth = 64

	beginPrefix = "-----BEGIN SODIUM "
	endPrefix   = "-----END SODIUM "
	markerEnd   = "-----"
	crlf        = "\r\n"
)

// PEMCodec implements TextCodec
type PEMCodec struct{}

// Ensure interface compliance
var _ interfaces.TextCodec = PEMCodec{}

// Encode returns the padded standard base64 encoding of data
func (PEMCodec) Encode(data []byte) string { return Encode(data) }

// Decode reverses Encode
func (PEMCodec) Decode(text string) ([]byte, error) { return Decode(text) }

// Pemify frames b64 under label
func (PEMCodec) Pemify(b64, label string) string { return Pemify(b64, label) }

// Unpemify returns the payload of a framed block
func (PEMCodec) Unpemify(block string) (string, error) { return Unpemify(block) }

// Encode returns the padded standard base64 encoding of data
func Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// Decode decodes padded standard base64. Line breaks are ignored.
func Decode(text string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, types.NewDecodeError("decode base64", "malformed base64", err)
	}
	return data, nil
}

// Pemify wraps b64 at LineWidth characters with CRLF line endings between
// BEGIN and END markers for label.
func Pemify(b64, label string) string {
	var b strings.Builder
	b.Grow(len(b64) + len(b64)/LineWidth*2 + 2*(len(beginPrefix)+len(label)+len(markerEnd)+2))

	b.WriteString(beginPrefix + label + markerEnd + crlf)
	for len(b64) > LineWidth {
		b.WriteString(b64[:LineWidth])
		b.WriteString(crlf)
		b64 = b64[LineWidth:]
	}
	if len(b64) > 0 {
		b.WriteString(b64)
		b.WriteString(crlf)
	}
	b.WriteString(endPrefix + label + markerEnd + crlf)
	return b.String()
}

// Unpemify strips the framing and line breaks from a block of any label
func Unpemify(block string) (string, error) {
	_, payload, err := UnpemifyLabel(block)
	return payload, err
}

// UnpemifyLabel returns the label and base64 payload of a framed block
func UnpemifyLabel(block string) (string, string, error) {
	start := strings.Index(block, beginPrefix)
	if start < 0 {
		return "", "", types.NewDecodeError("unpemify", "missing BEGIN marker", nil)
	}
	rest := block[start+len(beginPrefix):]

	labelEnd := strings.Index(rest, markerEnd)
	if labelEnd < 0 {
		return "", "", types.NewDecodeError("unpemify", "unterminated BEGIN marker", nil)
	}
	label := rest[:labelEnd]
	if label == "" || strings.ContainsAny(label, "\r\n") {
		return "", "", types.NewDecodeError("unpemify", "malformed BEGIN marker", nil)
	}
	rest = rest[labelEnd+len(markerEnd):]

	footer := endPrefix + label + markerEnd
	end := strings.Index(rest, footer)
	if end < 0 {
		return "", "", types.NewDecodeError("unpemify", fmt.Sprintf("missing END marker for %s", label), nil)
	}

	payload := strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', ' ', '\t':
			return -1
		}
		return r
	}, rest[:end])
	return label, payload, nil
}

// EncodeBlock base64 encodes data and frames it under label
func EncodeBlock(data []byte, label string) string {
	return Pemify(Encode(data), label)
}

// DecodeBlock unframes a block, checks its label and decodes the payload
func DecodeBlock(block, label string) ([]byte, error) {
	got, payload, err := UnpemifyLabel(block)
	if err != nil {
		return nil, err
	}
	if got != label {
		return nil, types.NewDecodeError("unpemify", fmt.Sprintf("expected %s block, found %s", label, got), nil)
	}
	return Decode(payload)
}
