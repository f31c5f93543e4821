package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies every failure the volume and key code can report.
type ErrorKind int

const (
	// KindGeometry is an invalid or unusable volume size.
	KindGeometry ErrorKind = iota + 1
	// KindIO is a short read or write, a failed seek or a position mismatch.
	KindIO
	// KindKeyDerivation is a refused or failed password hash.
	KindKeyDerivation
	// KindDecode is malformed base64, PEM framing or binary record.
	KindDecode
	// KindPasswordMismatch is a confirmation retype that differs.
	KindPasswordMismatch
	// KindNoSpace is an exhausted bitmap.
	KindNoSpace
	// KindAuthentication is a ciphertext whose MAC does not verify.
	KindAuthentication
)

// String returns the short name of the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindGeometry:
		return "geometry"
	case KindIO:
		return "io"
	case KindKeyDerivation:
		return "key derivation"
	case KindDecode:
		return "decode"
	case KindPasswordMismatch:
		return "password mismatch"
	case KindNoSpace:
		return "no space"
	case KindAuthentication:
		return "authentication"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is the structured error value carried by every HushFS failure.
type Error struct {
	Kind ErrorKind
	// Op names the operation that failed, such as "write superblock".
	Op string
	// Offset is the byte offset involved, or -1.
	Offset int64
	// Expected and Actual are byte counts or positions; both zero when unused.
	Expected int64
	Actual   int64
	// Detail is a short human readable description.
	Detail string
	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.Op != "" {
		b.WriteString(": ")
		b.WriteString(e.Op)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Expected != 0 || e.Actual != 0 {
		fmt.Fprintf(&b, " (expected %d, got %d)", e.Expected, e.Actual)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrGeometry         = &Error{Kind: KindGeometry, Offset: -1}
	ErrIO               = &Error{Kind: KindIO, Offset: -1}
	ErrKeyDerivation    = &Error{Kind: KindKeyDerivation, Offset: -1}
	ErrDecode           = &Error{Kind: KindDecode, Offset: -1}
	ErrPasswordMismatch = &Error{Kind: KindPasswordMismatch, Offset: -1}
	ErrNoSpace          = &Error{Kind: KindNoSpace, Offset: -1}
	ErrAuthentication   = &Error{Kind: KindAuthentication, Offset: -1}
)

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// NewGeometryError reports an invalid volume size.
func NewGeometryError(op, detail string) error {
	return &Error{Kind: KindGeometry, Op: op, Offset: -1, Detail: detail}
}

// NewShortWriteError reports a write that transferred fewer bytes than requested.
func NewShortWriteError(op string, offset int64, expected, actual int, err error) error {
	return &Error{
		Kind:     KindIO,
		Op:       op,
		Offset:   offset,
		Expected: int64(expected),
		Actual:   int64(actual),
		Detail:   "short write",
		Err:      err,
	}
}

// NewShortReadError reports a read that transferred fewer bytes than requested.
func NewShortReadError(op string, offset int64, expected, actual int, err error) error {
	return &Error{
		Kind:     KindIO,
		Op:       op,
		Offset:   offset,
		Expected: int64(expected),
		Actual:   int64(actual),
		Detail:   "short read",
		Err:      err,
	}
}

// NewPositionError reports a descriptor whose current offset differs from the intended one.
func NewPositionError(op string, expected, actual int64) error {
	return &Error{
		Kind:     KindIO,
		Op:       op,
		Offset:   expected,
		Expected: expected,
		Actual:   actual,
		Detail:   "file position mismatch",
	}
}

// NewIOError wraps an operating system failure.
func NewIOError(op string, offset int64, err error) error {
	return &Error{Kind: KindIO, Op: op, Offset: offset, Err: err}
}

// NewKeyDerivationError reports a refused or failed key derivation.
func NewKeyDerivationError(op, detail string, err error) error {
	return &Error{Kind: KindKeyDerivation, Op: op, Offset: -1, Detail: detail, Err: err}
}

// NewDecodeError reports malformed encoded input.
func NewDecodeError(op, detail string, err error) error {
	return &Error{Kind: KindDecode, Op: op, Offset: -1, Detail: detail, Err: err}
}

// NewPasswordMismatchError reports a confirmation retype that differs.
func NewPasswordMismatchError() error {
	return &Error{Kind: KindPasswordMismatch, Op: "confirm password", Offset: -1, Detail: "passwords don't match"}
}

// NewNoSpaceError reports an exhausted bitmap.
func NewNoSpaceError(op, detail string) error {
	return &Error{Kind: KindNoSpace, Op: op, Offset: -1, Detail: detail}
}

// NewAuthenticationError reports a ciphertext that failed verification.
func NewAuthenticationError(op string, err error) error {
	return &Error{Kind: KindAuthentication, Op: op, Offset: -1, Detail: "message authentication failed", Err: err}
}
