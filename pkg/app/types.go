package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/deploymenttheory/go-hushfs/internal/device"
	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// CommonError represents application-level errors
type CommonError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CommonError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *CommonError) Unwrap() error {
	return e.Cause
}

// Common error codes
const (
	ErrCodeInvalidInput   = "INVALID_INPUT"
	ErrCodeGeometry       = "GEOMETRY"
	ErrCodeIO             = "IO"
	ErrCodeKeyDerivation  = "KEY_DERIVATION"
	ErrCodeDecode         = "DECODE"
	ErrCodePassword       = "PASSWORD_MISMATCH"
	ErrCodeAuthentication = "AUTHENTICATION"
	ErrCodeNoSpace        = "NO_SPACE"
	ErrCodeVolumeInUse    = "VOLUME_IN_USE"
	ErrCodeExists         = "ALREADY_EXISTS"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodePermission     = "PERMISSION_DENIED"
	ErrCodeInternal       = "INTERNAL"
)

// NewError creates a new CommonError
func NewError(code, message string, cause error) *CommonError {
	return &CommonError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

var kindCodes = map[types.ErrorKind]string{
	types.KindGeometry:         ErrCodeGeometry,
	types.KindIO:               ErrCodeIO,
	types.KindKeyDerivation:    ErrCodeKeyDerivation,
	types.KindDecode:           ErrCodeDecode,
	types.KindPasswordMismatch: ErrCodePassword,
	types.KindNoSpace:          ErrCodeNoSpace,
	types.KindAuthentication:   ErrCodeAuthentication,
}

// FromError wraps err in a CommonError carrying the code that best
// describes it. A CommonError anywhere in the chain is returned as is.
func FromError(message string, err error) *CommonError {
	if err == nil {
		return nil
	}

	var common *CommonError
	if errors.As(err, &common) {
		return common
	}
	return NewError(CodeFor(err), message, err)
}

// CodeFor returns the error code for err
func CodeFor(err error) string {
	var hushErr *types.Error
	switch {
	case errors.Is(err, device.ErrLocked):
		return ErrCodeVolumeInUse
	case errors.As(err, &hushErr):
		if code, ok := kindCodes[hushErr.Kind]; ok {
			return code
		}
	case errors.Is(err, os.ErrExist):
		return ErrCodeExists
	case errors.Is(err, os.ErrNotExist):
		return ErrCodeNotFound
	case errors.Is(err, os.ErrPermission):
		return ErrCodePermission
	}
	return ErrCodeInternal
}
