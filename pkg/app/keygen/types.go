package keygen

import (
	"time"

	"github.com/deploymenttheory/go-hushfs/internal/services"
)

// Request represents a key pair generation or verification request
type Request struct {
	// KeyPath is the private key path. The configured key_path when empty.
	KeyPath string
	// Force ignores a weak password instead of warning about it.
	Force bool
}

// Response represents a generated key pair
type Response struct {
	Files         services.KeyFiles `json:"files" yaml:"files"`
	Fingerprint   string            `json:"fingerprint" yaml:"fingerprint"`
	PasswordScore int               `json:"password_score" yaml:"password_score"`
	WeakPassword  bool              `json:"weak_password" yaml:"weak_password"`
	Duration      time.Duration     `json:"duration" yaml:"duration"`
}

// VerifyResponse represents the outcome of a key check
type VerifyResponse struct {
	Files       services.KeyFiles `json:"files" yaml:"files"`
	Fingerprint string            `json:"fingerprint" yaml:"fingerprint"`
	Matches     bool              `json:"matches" yaml:"matches"`
}
