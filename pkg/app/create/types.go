package create

import (
	"time"

	"github.com/deploymenttheory/go-hushfs/pkg/app"
)

// Request represents a volume creation request
type Request struct {
	ImagePath string
	// Size accepts a byte count with an optional k, m or g suffix.
	Size string
	// KeyPath is the private key whose public half the volume is created for.
	KeyPath string
	// NoRootInode skips writing the root directory inode.
	NoRootInode bool

	sizeBytes uint64
}

// Response represents a created volume
type Response struct {
	RunID       string             `json:"run_id" yaml:"run_id"`
	ImagePath   string             `json:"image" yaml:"image"`
	Fingerprint string             `json:"key_fingerprint" yaml:"key_fingerprint"`
	Superblock  app.SuperblockView `json:"superblock" yaml:"superblock"`
	Regions     []app.RegionView   `json:"regions" yaml:"regions"`
	RootInode   bool               `json:"root_inode" yaml:"root_inode"`
	Duration    time.Duration      `json:"duration" yaml:"duration"`
}
