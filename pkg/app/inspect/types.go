package inspect

import (
	"github.com/deploymenttheory/go-hushfs/internal/volume"
	"github.com/deploymenttheory/go-hushfs/pkg/app"
)

// Request represents a volume inspection request
type Request struct {
	ImagePath string
}

// Response describes the geometry and allocation state of a volume
type Response struct {
	ImagePath  string             `json:"image" yaml:"image"`
	Superblock app.SuperblockView `json:"superblock" yaml:"superblock"`
	Regions    []app.RegionView   `json:"regions" yaml:"regions"`
	Stats      volume.Stats       `json:"stats" yaml:"stats"`
}
