package services

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/disk"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-hushfs/internal/device"
	"github.com/deploymenttheory/go-hushfs/internal/layout"
	"github.com/deploymenttheory/go-hushfs/internal/types"
	"github.com/deploymenttheory/go-hushfs/internal/volume"
)

// CreateRequest describes a new volume
type CreateRequest struct {
	// Image is the path of the image file, which must not exist.
	Image string
	// Size is the volume size in bytes.
	Size uint64
	// KeyPath is the private key path; its public key "<KeyPath>.pub" must exist.
	KeyPath string
	// Format holds the optional format steps.
	Format layout.FormatOptions
}

// CreateResult describes a formatted volume
type CreateResult struct {
	RunID       string           `json:"run_id" yaml:"run_id"`
	Image       string           `json:"image" yaml:"image"`
	Fingerprint string           `json:"key_fingerprint" yaml:"key_fingerprint"`
	Superblock  types.Superblock `json:"superblock" yaml:"superblock"`
	Regions     []types.Region   `json:"regions" yaml:"regions"`
	Duration    time.Duration    `json:"duration" yaml:"duration"`
}

// InspectResult describes an existing volume
type InspectResult struct {
	Image      string           `json:"image" yaml:"image"`
	Superblock types.Superblock `json:"superblock" yaml:"superblock"`
	Regions    []types.Region   `json:"regions" yaml:"regions"`
	Stats      volume.Stats     `json:"stats" yaml:"stats"`
}

// VolumeService creates and inspects volume images
type VolumeService struct {
	log       logrus.FieldLogger
	freeSpace func(dir string) (uint64, error)
}

// NewVolumeService creates a VolumeService
func NewVolumeService(logger logrus.FieldLogger) *VolumeService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &VolumeService{log: logger, freeSpace: diskFree}
}

func diskFree(dir string) (uint64, error) {
	usage, err := disk.Usage(dir)
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// Create computes the geometry, checks the key, then creates and formats the
// image under an exclusive lock. Geometry and key problems are reported
// before the image file is created. A failure during formatting leaves the
// partially written image in place.
func (s *VolumeService) Create(req CreateRequest) (*CreateResult, error) {
	start := time.Now()

	sb, err := layout.ComputeGeometry(req.Size)
	if err != nil {
		return nil, err
	}
	if err := layout.ValidateFits(sb); err != nil {
		return nil, err
	}

	if req.KeyPath == "" {
		return nil, fmt.Errorf("a key is required to create a volume")
	}
	public, err := LoadPublicKey(KeyFilesFor(req.KeyPath).Public)
	if err != nil {
		return nil, fmt.Errorf("failed to load volume key: %w", err)
	}

	runID := uuid.New().String()
	log := s.log.WithFields(logrus.Fields{
		"run_id": runID,
		"image":  req.Image,
	})

	s.checkFreeSpace(log, req.Image, req.Size)

	dev, err := device.Create(req.Image, log)
	if err != nil {
		return nil, err
	}

	if err := layout.NewFormatter(dev, log, req.Format).Format(sb); err != nil {
		dev.Close()
		return nil, err
	}
	if err := dev.Sync(); err != nil {
		dev.Close()
		return nil, err
	}
	if err := dev.Close(); err != nil {
		return nil, err
	}

	result := &CreateResult{
		RunID:       runID,
		Image:       req.Image,
		Fingerprint: Fingerprint(public),
		Superblock:  *sb,
		Regions:     sb.Regions(),
		Duration:    time.Since(start),
	}
	log.WithFields(logrus.Fields{
		"size":            humanize.IBytes(sb.DiskSize),
		"first_datablock": sb.FirstDatablock,
		"duration":        result.Duration,
	}).Info("Created volume")
	return result, nil
}

// checkFreeSpace warns when the target filesystem cannot hold a fully
// written image. Images are sparse, so this never fails the create.
func (s *VolumeService) checkFreeSpace(log logrus.FieldLogger, image string, size uint64) {
	dir := filepath.Dir(image)
	free, err := s.freeSpace(dir)
	if err != nil {
		log.WithError(err).Debug("Could not determine free space")
		return
	}
	if free < size {
		log.WithFields(logrus.Fields{
			"free":      humanize.IBytes(free),
			"requested": humanize.IBytes(size),
		}).Warn("Volume is larger than the free space on its filesystem")
	}
}

// Inspect opens an image under the session lock and reports its geometry
// and allocation state.
func (s *VolumeService) Inspect(image string) (*InspectResult, error) {
	if _, err := os.Stat(image); err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}

	v, err := volume.Open(image, s.log.WithField("image", image))
	if err != nil {
		return nil, err
	}
	defer v.Close()

	sb := v.Superblock()
	return &InspectResult{
		Image:      image,
		Superblock: sb,
		Regions:    sb.Regions(),
		Stats:      v.Stats(),
	}, nil
}
