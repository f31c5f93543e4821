// Package volume provides an explicitly owned session over one formatted
// HushFS image. A Volume holds the only in-memory mirror of each bitmap, so
// callers must not open the same image twice; Open enforces this with a
// non-blocking exclusive lock.
package volume

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-hushfs/internal/bitmap"
	"github.com/deploymenttheory/go-hushfs/internal/device"
	"github.com/deploymenttheory/go-hushfs/internal/interfaces"
	"github.com/deploymenttheory/go-hushfs/internal/parsers/inode"
	"github.com/deploymenttheory/go-hushfs/internal/parsers/superblock"
	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// Stats summarizes allocation state
type Stats struct {
	TotalInodes   uint64 `json:"total_inodes" yaml:"total_inodes"`
	UsedInodes    uint64 `json:"used_inodes" yaml:"used_inodes"`
	FreeInodes    uint64 `json:"free_inodes" yaml:"free_inodes"`
	TotalBlocks   uint64 `json:"total_blocks" yaml:"total_blocks"`
	UsedBlocks    uint64 `json:"used_blocks" yaml:"used_blocks"`
	FreeBlocks    uint64 `json:"free_blocks" yaml:"free_blocks"`
	NextFreeInode uint64 `json:"next_free_inode,omitempty" yaml:"next_free_inode,omitempty"`
}

// Volume is an open HushFS image
type Volume struct {
	dev    interfaces.BlockDevice
	closer io.Closer
	sb     *types.Superblock
	inodes *bitmap.Allocator
	blocks *bitmap.Allocator
	log    logrus.FieldLogger
}

// Open locks and loads the image at path
func Open(path string, logger logrus.FieldLogger) (*Volume, error) {
	dev, err := device.Open(path, logger)
	if err != nil {
		return nil, err
	}

	v, err := Load(dev, logger)
	if err != nil {
		dev.Close()
		return nil, err
	}
	v.closer = dev
	return v, nil
}

// Load reads and validates the superblock from dev and mirrors both bitmaps
func Load(dev interfaces.BlockDevice, logger logrus.FieldLogger) (*Volume, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	block := make([]byte, types.BlockSize)
	if err := dev.ReadBlock(block, types.SuperblockOffset); err != nil {
		return nil, fmt.Errorf("failed to read superblock: %w", err)
	}

	reader, err := superblock.NewSuperblockReader(block, types.Endian)
	if err != nil {
		return nil, err
	}
	sb := reader.Superblock()

	inodeBits, err := readRegion(dev, &sb, sb.InodeBitmapOffset, sb.InodeBitmapBlocks)
	if err != nil {
		return nil, fmt.Errorf("failed to read inode bitmap: %w", err)
	}
	blockBits, err := readRegion(dev, &sb, sb.BlockBitmapOffset, sb.BlockBitmapBlocks)
	if err != nil {
		return nil, fmt.Errorf("failed to read block bitmap: %w", err)
	}

	v := &Volume{
		dev: dev,
		sb:  &sb,
		log: logger,
	}

	// the root directory inode can never be released
	v.inodes = bitmap.NewAllocator(bitmap.AllocatorConfig{
		Name:       "inode",
		Bitmap:     inodeBits,
		Device:     dev,
		ByteOffset: sb.BlockByteOffset(sb.InodeBitmapOffset),
		Base:       types.RootInodeNumber,
		Count:      sb.TotalInodes,
		Reserved:   types.RootInodeNumber + 1,
		Logger:     logger,
	})
	v.blocks = bitmap.NewAllocator(bitmap.AllocatorConfig{
		Name:       "block",
		Bitmap:     blockBits,
		Device:     dev,
		ByteOffset: sb.BlockByteOffset(sb.BlockBitmapOffset),
		Base:       0,
		Count:      sb.TotalBlocks,
		Reserved:   sb.FirstDatablock,
		Logger:     logger,
	})

	logger.WithFields(logrus.Fields{
		"total_blocks": sb.TotalBlocks,
		"used_inodes":  v.inodes.Used(),
		"used_blocks":  v.blocks.Used(),
	}).Debug("Loaded volume")
	return v, nil
}

// readRegion reads a bitmap one block at a time so a superblock that claims
// more blocks than the image holds fails at end of file.
func readRegion(dev interfaces.BlockDevice, sb *types.Superblock, start, blocks uint64) (*bitmap.Bitmap, error) {
	block := make([]byte, sb.BlockSize)
	data := make([]byte, 0, min(blocks, regionPrealloc)*uint64(sb.BlockSize))
	for i := uint64(0); i < blocks; i++ {
		if err := dev.ReadBlock(block, start+i); err != nil {
			return nil, err
		}
		data = append(data, block...)
	}
	return bitmap.FromBytes(data), nil
}

const regionPrealloc = 64

// Superblock returns a copy of the volume geometry
func (v *Volume) Superblock() types.Superblock {
	return *v.sb
}

// Inodes returns the inode allocator
func (v *Volume) Inodes() interfaces.Allocator {
	return v.inodes
}

// Blocks returns the data block allocator
func (v *Volume) Blocks() interfaces.Allocator {
	return v.blocks
}

// NextFreeInode returns the inode number the next AllocateInode would hand out
func (v *Volume) NextFreeInode() (uint64, error) {
	return v.inodes.NextAvailable(false)
}

// AllocateInode reserves the first free inode and persists its bitmap bit
func (v *Volume) AllocateInode() (uint64, error) {
	return v.inodes.NextAvailable(true)
}

// FreeInode zeroes the record of inode n and releases its bitmap bit
func (v *Volume) FreeInode(n uint64) error {
	if n < types.RootInodeNumber+1 {
		return types.NewGeometryError("free inode", "the root inode cannot be freed")
	}
	offset, err := v.inodeOffset(n)
	if err != nil {
		return err
	}
	if err := v.dev.WriteData(make([]byte, types.InodeAlignSize), offset, int(types.InodeAlignSize), false); err != nil {
		return fmt.Errorf("failed to clear inode %d: %w", n, err)
	}
	return v.inodes.Free(n)
}

// AllocateBlock reserves the first free data block
func (v *Volume) AllocateBlock() (uint64, error) {
	return v.blocks.NextAvailable(true)
}

// FreeBlock releases data block n. Metadata blocks cannot be freed.
func (v *Volume) FreeBlock(n uint64) error {
	return v.blocks.Free(n)
}

// ReadInode reads the record of inode n
func (v *Volume) ReadInode(n uint64) (*types.Inode, error) {
	offset, err := v.inodeOffset(n)
	if err != nil {
		return nil, err
	}

	data := make([]byte, types.InodeAlignSize)
	if err := v.dev.ReadData(data, offset); err != nil {
		return nil, fmt.Errorf("failed to read inode %d: %w", n, err)
	}
	return inode.Parse(data, types.Endian)
}

// WriteInode stores ino at the slot of its number, which must be allocated
func (v *Volume) WriteInode(ino *types.Inode) error {
	allocated, err := v.inodes.IsAllocated(ino.Number)
	if err != nil {
		return err
	}
	if !allocated {
		return types.NewGeometryError("write inode", fmt.Sprintf("inode %d is not allocated", ino.Number))
	}

	offset, err := v.inodeOffset(ino.Number)
	if err != nil {
		return err
	}
	if err := v.dev.WriteData(inode.Encode(ino, types.Endian), offset, int(types.InodeAlignSize), false); err != nil {
		return fmt.Errorf("failed to write inode %d: %w", ino.Number, err)
	}
	return nil
}

// Stats reports inode and block usage
func (v *Volume) Stats() Stats {
	s := Stats{
		TotalInodes: v.sb.TotalInodes,
		UsedInodes:  v.inodes.Used(),
		FreeInodes:  v.inodes.Available(),
		TotalBlocks: v.sb.TotalBlocks,
		UsedBlocks:  v.blocks.Used(),
		FreeBlocks:  v.blocks.Available(),
	}
	if next, err := v.inodes.NextAvailable(false); err == nil {
		s.NextFreeInode = next
	}
	return s
}

// Close releases the image when the volume was opened by path
func (v *Volume) Close() error {
	if v.closer == nil {
		return nil
	}
	err := v.closer.Close()
	v.closer = nil
	return err
}

func (v *Volume) inodeOffset(n uint64) (int64, error) {
	offset, err := v.sb.InodeByteOffset(n)
	if err != nil {
		return -1, types.NewGeometryError("locate inode", err.Error())
	}
	return offset, nil
}

// IsInUse reports whether err came from opening a volume another session holds
func IsInUse(err error) bool {
	return errors.Is(err, device.ErrLocked)
}
