package superblock

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hushfs/internal/interfaces"
	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// superblockReader implements the SuperblockReader interface
type superblockReader struct {
	superblock *types.Superblock
}

// Ensure interface compliance
var _ interfaces.SuperblockReader = (*superblockReader)(nil)

// NewSuperblockReader parses and validates a superblock block
func NewSuperblockReader(data []byte, endian binary.ByteOrder) (interfaces.SuperblockReader, error) {
	sb, err := Parse(data, endian)
	if err != nil {
		return nil, err
	}

	if sb.MagicString() != types.Magic {
		return nil, types.NewDecodeError("read superblock", fmt.Sprintf("invalid magic: got %q, want %q", sb.MagicString(), types.Magic), nil)
	}
	if sb.Version != types.FormatVersion {
		return nil, types.NewDecodeError("read superblock", fmt.Sprintf("unsupported format version %d", sb.Version), nil)
	}
	if sb.BlockSize != types.BlockSize {
		return nil, types.NewDecodeError("read superblock", fmt.Sprintf("unsupported block size %d", sb.BlockSize), nil)
	}
	if err := validateGeometry(sb); err != nil {
		return nil, err
	}

	return &superblockReader{superblock: sb}, nil
}

// validateGeometry checks that the regions chain from block 1 to the first
// data block and that each region is large enough for the counts it covers.
// Every product is bounded by DiskSize before it is formed.
func validateGeometry(sb *types.Superblock) error {
	const op = "read superblock"
	blockSize := uint64(sb.BlockSize)

	if sb.TotalBlocks != sb.DiskSize/blockSize {
		return types.NewDecodeError(op, fmt.Sprintf("total blocks %d does not match disk size %d", sb.TotalBlocks, sb.DiskSize), nil)
	}
	if sb.FirstDatablock > sb.TotalBlocks ||
		sb.InodeBitmapBlocks > sb.TotalBlocks ||
		sb.BlockBitmapBlocks > sb.TotalBlocks ||
		sb.InodeTableBlocks > sb.TotalBlocks {
		return types.NewDecodeError(op, "metadata regions exceed the volume", nil)
	}
	if sb.InodesPerBlock != uint64(types.InodesPerBlock) {
		return types.NewDecodeError(op, fmt.Sprintf("unsupported inodes per block %d", sb.InodesPerBlock), nil)
	}

	if sb.InodeBitmapOffset != types.SuperblockOffset+1 ||
		sb.BlockBitmapOffset != sb.InodeBitmapOffset+sb.InodeBitmapBlocks ||
		sb.InodeTableOffset != sb.BlockBitmapOffset+sb.BlockBitmapBlocks ||
		sb.FirstDatablock != sb.InodeTableOffset+sb.InodeTableBlocks {
		return types.NewDecodeError(op, "metadata regions are not contiguous", nil)
	}

	bitsPerBlock := blockSize * 8
	if blocksFor(sb.TotalInodes, bitsPerBlock) > sb.InodeBitmapBlocks {
		return types.NewDecodeError(op, fmt.Sprintf("inode bitmap of %d blocks cannot track %d inodes", sb.InodeBitmapBlocks, sb.TotalInodes), nil)
	}
	if blocksFor(sb.TotalBlocks, bitsPerBlock) > sb.BlockBitmapBlocks {
		return types.NewDecodeError(op, fmt.Sprintf("block bitmap of %d blocks cannot track %d blocks", sb.BlockBitmapBlocks, sb.TotalBlocks), nil)
	}
	if blocksFor(sb.TotalInodes, sb.InodesPerBlock) > sb.InodeTableBlocks {
		return types.NewDecodeError(op, fmt.Sprintf("inode table of %d blocks cannot hold %d inodes", sb.InodeTableBlocks, sb.TotalInodes), nil)
	}
	return nil
}

// blocksFor returns ceil(n / per) without overflowing
func blocksFor(n, per uint64) uint64 {
	q := n / per
	if n%per != 0 {
		q++
	}
	return q
}

// Parse decodes the fixed superblock fields without validating them
func Parse(data []byte, endian binary.ByteOrder) (*types.Superblock, error) {
	if len(data) < types.SuperblockFieldsSize {
		return nil, types.NewDecodeError("parse superblock", fmt.Sprintf("data too small for superblock: %d bytes", len(data)), nil)
	}

	sb := &types.Superblock{}
	copy(sb.Magic[:], data[0:4])
	sb.Version = endian.Uint32(data[4:8])
	sb.BlockSize = endian.Uint32(data[8:12])
	// data[12:16] is alignment padding
	sb.DiskSize = endian.Uint64(data[16:24])
	sb.TotalInodes = endian.Uint64(data[24:32])
	sb.TotalBlocks = endian.Uint64(data[32:40])
	sb.InodeBitmapBlocks = endian.Uint64(data[40:48])
	sb.BlockBitmapBlocks = endian.Uint64(data[48:56])
	sb.InodeTableBlocks = endian.Uint64(data[56:64])
	sb.InodesPerBlock = endian.Uint64(data[64:72])
	sb.InodeBitmapOffset = endian.Uint64(data[72:80])
	sb.BlockBitmapOffset = endian.Uint64(data[80:88])
	sb.InodeTableOffset = endian.Uint64(data[88:96])
	sb.FirstDatablock = endian.Uint64(data[96:104])

	return sb, nil
}

// Encode serializes sb into one zero-padded block
func Encode(sb *types.Superblock, endian binary.ByteOrder) []byte {
	data := make([]byte, types.BlockSize)

	copy(data[0:4], sb.Magic[:])
	endian.PutUint32(data[4:8], sb.Version)
	endian.PutUint32(data[8:12], sb.BlockSize)
	endian.PutUint64(data[16:24], sb.DiskSize)
	endian.PutUint64(data[24:32], sb.TotalInodes)
	endian.PutUint64(data[32:40], sb.TotalBlocks)
	endian.PutUint64(data[40:48], sb.InodeBitmapBlocks)
	endian.PutUint64(data[48:56], sb.BlockBitmapBlocks)
	endian.PutUint64(data[56:64], sb.InodeTableBlocks)
	endian.PutUint64(data[64:72], sb.InodesPerBlock)
	endian.PutUint64(data[72:80], sb.InodeBitmapOffset)
	endian.PutUint64(data[80:88], sb.BlockBitmapOffset)
	endian.PutUint64(data[88:96], sb.InodeTableOffset)
	endian.PutUint64(data[96:104], sb.FirstDatablock)

	return data
}

// Magic returns the volume identifier
func (r *superblockReader) Magic() string {
	return r.superblock.MagicString()
}

// Version returns the on-disk format revision
func (r *superblockReader) Version() uint32 {
	return r.superblock.Version
}

// BlockSize returns the block size in bytes
func (r *superblockReader) BlockSize() uint32 {
	return r.superblock.BlockSize
}

// DiskSize returns the volume size in bytes
func (r *superblockReader) DiskSize() uint64 {
	return r.superblock.DiskSize
}

// TotalInodes returns the number of inode slots
func (r *superblockReader) TotalInodes() uint64 {
	return r.superblock.TotalInodes
}

// TotalBlocks returns the number of blocks
func (r *superblockReader) TotalBlocks() uint64 {
	return r.superblock.TotalBlocks
}

// FirstDatablock returns the first block of the data region
func (r *superblockReader) FirstDatablock() uint64 {
	return r.superblock.FirstDatablock
}

// Superblock returns a copy of the decoded superblock
func (r *superblockReader) Superblock() types.Superblock {
	return *r.superblock
}
