// Package layout computes the geometry of a HushFS volume and writes its
// metadata regions to a fresh image.
package layout

import (
	"fmt"

	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// MinBlocks is the smallest block count whose metadata fits on the volume.
const MinBlocks = 5

// ComputeGeometry derives block and inode counts and every region offset for
// a volume of diskSize bytes. It succeeds for any size of at least one block;
// use ValidateFits before writing the result to an image.
func ComputeGeometry(diskSize uint64) (*types.Superblock, error) {
	blockSize := uint64(types.BlockSize)
	if diskSize < blockSize {
		return nil, types.NewGeometryError("compute geometry", fmt.Sprintf("disk size %d is smaller than one block (%d bytes)", diskSize, blockSize))
	}

	sb := &types.Superblock{
		Version:        types.FormatVersion,
		BlockSize:      types.BlockSize,
		DiskSize:       diskSize,
		TotalBlocks:    diskSize / blockSize,
		InodesPerBlock: uint64(types.InodesPerBlock),
	}
	copy(sb.Magic[:], types.Magic)

	// one inode slot per block covers the worst case of one-block files
	sb.TotalInodes = sb.TotalBlocks

	sb.InodeBitmapBlocks = bitmapBlocks(sb.TotalInodes, blockSize)
	sb.BlockBitmapBlocks = bitmapBlocks(sb.TotalBlocks, blockSize)
	sb.InodeTableBlocks = sb.TotalInodes/sb.InodesPerBlock + 1

	sb.InodeBitmapOffset = types.SuperblockOffset + 1
	sb.BlockBitmapOffset = sb.InodeBitmapOffset + sb.InodeBitmapBlocks
	sb.InodeTableOffset = sb.BlockBitmapOffset + sb.BlockBitmapBlocks
	sb.FirstDatablock = sb.InodeTableOffset + sb.InodeTableBlocks

	return sb, nil
}

// ValidateFits checks that the metadata regions end inside the volume and
// leave at least one data block.
func ValidateFits(sb *types.Superblock) error {
	if sb.FirstDatablock >= sb.TotalBlocks || !sb.FitsDisk() {
		return types.NewGeometryError("compute geometry", fmt.Sprintf(
			"volume of %d blocks cannot hold %d metadata blocks (minimum is %d blocks)",
			sb.TotalBlocks, sb.FirstDatablock, MinBlocks))
	}
	return nil
}

// bitmapBlocks returns the whole blocks needed for one bit per unit, at least one.
func bitmapBlocks(units, blockSize uint64) uint64 {
	bitsPerBlock := blockSize * 8
	n := (units + bitsPerBlock - 1) / bitsPerBlock
	if n < 1 {
		n = 1
	}
	return n
}
