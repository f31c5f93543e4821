package types

import "fmt"

// Superblock describes the geometry of a volume. It occupies block 0 and is
// padded with zeroes to exactly BlockSize bytes on disk.
//
// All region offsets and sizes are expressed in blocks.
type Superblock struct {
	// The volume identifier, always Magic.
	Magic [4]byte
	// The on-disk format revision.
	Version uint32
	// The size of a block in bytes.
	BlockSize uint32
	// The requested size of the volume in bytes.
	DiskSize uint64
	// The number of inode slots on the volume.
	TotalInodes uint64
	// The number of blocks on the volume.
	TotalBlocks uint64
	// The sizes of the metadata regions.
	InodeBitmapBlocks uint64
	BlockBitmapBlocks uint64
	InodeTableBlocks  uint64
	// The number of inode records per inode table block.
	InodesPerBlock uint64
	// The first block of each region.
	InodeBitmapOffset uint64
	BlockBitmapOffset uint64
	InodeTableOffset  uint64
	FirstDatablock    uint64
}

// Region is a contiguous run of blocks holding one kind of structure.
type Region struct {
	Name   string
	Start  uint64
	Blocks uint64
}

// End returns the first block past the region.
func (r Region) End() uint64 {
	return r.Start + r.Blocks
}

// Overlaps reports whether the two regions share at least one block.
func (r Region) Overlaps(o Region) bool {
	return r.Start < o.End() && o.Start < r.End()
}

// MagicString returns the magic identifier as a string.
func (sb *Superblock) MagicString() string {
	return string(sb.Magic[:])
}

// Regions returns the metadata regions in on-disk order followed by the data region.
func (sb *Superblock) Regions() []Region {
	regions := []Region{
		{Name: "superblock", Start: SuperblockOffset, Blocks: 1},
		{Name: "inode bitmap", Start: sb.InodeBitmapOffset, Blocks: sb.InodeBitmapBlocks},
		{Name: "block bitmap", Start: sb.BlockBitmapOffset, Blocks: sb.BlockBitmapBlocks},
		{Name: "inode table", Start: sb.InodeTableOffset, Blocks: sb.InodeTableBlocks},
	}
	var data uint64
	if sb.TotalBlocks > sb.FirstDatablock {
		data = sb.TotalBlocks - sb.FirstDatablock
	}
	return append(regions, Region{Name: "data", Start: sb.FirstDatablock, Blocks: data})
}

// MetadataBlocks returns the number of blocks below the first data block.
func (sb *Superblock) MetadataBlocks() uint64 {
	return sb.FirstDatablock
}

// FitsDisk reports whether the metadata regions fit inside the volume.
func (sb *Superblock) FitsDisk() bool {
	return sb.FirstDatablock*uint64(sb.BlockSize) <= sb.DiskSize
}

// BlockByteOffset converts a block number into a byte offset.
func (sb *Superblock) BlockByteOffset(block uint64) int64 {
	return int64(block * uint64(sb.BlockSize))
}

// InodeByteOffset returns the byte offset of the record for inode number n.
// Inode numbers are 1-based.
func (sb *Superblock) InodeByteOffset(n uint64) (int64, error) {
	if n == 0 || n > sb.TotalInodes {
		return -1, fmt.Errorf("inode number %d out of range [1, %d]", n, sb.TotalInodes)
	}
	if sb.InodesPerBlock == 0 {
		return -1, fmt.Errorf("superblock has zero inodes per block")
	}
	index := n - 1
	block := sb.InodeTableOffset + index/sb.InodesPerBlock
	slot := index % sb.InodesPerBlock
	return sb.BlockByteOffset(block) + int64(slot*uint64(InodeAlignSize)), nil
}
