// Package types implements the on-disk data structures of a HushFS volume.
// Every multi-byte field is stored little-endian regardless of the host.
package types

import "encoding/binary"

// Volume identification
const (
	// Magic is the ASCII identifier stored in the first four bytes of block 0.
	Magic = "HusH"

	// FormatVersion is the on-disk format revision written by this package.
	FormatVersion uint32 = 1
)

// Geometry constants
const (
	// BlockSize is the size in bytes of every block on the volume.
	BlockSize uint32 = 4 * 1024

	// InodeAlignSize is the stride of one inode record inside an inode table block.
	InodeAlignSize uint32 = 256

	// InodesPerBlock is the number of inode records that fit in one block.
	InodesPerBlock = BlockSize / InodeAlignSize

	// FilenameMaxLen is the longest directory entry name the format reserves room for.
	FilenameMaxLen = 255

	// DirectPointers is the number of direct block pointers held by an inode.
	DirectPointers = 12

	// SuperblockOffset is the block number of the superblock.
	SuperblockOffset uint64 = 0

	// RootInodeNumber is the inode number of the root directory.
	RootInodeNumber uint64 = 1
)

// Encoded sizes of the fixed part of each record. The rest of the record is
// zero padding up to BlockSize or InodeAlignSize.
const (
	SuperblockFieldsSize = 104
	InodeFieldsSize      = 200
)

// Endian is the byte order of every on-disk structure.
var Endian binary.ByteOrder = binary.LittleEndian
