// File: internal/interfaces/volume.go
package interfaces

import (
	"io"

	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// BlockFile is the backing store of a volume image
type BlockFile interface {
	io.Reader
	io.Writer
	io.Seeker
}

// BlockDevice provides exact-offset, exact-length access to a volume image
type BlockDevice interface {
	// WriteData writes exactly length bytes of buf at the byte offset. When
	// verifyPosition is set the current file position must already equal offset.
	WriteData(buf []byte, offset int64, length int, verifyPosition bool) error

	// WriteBlock writes exactly one block of buf at the given block number
	WriteBlock(buf []byte, block uint64, verifyPosition bool) error

	// ReadData fills buf from the byte offset
	ReadData(buf []byte, offset int64) error

	// ReadBlock fills buf with exactly one block read from the given block number
	ReadBlock(buf []byte, block uint64) error

	// Position returns the current file position
	Position() (int64, error)

	// Truncate sets the image size in bytes
	Truncate(size int64) error
}

// SuperblockReader provides methods for reading a volume superblock
type SuperblockReader interface {
	// Magic returns the volume identifier
	Magic() string

	// Version returns the on-disk format revision
	Version() uint32

	// BlockSize returns the block size in bytes
	BlockSize() uint32

	// DiskSize returns the volume size in bytes
	DiskSize() uint64

	// TotalInodes returns the number of inode slots
	TotalInodes() uint64

	// TotalBlocks returns the number of blocks
	TotalBlocks() uint64

	// FirstDatablock returns the first block of the data region
	FirstDatablock() uint64

	// Superblock returns a copy of the decoded superblock
	Superblock() types.Superblock
}

// Allocator hands out and releases units tracked by one on-disk bitmap
type Allocator interface {
	// NextAvailable returns the first free unit, marking and persisting it when markUsed is set
	NextAvailable(markUsed bool) (uint64, error)

	// Free releases a unit and persists the cleared bit
	Free(n uint64) error

	// IsAllocated reports whether a unit is in use
	IsAllocated(n uint64) (bool, error)

	// Used returns the number of units in use
	Used() uint64

	// Available returns the number of free units
	Available() uint64
}
