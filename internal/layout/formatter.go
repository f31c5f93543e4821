package layout

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-hushfs/internal/bitmap"
	"github.com/deploymenttheory/go-hushfs/internal/interfaces"
	"github.com/deploymenttheory/go-hushfs/internal/parsers/inode"
	"github.com/deploymenttheory/go-hushfs/internal/parsers/superblock"
	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// RootMode is the mode of the root directory inode: S_IFDIR | 0755.
const RootMode uint32 = 0o040755

// FormatOptions controls the optional steps of Format
type FormatOptions struct {
	// RootInode writes the root directory inode after the inode table.
	RootInode bool
	// UID and GID own the root directory.
	UID uint32
	GID uint32
	// Now stamps the root inode. time.Now when nil.
	Now func() time.Time
}

// DefaultFormatOptions returns options that write a root inode owned by the
// calling process.
func DefaultFormatOptions() FormatOptions {
	return FormatOptions{
		RootInode: true,
		UID:       uint32(os.Getuid()),
		GID:       uint32(os.Getgid()),
	}
}

// Formatter writes the metadata regions of a new volume in on-disk order.
// Every region write checks that the device position already equals the
// region offset, so a sequencing error surfaces as an IO error.
type Formatter struct {
	dev  interfaces.BlockDevice
	opts FormatOptions
	log  logrus.FieldLogger
}

// NewFormatter creates a formatter over dev
func NewFormatter(dev interfaces.BlockDevice, logger logrus.FieldLogger, opts FormatOptions) *Formatter {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Formatter{dev: dev, opts: opts, log: logger}
}

// Format writes the superblock, both bitmaps, the zeroed inode table and,
// when enabled, the root inode, then extends the image to sb.DiskSize.
// A failure leaves a partially written image behind.
func (f *Formatter) Format(sb *types.Superblock) error {
	f.log.WithFields(logrus.Fields{
		"disk_size":       humanize.IBytes(sb.DiskSize),
		"total_blocks":    sb.TotalBlocks,
		"total_inodes":    sb.TotalInodes,
		"first_datablock": sb.FirstDatablock,
	}).Info("Formatting volume")

	if err := ValidateFits(sb); err != nil {
		return err
	}
	if err := f.WriteSuperblock(sb); err != nil {
		return err
	}

	inodes, err := f.WriteBitmaps(sb)
	if err != nil {
		return err
	}

	if err := f.WriteInodeTable(sb); err != nil {
		return err
	}

	if f.opts.RootInode {
		if err := f.WriteRootInode(sb, inodes); err != nil {
			return err
		}
	}

	if err := f.dev.Truncate(int64(sb.DiskSize)); err != nil {
		return fmt.Errorf("failed to extend image to %d bytes: %w", sb.DiskSize, err)
	}
	return nil
}

// WriteSuperblock writes sb to block 0
func (f *Formatter) WriteSuperblock(sb *types.Superblock) error {
	if err := f.dev.WriteBlock(superblock.Encode(sb, types.Endian), types.SuperblockOffset, true); err != nil {
		return fmt.Errorf("failed to write superblock: %w", err)
	}
	f.log.Debug("Wrote superblock")
	return nil
}

// WriteBitmaps writes the empty inode bitmap and the block bitmap with its
// metadata blocks marked used. The inode bitmap mirror is returned so the
// root inode can be allocated from it.
func (f *Formatter) WriteBitmaps(sb *types.Superblock) (*bitmap.Bitmap, error) {
	inodes := NewInodeBitmap(sb)
	if err := f.writeRegion("inode bitmap", inodes.Bytes(), sb.BlockByteOffset(sb.InodeBitmapOffset)); err != nil {
		return nil, err
	}

	blocks, err := NewBlockBitmap(sb)
	if err != nil {
		return nil, err
	}
	if err := f.writeRegion("block bitmap", blocks.Bytes(), sb.BlockByteOffset(sb.BlockBitmapOffset)); err != nil {
		return nil, err
	}

	f.log.WithFields(logrus.Fields{
		"inode_bitmap_blocks": sb.InodeBitmapBlocks,
		"block_bitmap_blocks": sb.BlockBitmapBlocks,
		"reserved_blocks":     sb.FirstDatablock,
	}).Debug("Wrote bitmaps")
	return inodes, nil
}

// WriteInodeTable zero-fills every inode table block, one block per write
func (f *Formatter) WriteInodeTable(sb *types.Superblock) error {
	zero := inode.EncodeTableBlock(&types.InodeTableBlock{}, types.Endian)
	for i := uint64(0); i < sb.InodeTableBlocks; i++ {
		block := sb.InodeTableOffset + i
		if err := f.dev.WriteBlock(zero, block, true); err != nil {
			return fmt.Errorf("failed to write inode table block %d: %w", block, err)
		}
	}
	f.log.WithField("blocks", sb.InodeTableBlocks).Debug("Wrote inode table")
	return nil
}

// WriteRootInode allocates the first inode, which must be the root number,
// and writes an empty directory record for it.
func (f *Formatter) WriteRootInode(sb *types.Superblock, inodes *bitmap.Bitmap) error {
	alloc := bitmap.NewAllocator(bitmap.AllocatorConfig{
		Name:       "inode",
		Bitmap:     inodes,
		Device:     f.dev,
		ByteOffset: sb.BlockByteOffset(sb.InodeBitmapOffset),
		Base:       types.RootInodeNumber,
		Count:      sb.TotalInodes,
		Logger:     f.log,
	})

	number, err := alloc.NextAvailable(true)
	if err != nil {
		return fmt.Errorf("failed to allocate root inode: %w", err)
	}
	if number != types.RootInodeNumber {
		return types.NewGeometryError("write root inode", fmt.Sprintf("allocated inode %d, root must be %d", number, types.RootInodeNumber))
	}

	offset, err := sb.InodeByteOffset(number)
	if err != nil {
		return types.NewGeometryError("write root inode", err.Error())
	}

	root := types.NewDirectoryInode(number, RootMode, f.opts.UID, f.opts.GID, f.opts.Now())
	if err := f.dev.WriteData(inode.Encode(root, types.Endian), offset, int(types.InodeAlignSize), false); err != nil {
		return fmt.Errorf("failed to write root inode: %w", err)
	}
	f.log.WithField("inode", number).Debug("Wrote root inode")
	return nil
}

func (f *Formatter) writeRegion(name string, data []byte, offset int64) error {
	if err := f.dev.WriteData(data, offset, len(data), true); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
