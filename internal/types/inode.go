package types

import (
	"fmt"
	"time"
)

// InodeType tags what an inode describes and selects which variant of the
// size field is valid.
type InodeType uint32

const (
	// InodeTypeUnused marks a free slot; an all-zero record is unused.
	InodeTypeUnused InodeType = 0
	// InodeTypeFile is a regular file; the size field holds the file size in bytes.
	InodeTypeFile InodeType = 1
	// InodeTypeDirectory is a directory; the size field holds the child count.
	InodeTypeDirectory InodeType = 2
)

// String returns the name of the inode type.
func (t InodeType) String() string {
	switch t {
	case InodeTypeUnused:
		return "unused"
	case InodeTypeFile:
		return "file"
	case InodeTypeDirectory:
		return "directory"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(t))
	}
}

// Valid reports whether t is a known inode type.
func (t InodeType) Valid() bool {
	return t <= InodeTypeDirectory
}

// Timespec is a seconds and nanoseconds timestamp pair.
type Timespec struct {
	Sec  int64
	Nsec int64
}

// NewTimespec converts a time.Time.
func NewTimespec(t time.Time) Timespec {
	return Timespec{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
}

// Time converts the timestamp back to a time.Time.
func (ts Timespec) Time() time.Time {
	return time.Unix(ts.Sec, ts.Nsec)
}

// Inode is a fixed-size metadata record describing one file or directory.
// On disk it is padded to InodeAlignSize bytes.
type Inode struct {
	Mode   uint32
	UID    uint32
	GID    uint32
	Type   InodeType
	Number uint64

	Atime Timespec
	Mtime Timespec
	Ctime Timespec

	Direct         [DirectPointers]uint64
	SingleIndirect uint64
	DoubleIndirect uint64
	TripleIndirect uint64

	// file size for files, child count for directories
	extent uint64
}

// NewDirectoryInode returns a directory inode stamped with now.
func NewDirectoryInode(number uint64, mode, uid, gid uint32, now time.Time) *Inode {
	ts := NewTimespec(now)
	return &Inode{
		Mode:   mode,
		UID:    uid,
		GID:    gid,
		Type:   InodeTypeDirectory,
		Number: number,
		Atime:  ts,
		Mtime:  ts,
		Ctime:  ts,
	}
}

// NewFileInode returns an empty regular file inode stamped with now.
func NewFileInode(number uint64, mode, uid, gid uint32, now time.Time) *Inode {
	ino := NewDirectoryInode(number, mode, uid, gid, now)
	ino.Type = InodeTypeFile
	return ino
}

// IsUnused reports whether the record denotes a free slot.
func (i *Inode) IsUnused() bool {
	return i.Type == InodeTypeUnused && i.Number == 0
}

// FileSize returns the size of a regular file.
func (i *Inode) FileSize() (uint64, error) {
	if i.Type != InodeTypeFile {
		return 0, fmt.Errorf("inode %d: file size requested on %s inode", i.Number, i.Type)
	}
	return i.extent, nil
}

// SetFileSize sets the size of a regular file.
func (i *Inode) SetFileSize(size uint64) error {
	if i.Type != InodeTypeFile {
		return fmt.Errorf("inode %d: file size set on %s inode", i.Number, i.Type)
	}
	i.extent = size
	return nil
}

// DirChildren returns the number of entries in a directory.
func (i *Inode) DirChildren() (uint64, error) {
	if i.Type != InodeTypeDirectory {
		return 0, fmt.Errorf("inode %d: child count requested on %s inode", i.Number, i.Type)
	}
	return i.extent, nil
}

// SetDirChildren sets the number of entries in a directory.
func (i *Inode) SetDirChildren(n uint64) error {
	if i.Type != InodeTypeDirectory {
		return fmt.Errorf("inode %d: child count set on %s inode", i.Number, i.Type)
	}
	i.extent = n
	return nil
}

// RawExtent returns the size field without checking the type tag.
// It exists for the binary codec.
func (i *Inode) RawExtent() uint64 {
	return i.extent
}

// SetRawExtent stores the size field without checking the type tag.
// It exists for the binary codec.
func (i *Inode) SetRawExtent(v uint64) {
	i.extent = v
}

// InodeTableBlock is one block's worth of contiguous inode records.
type InodeTableBlock struct {
	Inodes [InodesPerBlock]Inode
}
