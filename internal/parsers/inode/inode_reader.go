package inode

import (
	"encoding/binary"
	"fmt"

	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// Field offsets inside one inode record
const (
	offMode   = 0
	offUID    = 4
	offGID    = 8
	offType   = 12
	offNumber = 16
	offAtime  = 24
	offMtime  = 40
	offCtime  = 56
	offDirect = 72
	offSingle = offDirect + types.DirectPointers*8
	offDouble = offSingle + 8
	offTriple = offDouble + 8
	offExtent = offTriple + 8
)

// Encode serializes an inode into one zero-padded record of InodeAlignSize bytes
func Encode(ino *types.Inode, endian binary.ByteOrder) []byte {
	data := make([]byte, types.InodeAlignSize)
	encodeInto(data, ino, endian)
	return data
}

func encodeInto(data []byte, ino *types.Inode, endian binary.ByteOrder) {
	endian.PutUint32(data[offMode:], ino.Mode)
	endian.PutUint32(data[offUID:], ino.UID)
	endian.PutUint32(data[offGID:], ino.GID)
	endian.PutUint32(data[offType:], uint32(ino.Type))
	endian.PutUint64(data[offNumber:], ino.Number)

	putTimespec(data[offAtime:], ino.Atime, endian)
	putTimespec(data[offMtime:], ino.Mtime, endian)
	putTimespec(data[offCtime:], ino.Ctime, endian)

	for i, ptr := range ino.Direct {
		endian.PutUint64(data[offDirect+i*8:], ptr)
	}
	endian.PutUint64(data[offSingle:], ino.SingleIndirect)
	endian.PutUint64(data[offDouble:], ino.DoubleIndirect)
	endian.PutUint64(data[offTriple:], ino.TripleIndirect)
	endian.PutUint64(data[offExtent:], ino.RawExtent())
}

// Parse decodes one inode record
func Parse(data []byte, endian binary.ByteOrder) (*types.Inode, error) {
	if len(data) < types.InodeFieldsSize {
		return nil, types.NewDecodeError("parse inode", fmt.Sprintf("data too small for inode: %d bytes", len(data)), nil)
	}

	ino := &types.Inode{
		Mode:   endian.Uint32(data[offMode:]),
		UID:    endian.Uint32(data[offUID:]),
		GID:    endian.Uint32(data[offGID:]),
		Type:   types.InodeType(endian.Uint32(data[offType:])),
		Number: endian.Uint64(data[offNumber:]),
		Atime:  getTimespec(data[offAtime:], endian),
		Mtime:  getTimespec(data[offMtime:], endian),
		Ctime:  getTimespec(data[offCtime:], endian),
	}
	if !ino.Type.Valid() {
		return nil, types.NewDecodeError("parse inode", fmt.Sprintf("inode %d has unknown type %d", ino.Number, uint32(ino.Type)), nil)
	}

	for i := range ino.Direct {
		ino.Direct[i] = endian.Uint64(data[offDirect+i*8:])
	}
	ino.SingleIndirect = endian.Uint64(data[offSingle:])
	ino.DoubleIndirect = endian.Uint64(data[offDouble:])
	ino.TripleIndirect = endian.Uint64(data[offTriple:])
	ino.SetRawExtent(endian.Uint64(data[offExtent:]))

	return ino, nil
}

// EncodeTableBlock serializes a full inode table block
func EncodeTableBlock(block *types.InodeTableBlock, endian binary.ByteOrder) []byte {
	data := make([]byte, types.BlockSize)
	for i := range block.Inodes {
		start := i * int(types.InodeAlignSize)
		encodeInto(data[start:start+int(types.InodeAlignSize)], &block.Inodes[i], endian)
	}
	return data
}

// ParseTableBlock decodes a full inode table block
func ParseTableBlock(data []byte, endian binary.ByteOrder) (*types.InodeTableBlock, error) {
	if len(data) < int(types.BlockSize) {
		return nil, types.NewDecodeError("parse inode table block", fmt.Sprintf("data too small for inode table block: %d bytes", len(data)), nil)
	}

	block := &types.InodeTableBlock{}
	for i := range block.Inodes {
		start := i * int(types.InodeAlignSize)
		ino, err := Parse(data[start:start+int(types.InodeAlignSize)], endian)
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		block.Inodes[i] = *ino
	}
	return block, nil
}

func putTimespec(data []byte, ts types.Timespec, endian binary.ByteOrder) {
	endian.PutUint64(data[0:8], uint64(ts.Sec))
	endian.PutUint64(data[8:16], uint64(ts.Nsec))
}

func getTimespec(data []byte, endian binary.ByteOrder) types.Timespec {
	return types.Timespec{
		Sec:  int64(endian.Uint64(data[0:8])),
		Nsec: int64(endian.Uint64(data[8:16])),
	}
}
