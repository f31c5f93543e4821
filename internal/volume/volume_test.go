package volume

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hushfs/internal/device"
	"github.com/deploymenttheory/go-hushfs/internal/layout"
	"github.com/deploymenttheory/go-hushfs/internal/parsers/superblock"
	"github.com/deploymenttheory/go-hushfs/internal/types"
)

func createTestVolume(t *testing.T, size uint64) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "secret.img")
	logger, _ := test.NewNullLogger()

	dev, err := device.Create(path, logger)
	require.NoError(t, err)

	sb, err := layout.ComputeGeometry(size)
	require.NoError(t, err)
	require.NoError(t, layout.NewFormatter(dev, logger, layout.FormatOptions{RootInode: true}).Format(sb))
	require.NoError(t, dev.Close())
	return path
}

func openTestVolume(t *testing.T, path string) *Volume {
	t.Helper()
	logger, _ := test.NewNullLogger()
	v, err := Open(path, logger)
	require.NoError(t, err)
	t.Cleanup(func() { v.Close() })
	return v
}

func TestOpenFormattedVolume(t *testing.T) {
	v := openTestVolume(t, createTestVolume(t, 1<<20))

	sb := v.Superblock()
	assert.Equal(t, types.Magic, sb.MagicString())
	assert.Equal(t, uint64(20), sb.FirstDatablock)

	stats := v.Stats()
	assert.Equal(t, Stats{
		TotalInodes:   256,
		UsedInodes:    1,
		FreeInodes:    255,
		TotalBlocks:   256,
		UsedBlocks:    20,
		FreeBlocks:    236,
		NextFreeInode: 2,
	}, stats)

	root, err := v.ReadInode(types.RootInodeNumber)
	require.NoError(t, err)
	assert.Equal(t, types.InodeTypeDirectory, root.Type)
}

func TestAllocationsPersistAcrossSessions(t *testing.T) {
	path := createTestVolume(t, 1<<20)
	logger, _ := test.NewNullLogger()

	v, err := Open(path, logger)
	require.NoError(t, err)

	n, err := v.AllocateInode()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	ino := types.NewFileInode(n, 0o100600, 1000, 1000, time.Unix(1700000000, 0))
	require.NoError(t, ino.SetFileSize(42))
	require.NoError(t, v.WriteInode(ino))

	block, err := v.AllocateBlock()
	require.NoError(t, err)
	assert.Equal(t, uint64(20), block)
	require.NoError(t, v.Close())

	reopened := openTestVolume(t, path)
	allocated, err := reopened.Inodes().IsAllocated(2)
	require.NoError(t, err)
	assert.True(t, allocated)

	got, err := reopened.ReadInode(2)
	require.NoError(t, err)
	assert.Equal(t, ino, got)

	next, err := reopened.AllocateBlock()
	require.NoError(t, err)
	assert.Equal(t, uint64(21), next)

	n, err = reopened.AllocateInode()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)
}

func TestFreeInode(t *testing.T) {
	v := openTestVolume(t, createTestVolume(t, 1<<20))

	n, err := v.AllocateInode()
	require.NoError(t, err)
	require.NoError(t, v.WriteInode(types.NewFileInode(n, 0o100600, 0, 0, time.Now())))

	require.NoError(t, v.FreeInode(n))
	ino, err := v.ReadInode(n)
	require.NoError(t, err)
	assert.True(t, ino.IsUnused())

	next, err := v.NextFreeInode()
	require.NoError(t, err)
	assert.Equal(t, n, next)

	err = v.FreeInode(types.RootInodeNumber)
	assert.ErrorIs(t, err, types.ErrGeometry)

	err = v.FreeInode(1000)
	assert.ErrorIs(t, err, types.ErrGeometry)
}

func TestWriteInodeRequiresAllocation(t *testing.T) {
	v := openTestVolume(t, createTestVolume(t, 1<<20))

	err := v.WriteInode(types.NewFileInode(9, 0o100600, 0, 0, time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrGeometry)
	assert.Contains(t, err.Error(), "not allocated")
}

func TestFreeBlockRejectsMetadata(t *testing.T) {
	v := openTestVolume(t, createTestVolume(t, 1<<20))

	err := v.FreeBlock(3)
	assert.ErrorIs(t, err, types.ErrGeometry)

	block, err := v.AllocateBlock()
	require.NoError(t, err)
	require.NoError(t, v.FreeBlock(block))
	assert.Equal(t, uint64(20), v.Blocks().Used())
}

func TestBlockExhaustion(t *testing.T) {
	v := openTestVolume(t, createTestVolume(t, 6*uint64(types.BlockSize)))

	sb := v.Superblock()
	for i := sb.FirstDatablock; i < sb.TotalBlocks; i++ {
		_, err := v.AllocateBlock()
		require.NoError(t, err)
	}

	_, err := v.AllocateBlock()
	assert.ErrorIs(t, err, types.ErrNoSpace)
}

func TestOpenRejectsForeignImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "random.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 1<<16), 0o600))

	logger, _ := test.NewNullLogger()
	_, err := Open(path, logger)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrDecode)
	assert.Contains(t, err.Error(), "invalid magic")
}

func TestOpenTwiceFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("advisory locks are unix only")
	}
	path := createTestVolume(t, 1<<20)
	openTestVolume(t, path)

	logger, _ := test.NewNullLogger()
	_, err := Open(path, logger)
	require.Error(t, err)
	assert.True(t, IsInUse(err))
}

func TestOpenRejectsCraftedSuperblock(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(sb *types.Superblock)
	}{
		{
			name:   "inode bitmap larger than the volume",
			mutate: func(sb *types.Superblock) { sb.InodeBitmapBlocks = 1 << 30 },
		},
		{
			name:   "inode bitmap size that wraps to zero bytes",
			mutate: func(sb *types.Superblock) { sb.InodeBitmapBlocks = 1 << 62 },
		},
		{
			name:   "block bitmap too small for the volume",
			mutate: func(sb *types.Superblock) { sb.TotalBlocks, sb.DiskSize = 1<<16, 1<<28 },
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := createTestVolume(t, 1<<20)
			rewriteSuperblock(t, path, tc.mutate)

			logger, _ := test.NewNullLogger()
			v, err := Open(path, logger)
			require.Error(t, err)
			assert.Nil(t, v)
			assert.ErrorIs(t, err, types.ErrDecode)
		})
	}
}

func TestOpenRejectsTruncatedImage(t *testing.T) {
	// a consistent superblock for a volume far larger than the file
	path := filepath.Join(t.TempDir(), "short.img")
	sb, err := layout.ComputeGeometry(1 << 40)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, superblock.Encode(sb, types.Endian), 0o600))

	logger, _ := test.NewNullLogger()
	_, err = Open(path, logger)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrIO)
}

func rewriteSuperblock(t *testing.T, path string, mutate func(sb *types.Superblock)) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	sb, err := superblock.Parse(data[:types.BlockSize], types.Endian)
	require.NoError(t, err)
	mutate(sb)
	copy(data, superblock.Encode(sb, types.Endian))
	require.NoError(t, os.WriteFile(path, data, 0o600))
}
