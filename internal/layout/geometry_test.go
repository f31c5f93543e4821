package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hushfs/internal/types"
)

func TestComputeGeometryOneMebibyte(t *testing.T) {
	sb, err := ComputeGeometry(1 << 20)
	require.NoError(t, err)

	assert.Equal(t, types.Magic, sb.MagicString())
	assert.Equal(t, types.FormatVersion, sb.Version)
	assert.Equal(t, types.BlockSize, sb.BlockSize)
	assert.Equal(t, uint64(1<<20), sb.DiskSize)
	assert.Equal(t, uint64(256), sb.TotalBlocks)
	assert.Equal(t, uint64(256), sb.TotalInodes)
	assert.Equal(t, uint64(16), sb.InodesPerBlock)
	assert.Equal(t, uint64(1), sb.InodeBitmapBlocks)
	assert.Equal(t, uint64(1), sb.BlockBitmapBlocks)
	assert.Equal(t, uint64(17), sb.InodeTableBlocks)
	assert.Equal(t, uint64(1), sb.InodeBitmapOffset)
	assert.Equal(t, uint64(2), sb.BlockBitmapOffset)
	assert.Equal(t, uint64(3), sb.InodeTableOffset)
	assert.Equal(t, uint64(20), sb.FirstDatablock)
}

func TestComputeGeometryProperties(t *testing.T) {
	bs := uint64(types.BlockSize)
	sizes := []uint64{
		MinBlocks * bs,
		MinBlocks*bs + 1,
		100 * bs,
		1 << 20,
		1_000_000,
		20_000_000,
		1_000_000_000,
		(32768 + 1) * bs,
		1 << 34,
		1<<40 + 12345,
	}
	for blocks := uint64(MinBlocks); blocks < 600; blocks += 7 {
		sizes = append(sizes, blocks*bs+blocks%bs)
	}

	for _, size := range sizes {
		sb, err := ComputeGeometry(size)
		require.NoError(t, err, "size %d", size)

		assert.Equal(t, size/bs, sb.TotalBlocks, "size %d", size)
		assert.Less(t, sb.InodeBitmapOffset, sb.BlockBitmapOffset, "size %d", size)
		assert.Less(t, sb.BlockBitmapOffset, sb.InodeTableOffset, "size %d", size)
		assert.Less(t, sb.InodeTableOffset, sb.FirstDatablock, "size %d", size)
		assert.LessOrEqual(t, sb.FirstDatablock*bs, size, "size %d", size)

		assert.GreaterOrEqual(t, sb.InodeBitmapBlocks, uint64(1))
		assert.GreaterOrEqual(t, sb.BlockBitmapBlocks, uint64(1))
		assert.GreaterOrEqual(t, sb.InodeTableBlocks, uint64(1))

		// the bitmaps must hold one bit per unit
		assert.GreaterOrEqual(t, sb.InodeBitmapBlocks*bs*8, sb.TotalInodes, "size %d", size)
		assert.GreaterOrEqual(t, sb.BlockBitmapBlocks*bs*8, sb.TotalBlocks, "size %d", size)
		assert.GreaterOrEqual(t, sb.InodeTableBlocks*sb.InodesPerBlock, sb.TotalInodes, "size %d", size)

		regions := sb.Regions()
		for i := range regions {
			for j := i + 1; j < len(regions); j++ {
				assert.False(t, regions[i].Overlaps(regions[j]), "size %d: %s overlaps %s", size, regions[i].Name, regions[j].Name)
			}
		}
	}
}

func TestComputeGeometryBitmapGrowsPastOneBlock(t *testing.T) {
	bs := uint64(types.BlockSize)

	sb, err := ComputeGeometry(bs * bs * 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), sb.BlockBitmapBlocks)

	sb, err = ComputeGeometry(bs * (bs*8 + 1))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), sb.BlockBitmapBlocks)
	assert.Equal(t, uint64(2), sb.InodeBitmapBlocks)
}

func TestComputeGeometryBelowOneBlock(t *testing.T) {
	for _, size := range []uint64{0, uint64(types.BlockSize) - 1} {
		sb, err := ComputeGeometry(size)
		require.Error(t, err)
		assert.Nil(t, sb)
		assert.ErrorIs(t, err, types.ErrGeometry)
	}
}

func TestValidateFits(t *testing.T) {
	bs := uint64(types.BlockSize)
	tests := []struct {
		name    string
		size    uint64
		wantErr bool
	}{
		{name: "one block", size: bs, wantErr: true},
		{name: "metadata only", size: (MinBlocks - 1) * bs, wantErr: true},
		{name: "one data block", size: MinBlocks * bs},
		{name: "one mebibyte", size: 1 << 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sb, err := ComputeGeometry(tt.size)
			require.NoError(t, err)
			assert.Equal(t, tt.size/bs, sb.TotalBlocks)

			err = ValidateFits(sb)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, types.ErrGeometry)
				assert.Contains(t, err.Error(), "cannot hold")
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		input   string
		want    uint64
		wantErr bool
	}{
		{input: "1048576", want: 1048576},
		{input: "1k", want: 1000},
		{input: "20m", want: 20_000_000},
		{input: "1g", want: 1_000_000_000},
		{input: "2G", want: 2_000_000_000},
		{input: "1.5k", want: 1500},
		{input: " 10m ", want: 10_000_000},
		{input: "64MiB", want: 64 << 20},
		{input: "1ki", want: 1024},
		{input: "0", wantErr: true},
		{input: "", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "5x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSize(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, types.ErrGeometry)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewBlockBitmapMarksMetadata(t *testing.T) {
	sb, err := ComputeGeometry(1 << 20)
	require.NoError(t, err)

	bm, err := NewBlockBitmap(sb)
	require.NoError(t, err)
	require.Len(t, bm.Bytes(), int(types.BlockSize))

	assert.Equal(t, []byte{0xFF, 0xFF, 0xF0, 0x00}, bm.Bytes()[:4])
	for i := uint64(0); i < sb.TotalBlocks; i++ {
		set, err := bm.IsSet(i)
		require.NoError(t, err)
		assert.Equal(t, i < sb.FirstDatablock, set, "block %d", i)
	}

	inodes := NewInodeBitmap(sb)
	assert.Equal(t, uint64(0), inodes.CountSet(inodes.Len()))
}
