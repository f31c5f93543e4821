package bitmap

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deploymenttheory/go-hushfs/internal/types"
)

type recordedWrite struct {
	offset int64
	data   []byte
}

// recordingDevice captures WriteData calls
type recordingDevice struct {
	writes []recordedWrite
	fail   error
}

func (d *recordingDevice) WriteData(buf []byte, offset int64, length int, verifyPosition bool) error {
	if d.fail != nil {
		return d.fail
	}
	d.writes = append(d.writes, recordedWrite{offset: offset, data: append([]byte(nil), buf[:length]...)})
	return nil
}

func (d *recordingDevice) WriteBlock(buf []byte, block uint64, verifyPosition bool) error {
	return d.WriteData(buf, int64(block)*int64(types.BlockSize), int(types.BlockSize), verifyPosition)
}

func (d *recordingDevice) ReadData(buf []byte, offset int64) error { return nil }

func (d *recordingDevice) ReadBlock(buf []byte, block uint64) error { return nil }

func (d *recordingDevice) Position() (int64, error) { return 0, nil }

func (d *recordingDevice) Truncate(size int64) error { return nil }

func newInodeAllocator(dev *recordingDevice, count uint64) *Allocator {
	logger, _ := test.NewNullLogger()
	return NewAllocator(AllocatorConfig{
		Name:       "inode",
		Bitmap:     New(1, types.BlockSize),
		Device:     dev,
		ByteOffset: 4096,
		Base:       1,
		Count:      count,
		Logger:     logger,
	})
}

func TestNextAvailableOnFreshBitmap(t *testing.T) {
	dev := &recordingDevice{}
	alloc := newInodeAllocator(dev, 256)

	n, err := alloc.NextAvailable(false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
	assert.Empty(t, dev.writes, "a query without markUsed must not write")

	n, err = alloc.NextAvailable(false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), n)
}

func TestNextAvailablePersistsSingleByte(t *testing.T) {
	dev := &recordingDevice{}
	alloc := newInodeAllocator(dev, 256)

	var got []uint64
	for i := 0; i < 10; i++ {
		n, err := alloc.NextAvailable(true)
		require.NoError(t, err)
		got = append(got, n)
	}
	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, got)

	require.Len(t, dev.writes, 10)
	assert.Equal(t, recordedWrite{offset: 4096, data: []byte{0x80}}, dev.writes[0])
	assert.Equal(t, recordedWrite{offset: 4096, data: []byte{0xFF}}, dev.writes[7])
	assert.Equal(t, recordedWrite{offset: 4097, data: []byte{0xC0}}, dev.writes[9])

	assert.Equal(t, uint64(10), alloc.Used())
	assert.Equal(t, uint64(246), alloc.Available())
}

func TestFreeAndReuse(t *testing.T) {
	dev := &recordingDevice{}
	alloc := newInodeAllocator(dev, 256)

	for i := 0; i < 3; i++ {
		_, err := alloc.NextAvailable(true)
		require.NoError(t, err)
	}

	require.NoError(t, alloc.Free(3))
	allocated, err := alloc.IsAllocated(3)
	require.NoError(t, err)
	assert.False(t, allocated)
	assert.Equal(t, []byte{0xC0}, dev.writes[len(dev.writes)-1].data)

	n, err := alloc.NextAvailable(true)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), n)

	assert.Error(t, alloc.Free(0))
	assert.Error(t, alloc.Free(257))
}

func TestAllocatorExhaustion(t *testing.T) {
	alloc := newInodeAllocator(&recordingDevice{}, 4)

	for i := 0; i < 4; i++ {
		_, err := alloc.NextAvailable(true)
		require.NoError(t, err)
	}

	_, err := alloc.NextAvailable(true)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNoSpace)
}

func TestAllocatorRollsBackOnWriteFailure(t *testing.T) {
	dev := &recordingDevice{fail: types.NewShortWriteError("write data", 4096, 1, 0, errors.New("disk full"))}
	alloc := newInodeAllocator(dev, 256)

	_, err := alloc.NextAvailable(true)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrIO)

	allocated, err := alloc.IsAllocated(1)
	require.NoError(t, err)
	assert.False(t, allocated)
}

func TestBlockAllocatorReservesMetadata(t *testing.T) {
	bm := New(1, types.BlockSize)
	require.NoError(t, bm.SetRange(0, 20))

	logger, _ := test.NewNullLogger()
	alloc := NewAllocator(AllocatorConfig{
		Name:     "block",
		Bitmap:   bm,
		Base:     0,
		Count:    256,
		Reserved: 20,
		Logger:   logger,
	})

	n, err := alloc.NextAvailable(true)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), n)

	err = alloc.Free(5)
	assert.ErrorIs(t, err, types.ErrGeometry)
	require.NoError(t, alloc.Free(20))
}
