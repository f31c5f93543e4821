package device

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-hushfs/internal/interfaces"
	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// ErrLocked is returned by Open when another session holds the image lock
var ErrLocked = errors.New("image is locked by another session")

// Device provides block-level access to a HushFS image file. Every write is
// a single synchronous write call and any byte count other than the one
// requested is reported as an IO error.
type Device struct {
	file      interfaces.BlockFile
	path      string
	blockSize uint32
	locked    bool
	log       logrus.FieldLogger
}

// Ensure interface compliance
var _ interfaces.BlockDevice = (*Device)(nil)

// New wraps an already open backing file
func New(file interfaces.BlockFile, path string, logger logrus.FieldLogger) *Device {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Device{
		file:      file,
		path:      path,
		blockSize: types.BlockSize,
		log:       logger.WithField("image", path),
	}
}

// Create creates a new image file exclusively and holds an exclusive lock on
// it until Close. An existing file at path is an error.
func Create(path string, logger logrus.FieldLogger) (*Device, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create image file %s: %w", path, err)
	}

	if err := lockFile(file, true); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to obtain exclusive lock on %s: %w", path, err)
	}

	d := New(file, path, logger)
	d.locked = true
	d.log.Debug("Created image file")
	return d, nil
}

// Open opens an existing image for reading and writing. The exclusive lock is
// taken without blocking, so a volume already held by another session fails fast.
func Open(path string, logger logrus.FieldLogger) (*Device, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file %s: %w", path, err)
	}

	if err := lockFile(file, false); err != nil {
		file.Close()
		if errors.Is(err, ErrLocked) {
			return nil, fmt.Errorf("volume %s is in use: %w", path, err)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}

	d := New(file, path, logger)
	d.locked = true
	return d, nil
}

// Path returns the image path
func (d *Device) Path() string {
	return d.path
}

// BlockSize returns the block size used by WriteBlock and ReadBlock
func (d *Device) BlockSize() uint32 {
	return d.blockSize
}

// Position returns the current file position
func (d *Device) Position() (int64, error) {
	pos, err := d.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1, types.NewIOError("query position", -1, err)
	}
	return pos, nil
}

// WriteData writes exactly length bytes of buf at offset
func (d *Device) WriteData(buf []byte, offset int64, length int, verifyPosition bool) error {
	if length < 0 || length > len(buf) {
		return types.NewShortWriteError("write data", offset, length, len(buf), errors.New("buffer is shorter than requested length"))
	}

	if verifyPosition {
		pos, err := d.Position()
		if err != nil {
			return err
		}
		if pos != offset {
			return types.NewPositionError("write data", offset, pos)
		}
	}

	if err := d.seek(offset); err != nil {
		return err
	}

	n, err := d.file.Write(buf[:length])
	if err != nil || n != length {
		return types.NewShortWriteError("write data", offset, length, n, err)
	}

	d.log.WithFields(logrus.Fields{
		"offset": offset,
		"bytes":  n,
	}).Trace("Wrote data")
	return nil
}

// WriteBlock writes exactly one block of buf at block number block
func (d *Device) WriteBlock(buf []byte, block uint64, verifyPosition bool) error {
	return d.WriteData(buf, d.blockOffset(block), int(d.blockSize), verifyPosition)
}

// ReadData fills buf from offset
func (d *Device) ReadData(buf []byte, offset int64) error {
	if err := d.seek(offset); err != nil {
		return err
	}

	n, err := io.ReadFull(d.file, buf)
	if err != nil {
		return types.NewShortReadError("read data", offset, len(buf), n, err)
	}
	return nil
}

// ReadBlock fills buf with one block read from block number block
func (d *Device) ReadBlock(buf []byte, block uint64) error {
	if len(buf) < int(d.blockSize) {
		return types.NewShortReadError("read block", d.blockOffset(block), int(d.blockSize), len(buf), errors.New("buffer smaller than one block"))
	}
	return d.ReadData(buf[:d.blockSize], d.blockOffset(block))
}

// Truncate sets the image size, producing a sparse tail when the image grows
func (d *Device) Truncate(size int64) error {
	t, ok := d.file.(interface{ Truncate(int64) error })
	if !ok {
		return types.NewIOError("truncate", size, errors.New("backing file does not support truncation"))
	}
	if err := t.Truncate(size); err != nil {
		return types.NewIOError("truncate", size, err)
	}
	return nil
}

// Sync flushes the backing file to stable storage when it supports it
func (d *Device) Sync() error {
	if s, ok := d.file.(interface{ Sync() error }); ok {
		if err := s.Sync(); err != nil {
			return types.NewIOError("sync", -1, err)
		}
	}
	return nil
}

// Close releases the lock and closes the backing file
func (d *Device) Close() error {
	var errs []error
	if f, ok := d.file.(*os.File); ok && d.locked {
		if err := unlockFile(f); err != nil {
			errs = append(errs, fmt.Errorf("failed to release lock: %w", err))
		}
		d.locked = false
	}
	if c, ok := d.file.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close image: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (d *Device) seek(offset int64) error {
	pos, err := d.file.Seek(offset, io.SeekStart)
	if err != nil {
		return types.NewIOError("seek", offset, err)
	}
	if pos != offset {
		return types.NewPositionError("seek", offset, pos)
	}
	return nil
}

func (d *Device) blockOffset(block uint64) int64 {
	return int64(block * uint64(d.blockSize))
}
