package bitmap

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/go-hushfs/internal/interfaces"
	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// AllocatorConfig describes one bitmap region of an open volume
type AllocatorConfig struct {
	// Name identifies the map in errors and logs, e.g. "inode" or "block".
	Name string
	// Bitmap is the in-memory mirror of the region.
	Bitmap *Bitmap
	// Device persists changed bytes. A nil device keeps the map in memory only.
	Device interfaces.BlockDevice
	// ByteOffset is where the region starts on disk.
	ByteOffset int64
	// Base is the unit number of bit 0: 1 for inodes, 0 for blocks.
	Base uint64
	// Count is the number of valid units; bits past it are never handed out.
	Count uint64
	// Reserved units below this number can never be freed.
	Reserved uint64
	Logger   logrus.FieldLogger
}

// Allocator hands out units from one bitmap and writes every changed byte
// straight back to disk. One Allocator must own a given on-disk region;
// calls are serialized by an internal mutex.
type Allocator struct {
	mu       sync.Mutex
	name     string
	bitmap   *Bitmap
	dev      interfaces.BlockDevice
	offset   int64
	base     uint64
	count    uint64
	reserved uint64
	log      logrus.FieldLogger
}

// Ensure interface compliance
var _ interfaces.Allocator = (*Allocator)(nil)

// NewAllocator creates an allocator over cfg.Bitmap
func NewAllocator(cfg AllocatorConfig) *Allocator {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	count := cfg.Count
	if count > cfg.Bitmap.Len() {
		count = cfg.Bitmap.Len()
	}
	return &Allocator{
		name:     cfg.Name,
		bitmap:   cfg.Bitmap,
		dev:      cfg.Device,
		offset:   cfg.ByteOffset,
		base:     cfg.Base,
		count:    count,
		reserved: cfg.Reserved,
		log:      logger.WithField("bitmap", cfg.Name),
	}
}

// NextAvailable returns the first free unit number. With markUsed the bit
// is set and the single byte holding it is written back before returning.
func (a *Allocator) NextAvailable(markUsed bool) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bit, ok := a.bitmap.FirstClear(a.count)
	if !ok {
		return 0, types.NewNoSpaceError("allocate "+a.name, "bitmap is full")
	}

	if markUsed {
		if err := a.update(bit, true); err != nil {
			return 0, err
		}
		a.log.WithField("unit", bit+a.base).Debug("Allocated")
	}
	return bit + a.base, nil
}

// Free releases unit n and persists the cleared bit
func (a *Allocator) Free(n uint64) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	bit, err := a.bitFor(n)
	if err != nil {
		return err
	}
	if n < a.reserved {
		return types.NewGeometryError("free "+a.name, "unit is reserved metadata")
	}

	set, _ := a.bitmap.IsSet(bit)
	if !set {
		return nil
	}
	if err := a.update(bit, false); err != nil {
		return err
	}
	a.log.WithField("unit", n).Debug("Freed")
	return nil
}

// IsAllocated reports whether unit n is in use
func (a *Allocator) IsAllocated(n uint64) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bit, err := a.bitFor(n)
	if err != nil {
		return false, err
	}
	return a.bitmap.IsSet(bit)
}

// Used returns the number of units in use
func (a *Allocator) Used() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bitmap.CountSet(a.count)
}

// Available returns the number of free units
func (a *Allocator) Available() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count - a.bitmap.CountSet(a.count)
}

// Count returns the number of units the allocator manages
func (a *Allocator) Count() uint64 {
	return a.count
}

func (a *Allocator) bitFor(n uint64) (uint64, error) {
	if n < a.base || n-a.base >= a.count {
		return 0, types.NewGeometryError(a.name+" lookup", "unit number out of range")
	}
	return n - a.base, nil
}

// update flips one bit and persists its byte, restoring the bit on failure
func (a *Allocator) update(bit uint64, set bool) error {
	if set {
		a.bitmap.Set(bit)
	} else {
		a.bitmap.Clear(bit)
	}

	if a.dev == nil {
		return nil
	}

	index := bit / 8
	if err := a.dev.WriteData(a.bitmap.bits[index:index+1], a.offset+int64(index), 1, false); err != nil {
		if set {
			a.bitmap.Clear(bit)
		} else {
			a.bitmap.Set(bit)
		}
		return err
	}
	return nil
}
