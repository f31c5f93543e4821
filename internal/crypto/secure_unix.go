//go:build unix

package crypto

import (
	"errors"

	"golang.org/x/sys/unix"
)

// allocate maps anonymous memory and tries to lock it. An mlock failure,
// typically RLIMIT_MEMLOCK, leaves the buffer usable but unlocked.
func allocate(n int) ([]byte, bool, error) {
	data, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, false, err
	}
	locked := unix.Mlock(data) == nil
	return data, locked, nil
}

func release(data []byte, locked bool) error {
	var errs []error
	if locked {
		if err := unix.Munlock(data); err != nil {
			errs = append(errs, err)
		}
	}
	if err := unix.Munmap(data); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
