//go:build !unix

package device

import "os"

// Advisory locking is only implemented on unix platforms.
func lockFile(f *os.File, wait bool) error { return nil }

func unlockFile(f *os.File) error { return nil }
