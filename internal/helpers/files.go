// Package helpers holds small filesystem utilities shared by the services.
package helpers

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/deploymenttheory/go-hushfs/internal/types"
)

// KeyFileMode is the permission of every file holding key material
const KeyFileMode fs.FileMode = 0o600

// openFile opens the files written by CreateAndWrite
var openFile = os.OpenFile

// CreateAndWrite creates path exclusively with mode, creating missing parent
// directories with mode 0700, and writes data to it in one call. An existing
// file is never overwritten, and a file it created is removed again when the
// write fails.
func CreateAndWrite(path string, data []byte, mode fs.FileMode) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := openFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, mode)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	n, err := f.Write(data)
	if err == nil && n != len(data) {
		err = errors.New("incomplete write")
	}
	if err != nil {
		f.Close()
		os.Remove(path)
		return types.NewShortWriteError("write "+filepath.Base(path), 0, len(data), n, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return types.NewIOError("close "+filepath.Base(path), -1, err)
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// FileExists reports whether anything exists at path
func FileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// ReadText reads a small text file such as a key block
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}
