//go:build !unix

package crypto

// Memory locking is only implemented on unix platforms; elsewhere secrets
// live on the heap and are still zeroed on Destroy.
func allocate(n int) ([]byte, bool, error) {
	return make([]byte, n), false, nil
}

func release(data []byte, locked bool) error {
	return nil
}
