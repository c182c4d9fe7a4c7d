//go:build !unix

package registry

// withFileLock runs fn unlocked; advisory file locks need flock.
func withFileLock(_ string, fn func() error) error {
	return fn()
}
