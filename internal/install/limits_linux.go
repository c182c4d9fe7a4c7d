//go:build linux

package install

import "golang.org/x/sys/unix"

const rlimInfinity = ^uint64(0)

// relaxCPULimit removes RLIMIT_CPU, or raises the soft limit to the hard limit
// when the process may not lift the hard limit.
func relaxCPULimit() error {
	var current unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_CPU, &current); err != nil {
		return err
	}
	if current.Cur == rlimInfinity {
		return nil
	}
	unlimited := unix.Rlimit{Cur: rlimInfinity, Max: rlimInfinity}
	if err := unix.Setrlimit(unix.RLIMIT_CPU, &unlimited); err == nil {
		return nil
	}
	current.Cur = current.Max
	return unix.Setrlimit(unix.RLIMIT_CPU, &current)
}
