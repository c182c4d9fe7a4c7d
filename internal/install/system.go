package install

import (
	"os"
)

// System abstracts the OS operations the orchestrator performs.
// This interface is package-local so tests can inject faults without touching
// the real filesystem or process limits.
type System interface {
	Stat(name string) (os.FileInfo, error)
	Remove(name string) error
	RemoveAll(path string) error
	RelaxLimits() error
}

// RealSystem implements System using the OS.
type RealSystem struct{}

// Stat returns a FileInfo describing the named file.
func (RealSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// Remove removes the named file.
func (RealSystem) Remove(name string) error {
	return os.Remove(name)
}

// RemoveAll removes path and any children it contains.
func (RealSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// RelaxLimits lifts the CPU time limit of the current process where the
// platform allows it.
func (RealSystem) RelaxLimits() error {
	return relaxCPULimit()
}
