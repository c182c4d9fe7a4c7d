package install

import (
	"os"
)

// testSystem wraps RealSystem so tests can use t.TempDir fixtures while
// injecting failures for individual operations.
type testSystem struct {
	RealSystem

	StatFunc        func(name string) (os.FileInfo, error)
	RemoveFunc      func(name string) error
	RemoveAllFunc   func(path string) error
	RelaxLimitsFunc func() error

	relaxCalls int
}

func (s *testSystem) Stat(name string) (os.FileInfo, error) {
	if s.StatFunc != nil {
		return s.StatFunc(name)
	}
	return s.RealSystem.Stat(name)
}

func (s *testSystem) Remove(name string) error {
	if s.RemoveFunc != nil {
		return s.RemoveFunc(name)
	}
	return s.RealSystem.Remove(name)
}

func (s *testSystem) RemoveAll(path string) error {
	if s.RemoveAllFunc != nil {
		return s.RemoveAllFunc(path)
	}
	return s.RealSystem.RemoveAll(path)
}

// RelaxLimits never touches the real process limits.
func (s *testSystem) RelaxLimits() error {
	s.relaxCalls++
	if s.RelaxLimitsFunc != nil {
		return s.RelaxLimitsFunc()
	}
	return nil
}
