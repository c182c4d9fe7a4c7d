//go:build !linux

package install

func relaxCPULimit() error {
	return nil
}
