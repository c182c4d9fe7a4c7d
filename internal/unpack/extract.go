package unpack

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/conn-castle/extinstall/internal/messages"
)

// extractor writes archive entries below root while enforcing limits.
type extractor struct {
	ctx           context.Context
	root          string
	maxFiles      int
	maxFileBytes  int64
	maxTotalBytes int64

	entries    int
	files      int
	totalBytes int64
}

// target resolves an entry name to a path inside root.
func (x *extractor) target(name string) (string, error) {
	cleaned := filepath.FromSlash(strings.TrimPrefix(name, "./"))
	if cleaned == "" || filepath.IsAbs(cleaned) || strings.HasPrefix(name, "/") || filepath.VolumeName(cleaned) != "" {
		return "", fmt.Errorf(messages.UnpackUnsafePathFmt, name)
	}
	target := filepath.Join(x.root, cleaned)
	if !x.within(target) {
		return "", fmt.Errorf(messages.UnpackUnsafePathFmt, name)
	}
	if err := x.checkParents(name, target); err != nil {
		return "", err
	}
	return target, nil
}

// checkParents refuses a target whose existing parent directories include a
// symbolic link, so earlier link entries cannot redirect later writes.
func (x *extractor) checkParents(name string, target string) error {
	rel, err := filepath.Rel(x.root, filepath.Dir(target))
	if err != nil {
		return fmt.Errorf(messages.UnpackUnsafePathFmt, name)
	}
	if rel == "." {
		return nil
	}
	current := x.root
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		current = filepath.Join(current, part)
		info, err := os.Lstat(current)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf(messages.UnpackWriteEntryFmt, name, err)
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return fmt.Errorf(messages.UnpackLinkedParentFmt, name)
		}
	}
	return nil
}

func (x *extractor) within(path string) bool {
	rel, err := filepath.Rel(x.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// countEntry enforces the entry limit and honours cancellation.
func (x *extractor) countEntry() error {
	if err := x.ctx.Err(); err != nil {
		return err
	}
	x.entries++
	if x.entries > x.maxFiles {
		return fmt.Errorf(messages.UnpackTooManyFilesFmt, x.maxFiles)
	}
	return nil
}

func (x *extractor) mkdir(name string) error {
	target, err := x.target(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return fmt.Errorf(messages.UnpackWriteEntryFmt, name, err)
	}
	return nil
}

// writeFile copies at most maxFileBytes from r into the entry's target.
func (x *extractor) writeFile(name string, mode fs.FileMode, r io.Reader) error {
	target, err := x.target(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf(messages.UnpackWriteEntryFmt, name, err)
	}
	perm := mode.Perm() | 0o600
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC|openNoFollow, perm)
	if err != nil {
		return fmt.Errorf(messages.UnpackWriteEntryFmt, name, err)
	}
	n, copyErr := io.Copy(f, io.LimitReader(r, x.maxFileBytes+1))
	closeErr := f.Close()
	if copyErr != nil {
		return fmt.Errorf(messages.UnpackWriteEntryFmt, name, copyErr)
	}
	if closeErr != nil {
		return fmt.Errorf(messages.UnpackWriteEntryFmt, name, closeErr)
	}
	if n > x.maxFileBytes {
		return fmt.Errorf(messages.UnpackFileTooLargeFmt, name, x.maxFileBytes)
	}
	x.totalBytes += n
	if x.totalBytes > x.maxTotalBytes {
		return fmt.Errorf(messages.UnpackTotalTooLargeFmt, x.maxTotalBytes)
	}
	x.files++
	return nil
}

// symlink creates a link whose destination must stay inside root.
func (x *extractor) symlink(name string, linkTarget string) error {
	target, err := x.target(name)
	if err != nil {
		return err
	}
	if filepath.IsAbs(linkTarget) {
		return fmt.Errorf(messages.UnpackUnsafeLinkFmt, name)
	}
	resolved := filepath.Join(filepath.Dir(target), filepath.FromSlash(linkTarget))
	if !x.within(resolved) || x.throughLink(filepath.Dir(target), linkTarget) {
		return fmt.Errorf(messages.UnpackUnsafeLinkFmt, name)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf(messages.UnpackWriteEntryFmt, name, err)
	}
	if err := os.Symlink(linkTarget, target); err != nil {
		return fmt.Errorf(messages.UnpackWriteEntryFmt, name, err)
	}
	return nil
}

// throughLink reports whether resolving linkTarget from dir passes through an
// existing symlink before its last element. Lexical checks hold only without one.
func (x *extractor) throughLink(dir string, linkTarget string) bool {
	parts := strings.Split(filepath.FromSlash(linkTarget), string(filepath.Separator))
	current := dir
	for _, part := range parts[:len(parts)-1] {
		if part == "" || part == "." {
			continue
		}
		current = filepath.Join(current, part)
		if part == ".." {
			continue
		}
		info, err := os.Lstat(current)
		if err != nil {
			return false
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return true
		}
	}
	return false
}

// hardlink links name to an already extracted entry.
func (x *extractor) hardlink(name string, linkName string) error {
	target, err := x.target(name)
	if err != nil {
		return err
	}
	source, err := x.target(linkName)
	if err != nil {
		return fmt.Errorf(messages.UnpackUnsafeLinkFmt, name)
	}
	if info, err := os.Lstat(source); err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf(messages.UnpackUnsafeLinkFmt, name)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf(messages.UnpackWriteEntryFmt, name, err)
	}
	if err := os.Link(source, target); err != nil {
		return fmt.Errorf(messages.UnpackWriteEntryFmt, name, err)
	}
	x.files++
	return nil
}
