// Package unpack extracts extension package archives into a private temporary
// directory.
package unpack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/conn-castle/extinstall/internal/messages"
)

// ErrUnsupportedFormat is returned for archives that are neither zip nor tar based.
var ErrUnsupportedFormat = errors.New("unsupported archive format")

// Default extraction limits.
const (
	DefaultMaxFiles      = 4096
	DefaultMaxFileBytes  = 64 << 20
	DefaultMaxTotalBytes = 512 << 20
)

// Format identifies an archive container and compression.
type Format string

// Supported formats.
const (
	FormatZip    Format = "zip"
	FormatTar    Format = "tar"
	FormatTarGz  Format = "tar.gz"
	FormatTarZst Format = "tar.zst"
	FormatTarBz2 Format = "tar.bz2"
)

// Result describes a successful extraction.
type Result struct {
	// ExtractDir is the directory holding the unpacked files.
	ExtractDir string
	// ArchiveFile is the archive that was unpacked.
	ArchiveFile string
}

// Options configures an Unpacker.
type Options struct {
	// TempDir is the parent of extraction directories. Empty uses os.TempDir.
	TempDir       string
	MaxFiles      int
	MaxFileBytes  int64
	MaxTotalBytes int64
	Logger        zerolog.Logger
}

// Unpacker extracts archives with size and path safety limits.
type Unpacker struct {
	tempDir       string
	maxFiles      int
	maxFileBytes  int64
	maxTotalBytes int64
	log           zerolog.Logger
	newID         func() string
}

// New returns an Unpacker, filling unset limits with defaults.
func New(opts Options) *Unpacker {
	u := &Unpacker{
		tempDir:       opts.TempDir,
		maxFiles:      opts.MaxFiles,
		maxFileBytes:  opts.MaxFileBytes,
		maxTotalBytes: opts.MaxTotalBytes,
		log:           opts.Logger,
		newID:         uuid.NewString,
	}
	if u.tempDir == "" {
		u.tempDir = os.TempDir()
	}
	if u.maxFiles <= 0 {
		u.maxFiles = DefaultMaxFiles
	}
	if u.maxFileBytes <= 0 {
		u.maxFileBytes = DefaultMaxFileBytes
	}
	if u.maxTotalBytes <= 0 {
		u.maxTotalBytes = DefaultMaxTotalBytes
	}
	return u
}

// Unpack extracts archivePath into a fresh directory under the temp dir.
// On failure no extraction directory is left behind.
func (u *Unpacker) Unpack(ctx context.Context, archivePath string) (*Result, error) {
	if strings.TrimSpace(archivePath) == "" {
		return nil, errors.New(messages.UnpackArchiveRequired)
	}
	format, err := DetectFormat(archivePath)
	if err != nil {
		return nil, err
	}

	extractDir := filepath.Join(u.tempDir, "install_"+u.newID())
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return nil, fmt.Errorf(messages.UnpackCreateDirFmt, err)
	}
	u.log.Debug().Str("archive", archivePath).Str("format", string(format)).Str("dir", extractDir).Msg("extracting")

	x := &extractor{
		ctx:           ctx,
		root:          extractDir,
		maxFiles:      u.maxFiles,
		maxFileBytes:  u.maxFileBytes,
		maxTotalBytes: u.maxTotalBytes,
	}
	if format == FormatZip {
		err = x.extractZip(archivePath)
	} else {
		err = x.extractTarFile(archivePath, format)
	}
	if err == nil && x.files == 0 {
		err = fmt.Errorf(messages.UnpackEmptyArchiveFmt, archivePath)
	}
	if err != nil {
		if rmErr := os.RemoveAll(extractDir); rmErr != nil {
			u.log.Warn().Err(rmErr).Str("dir", extractDir).Msg("remove partial extraction")
		}
		return nil, err
	}
	return &Result{ExtractDir: extractDir, ArchiveFile: archivePath}, nil
}

var magics = []struct {
	format Format
	offset int
	magic  []byte
}{
	{FormatZip, 0, []byte("PK\x03\x04")},
	{FormatTarGz, 0, []byte{0x1f, 0x8b}},
	{FormatTarZst, 0, []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{FormatTarBz2, 0, []byte("BZh")},
	{FormatTar, 257, []byte("ustar")},
}

// DetectFormat picks the archive format from the file name, falling back to
// the leading magic bytes.
func DetectFormat(path string) (Format, error) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasSuffix(name, ".zip"):
		return FormatZip, nil
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(name, ".tar.zst"), strings.HasSuffix(name, ".tzst"):
		return FormatTarZst, nil
	case strings.HasSuffix(name, ".tar.bz2"), strings.HasSuffix(name, ".tbz2"):
		return FormatTarBz2, nil
	case strings.HasSuffix(name, ".tar"):
		return FormatTar, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf(messages.UnpackOpenFmt, path, err)
	}
	defer func() { _ = f.Close() }()
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf(messages.UnpackReadFmt, path, err)
	}
	head = head[:n]
	for _, m := range magics {
		end := m.offset + len(m.magic)
		if len(head) >= end && bytes.Equal(head[m.offset:end], m.magic) {
			return m.format, nil
		}
	}
	return "", fmt.Errorf("%w: "+messages.UnpackUnsupportedFormatFmt, ErrUnsupportedFormat, path)
}
