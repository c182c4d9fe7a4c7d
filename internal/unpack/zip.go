package unpack

import (
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/conn-castle/extinstall/internal/messages"
)

func (x *extractor) extractZip(path string) error {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return fmt.Errorf(messages.UnpackOpenFmt, path, err)
	}
	defer func() { _ = zr.Close() }()

	for _, entry := range zr.File {
		if err := x.countEntry(); err != nil {
			return err
		}
		if err := x.extractZipEntry(entry); err != nil {
			return err
		}
	}
	return nil
}

func (x *extractor) extractZipEntry(entry *zip.File) error {
	mode := entry.Mode()
	switch {
	case mode.IsDir() || strings.HasSuffix(entry.Name, "/"):
		return x.mkdir(entry.Name)
	case mode&fs.ModeSymlink != 0:
		return x.extractZipSymlink(entry)
	}
	if entry.UncompressedSize64 > uint64(x.maxFileBytes) {
		return fmt.Errorf(messages.UnpackFileTooLargeFmt, entry.Name, x.maxFileBytes)
	}
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf(messages.UnpackWriteEntryFmt, entry.Name, err)
	}
	defer func() { _ = rc.Close() }()
	return x.writeFile(entry.Name, mode, rc)
}

func (x *extractor) extractZipSymlink(entry *zip.File) error {
	rc, err := entry.Open()
	if err != nil {
		return fmt.Errorf(messages.UnpackWriteEntryFmt, entry.Name, err)
	}
	defer func() { _ = rc.Close() }()
	target, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return fmt.Errorf(messages.UnpackWriteEntryFmt, entry.Name, err)
	}
	return x.symlink(entry.Name, string(target))
}
