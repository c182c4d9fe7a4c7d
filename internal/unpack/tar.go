package unpack

import (
	"archive/tar"
	"compress/bzip2"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/conn-castle/extinstall/internal/messages"
)

func (x *extractor) extractTarFile(path string, format Format) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf(messages.UnpackOpenFmt, path, err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	switch format {
	case FormatTarGz:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf(messages.UnpackReadFmt, path, err)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	case FormatTarZst:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf(messages.UnpackReadFmt, path, err)
		}
		defer zr.Close()
		r = zr
	case FormatTarBz2:
		r = bzip2.NewReader(f)
	}
	if err := x.extractTar(r); err != nil {
		return fmt.Errorf(messages.UnpackReadFmt, path, err)
	}
	return nil
}

func (x *extractor) extractTar(r io.Reader) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := x.countEntry(); err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			err = x.mkdir(hdr.Name)
		case tar.TypeReg:
			if hdr.Size > x.maxFileBytes {
				return fmt.Errorf(messages.UnpackFileTooLargeFmt, hdr.Name, x.maxFileBytes)
			}
			err = x.writeFile(hdr.Name, hdr.FileInfo().Mode(), tr)
		case tar.TypeSymlink:
			err = x.symlink(hdr.Name, hdr.Linkname)
		case tar.TypeLink:
			err = x.hardlink(hdr.Name, hdr.Linkname)
		case tar.TypeXGlobalHeader, tar.TypeXHeader:
			// pax metadata carries no file content
		default:
			// device nodes and fifos have no place in an extension package
			err = fmt.Errorf(messages.UnpackUnsafePathFmt, hdr.Name)
		}
		if err != nil {
			return err
		}
	}
}
