package install

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/extinstall/internal/sink"
	"github.com/conn-castle/extinstall/internal/unpack"
)

type unpackerFunc func(ctx context.Context, archivePath string) (*unpack.Result, error)

func (f unpackerFunc) Unpack(ctx context.Context, archivePath string) (*unpack.Result, error) {
	return f(ctx, archivePath)
}

type installerFunc func(ctx context.Context, dir string) bool

func (f installerFunc) Install(ctx context.Context, dir string) bool {
	return f(ctx, dir)
}

// fixture holds a package archive and a populated extraction directory.
type fixture struct {
	archive    string
	extractDir string
	out        *bytes.Buffer
	sys        *testSystem
	unpacked   int
	installed  int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		archive:    filepath.Join(root, "pkg_demo.zip"),
		extractDir: filepath.Join(root, "install_0001"),
		out:        &bytes.Buffer{},
		sys:        &testSystem{},
	}
	require.NoError(t, os.WriteFile(f.archive, []byte("PK"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(f.extractDir, "admin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.extractDir, "admin", "demo.php"), []byte("<?php"), 0o644))
	return f
}

func (f *fixture) options(installed bool) Options {
	var emitter sink.Emitter = sink.New(f.out, zerolog.Nop())
	return Options{
		PackagePath: f.archive,
		System:      f.sys,
		Unpacker: unpackerFunc(func(_ context.Context, path string) (*unpack.Result, error) {
			f.unpacked++
			return &unpack.Result{ExtractDir: f.extractDir, ArchiveFile: path}, nil
		}),
		Installer: installerFunc(func(_ context.Context, dir string) bool {
			f.installed++
			emitter.Capture(sink.Message{Text: "<p>Copied files to <code>" + filepath.Base(dir) + "</code></p>", Kind: sink.KindMessage})
			return installed
		}),
		Sink:   emitter,
		Logger: zerolog.Nop(),
	}
}

func TestRunMissingPackage(t *testing.T) {
	f := newFixture(t)
	opts := f.options(true)
	opts.PackagePath = filepath.Join(t.TempDir(), "absent.zip")

	status, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, ExitPackageMissing, status.Code)
	assert.Equal(t, "Package file "+opts.PackagePath+" does not exist\n", f.out.String())
	assert.Zero(t, f.unpacked)
	assert.Zero(t, f.sys.relaxCalls)
}

func TestRunStatusLinesKeepPathVerbatim(t *testing.T) {
	f := newFixture(t)
	opts := f.options(true)
	opts.PackagePath = filepath.Join(t.TempDir(), "R&D <beta>", "pkg&copy;1.zip")

	status, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, ExitPackageMissing, status.Code)
	assert.Equal(t, "Package file "+opts.PackagePath+" does not exist\n", f.out.String())
	assert.Contains(t, f.out.String(), "R&D <beta>")
	assert.Contains(t, f.out.String(), "pkg&copy;1.zip")
}

func TestRunPackageMustBeFile(t *testing.T) {
	f := newFixture(t)
	opts := f.options(true)
	opts.PackagePath = f.extractDir

	status, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, ExitPackageMissing, status.Code)
	assert.Zero(t, f.unpacked)
	assert.DirExists(t, f.extractDir)
}

func TestRunEmptyPackagePath(t *testing.T) {
	f := newFixture(t)
	opts := f.options(true)
	opts.PackagePath = ""

	status, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, Status{Code: ExitPackageMissing, Message: "Package file must be specified"}, status)
	assert.Zero(t, f.unpacked)
}

func TestRunStatErrorCountsAsMissing(t *testing.T) {
	f := newFixture(t)
	f.sys.StatFunc = func(string) (os.FileInfo, error) { return nil, os.ErrPermission }

	status, err := Run(context.Background(), f.options(true))
	require.NoError(t, err)
	assert.Equal(t, ExitPackageMissing, status.Code)
	assert.Zero(t, f.unpacked)
}

func TestRunUnpackFailure(t *testing.T) {
	tests := []struct {
		name   string
		result *unpack.Result
		err    error
	}{
		{name: "error", err: errors.New("zip: not a valid zip file")},
		{name: "no result", result: nil, err: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			opts := f.options(true)
			opts.Unpacker = unpackerFunc(func(context.Context, string) (*unpack.Result, error) {
				return tt.result, tt.err
			})
			removed := 0
			f.sys.RemoveFunc = func(string) error { removed++; return nil }
			f.sys.RemoveAllFunc = func(string) error { removed++; return nil }

			status, err := Run(context.Background(), opts)
			require.NoError(t, err)
			assert.Equal(t, ExitUnpackFailed, status.Code)
			assert.Equal(t, "An error occurred while unpacking the file\n", f.out.String())
			assert.Zero(t, f.installed)
			assert.Zero(t, removed)
			assert.FileExists(t, f.archive)
		})
	}
}

func TestRunSuccessCleansUp(t *testing.T) {
	f := newFixture(t)

	status, err := Run(context.Background(), f.options(true))
	require.NoError(t, err)
	assert.Equal(t, Status{Code: ExitInstalled, Message: "Extension successfully installed"}, status)
	assert.Equal(t, "Copied files to install_0001\nExtension successfully installed\n", f.out.String())
	assert.NoDirExists(t, f.extractDir)
	assert.NoFileExists(t, f.archive)
}

func TestRunFailureCleansUp(t *testing.T) {
	f := newFixture(t)

	status, err := Run(context.Background(), f.options(false))
	require.NoError(t, err)
	assert.Equal(t, ExitInstallFailed, status.Code)
	assert.Equal(t, "Copied files to install_0001\nExtension installation failed\n", f.out.String())
	assert.NoDirExists(t, f.extractDir)
	assert.NoFileExists(t, f.archive)
}

func TestRunCleanupFailureKeepsOutcome(t *testing.T) {
	for _, installed := range []bool{true, false} {
		f := newFixture(t)
		f.sys.RemoveAllFunc = func(string) error { return os.ErrPermission }
		f.sys.RemoveFunc = func(string) error { return errors.New("read-only file system") }

		status, err := Run(context.Background(), f.options(installed))
		require.NoError(t, err)
		if installed {
			assert.Equal(t, ExitInstalled, status.Code)
		} else {
			assert.Equal(t, ExitInstallFailed, status.Code)
		}
		assert.DirExists(t, f.extractDir)
		assert.FileExists(t, f.archive)
	}
}

func TestRunSkipsCleanupOfVanishedPaths(t *testing.T) {
	f := newFixture(t)
	opts := f.options(true)
	opts.Installer = installerFunc(func(_ context.Context, dir string) bool {
		require.NoError(t, os.RemoveAll(dir))
		require.NoError(t, os.Remove(f.archive))
		return true
	})
	f.sys.RemoveFunc = func(string) error { t.Error("Remove called for a missing archive"); return nil }
	f.sys.RemoveAllFunc = func(string) error { t.Error("RemoveAll called for a missing directory"); return nil }

	status, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, ExitInstalled, status.Code)
}

func TestRunInstallerPanic(t *testing.T) {
	f := newFixture(t)
	opts := f.options(true)
	opts.Installer = installerFunc(func(context.Context, string) bool {
		panic("database went away")
	})

	status, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, ExitInstallFailed, status.Code)
	assert.Equal(t, "Installer fault: database went away\nExtension installation failed\n", f.out.String())
	assert.NoDirExists(t, f.extractDir)
	assert.NoFileExists(t, f.archive)
}

func TestRunRelaxLimits(t *testing.T) {
	f := newFixture(t)
	opts := f.options(true)
	opts.RelaxLimits = true
	f.sys.RelaxLimitsFunc = func() error { return errors.New("operation not permitted") }

	status, err := Run(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, ExitInstalled, status.Code)
	assert.Equal(t, 1, f.sys.relaxCalls)

	g := newFixture(t)
	_, err = Run(context.Background(), g.options(true))
	require.NoError(t, err)
	assert.Zero(t, g.sys.relaxCalls)
}

func TestRunRequiresCollaborators(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		mutate func(*Options)
		want   string
	}{
		{name: "system", mutate: func(o *Options) { o.System = nil }, want: "install system is required"},
		{name: "unpacker", mutate: func(o *Options) { o.Unpacker = nil }, want: "install unpacker is required"},
		{name: "installer", mutate: func(o *Options) { o.Installer = nil }, want: "install engine is required"},
		{name: "sink", mutate: func(o *Options) { o.Sink = nil }, want: "install message sink is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := f.options(true)
			tt.mutate(&opts)
			_, err := Run(context.Background(), opts)
			require.EqualError(t, err, tt.want)
		})
	}
	assert.Zero(t, f.unpacked)
}

func TestRealSystemRelaxLimits(t *testing.T) {
	require.NoError(t, RealSystem{}.RelaxLimits())
}
