// Package install orchestrates a single headless extension install: it checks
// the package, unpacks it, hands the extraction directory to an installer
// engine, reclaims temporary storage and maps the outcome to an exit status.
package install

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"

	"github.com/conn-castle/extinstall/internal/messages"
	"github.com/conn-castle/extinstall/internal/sink"
	"github.com/conn-castle/extinstall/internal/unpack"
)

// Exit codes reported to the invoking shell. The values are a fixed contract.
const (
	ExitInstalled      = 0
	ExitPackageMissing = 1
	ExitUnpackFailed   = 3
	ExitInstallFailed  = 250
)

// Status is the terminal outcome of Run.
type Status struct {
	Code    int
	Message string
}

// Unpacker extracts a package archive into a temporary directory.
type Unpacker interface {
	Unpack(ctx context.Context, archivePath string) (*unpack.Result, error)
}

// Installer installs an extracted package and reports success.
type Installer interface {
	Install(ctx context.Context, dir string) bool
}

// Options wires the collaborators of one install.
type Options struct {
	PackagePath string
	// RelaxLimits lifts the process CPU time limit before unpacking. Failure is ignored.
	RelaxLimits bool
	System      System
	Unpacker    Unpacker
	Installer   Installer
	Sink        sink.Emitter
	Logger      zerolog.Logger
}

type orchestrator struct {
	sys       System
	unpacker  Unpacker
	installer Installer
	sink      sink.Emitter
	log       zerolog.Logger
}

// Run performs the install described by opts. Expected failures are reported
// through the returned Status and the sink; an error is returned only when opts
// is incomplete.
func Run(ctx context.Context, opts Options) (Status, error) {
	if err := validateOptions(opts); err != nil {
		return Status{}, err
	}
	o := &orchestrator{
		sys:       opts.System,
		unpacker:  opts.Unpacker,
		installer: opts.Installer,
		sink:      opts.Sink,
		log:       opts.Logger,
	}
	return o.run(ctx, opts.PackagePath, opts.RelaxLimits), nil
}

func validateOptions(opts Options) error {
	switch {
	case opts.System == nil:
		return errors.New(messages.InstallSystemRequired)
	case opts.Unpacker == nil:
		return errors.New(messages.InstallUnpackerRequired)
	case opts.Installer == nil:
		return errors.New(messages.InstallInstallerRequired)
	case opts.Sink == nil:
		return errors.New(messages.InstallSinkRequired)
	}
	return nil
}

func (o *orchestrator) run(ctx context.Context, packagePath string, relax bool) Status {
	if packagePath == "" {
		return o.finish(ExitPackageMissing, messages.InstallPackageRequired)
	}
	if !o.packageExists(packagePath) {
		return o.finish(ExitPackageMissing, fmt.Sprintf(messages.InstallPackageMissingFmt, packagePath))
	}

	if relax {
		if err := o.sys.RelaxLimits(); err != nil {
			o.log.Debug().Err(err).Msg("execution time limit left in place")
		}
	}

	result, err := o.unpacker.Unpack(ctx, packagePath)
	if err == nil && result == nil {
		err = errors.New(messages.InstallNilResult)
	}
	if err != nil {
		o.log.Warn().Err(err).Str("package", packagePath).Msg("unpack failed")
		return o.finish(ExitUnpackFailed, messages.InstallUnpackFailed)
	}
	o.log.Debug().Str("dir", result.ExtractDir).Msg("package unpacked")

	installed := o.install(ctx, result.ExtractDir)

	if err := o.cleanup(result); err != nil {
		o.log.Warn().Err(err).Msg("cleanup incomplete")
	}

	if installed {
		return o.finish(ExitInstalled, messages.InstallSucceeded)
	}
	return o.finish(ExitInstallFailed, messages.InstallFailed)
}

// packageExists reports whether path names something other than a directory.
func (o *orchestrator) packageExists(path string) bool {
	info, err := o.sys.Stat(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			o.log.Debug().Err(fmt.Errorf(messages.InstallStatPackageFmt, path, err)).Msg("package check failed")
		}
		return false
	}
	return !info.IsDir()
}

// install calls the installer engine, converting a panic into a failed outcome.
func (o *orchestrator) install(ctx context.Context, dir string) (installed bool) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Interface("panic", r).Msg("installer engine panicked")
			o.sink.Capture(sink.Message{Text: fmt.Sprintf(messages.InstallFaultFmt, r), Kind: sink.KindError})
			installed = false
		}
	}()
	return o.installer.Install(ctx, dir)
}

// cleanup removes the extraction directory and the package archive when they
// still exist. Every failure is collected; none stops the other removal.
func (o *orchestrator) cleanup(result *unpack.Result) error {
	var errs *multierror.Error
	if result.ExtractDir != "" && o.exists(result.ExtractDir) {
		if err := o.sys.RemoveAll(result.ExtractDir); err != nil {
			errs = multierror.Append(errs, fmt.Errorf(messages.InstallCleanupDirFmt, result.ExtractDir, err))
		}
	}
	if result.ArchiveFile != "" && o.exists(result.ArchiveFile) {
		if err := o.sys.Remove(result.ArchiveFile); err != nil {
			errs = multierror.Append(errs, fmt.Errorf(messages.InstallCleanupArchiveFmt, result.ArchiveFile, err))
		}
	}
	return errs.ErrorOrNil()
}

func (o *orchestrator) exists(path string) bool {
	_, err := o.sys.Stat(path)
	return err == nil
}

func (o *orchestrator) finish(code int, message string) Status {
	o.sink.Line(message)
	return Status{Code: code, Message: message}
}
