package main

import (
	"context"
	"fmt"
	"io"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/conn-castle/extinstall/internal/config"
	"github.com/conn-castle/extinstall/internal/engine"
	"github.com/conn-castle/extinstall/internal/host"
	"github.com/conn-castle/extinstall/internal/install"
	"github.com/conn-castle/extinstall/internal/logging"
	"github.com/conn-castle/extinstall/internal/messages"
	"github.com/conn-castle/extinstall/internal/registry"
	"github.com/conn-castle/extinstall/internal/sink"
	"github.com/conn-castle/extinstall/internal/unpack"
)

func newInstallCmd(root *rootOptions) *cobra.Command {
	var packageFlag string
	cmd := &cobra.Command{
		Use:   messages.InstallUse,
		Short: messages.InstallShort,
		Long:  messages.InstallLong,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			packagePath, err := resolvePackageArg(args, packageFlag)
			if err != nil {
				return err
			}
			env, err := loadEnvironment(cmd, root)
			if err != nil {
				return err
			}
			status, err := runInstall(cmd.Context(), env, packagePath, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if status.Code != install.ExitInstalled {
				return &SilentExitError{Code: status.Code}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&packageFlag, "package", "", messages.InstallFlagPackage)
	return cmd
}

// resolvePackageArg picks the package path from the positional argument or
// --package. Giving both with different values is an error.
func resolvePackageArg(args []string, flagValue string) (string, error) {
	path := flagValue
	if len(args) == 1 {
		if flagValue != "" && flagValue != args[0] {
			return "", fmt.Errorf(messages.InstallArgsConflictFmt, args[0], flagValue)
		}
		path = args[0]
	}
	if path == "" {
		return "", nil
	}
	return homedir.Expand(path)
}

// runInstall wires the collaborators for one install and runs it.
func runInstall(ctx context.Context, env *environment, packagePath string, stdout io.Writer) (install.Status, error) {
	out := sink.New(stdout, logging.Component(env.log, "sink"))
	adapter := host.New(host.Options{
		Sink:     out,
		State:    host.NewSession(),
		Settings: env.cfg.HostSettings(),
		Logger:   logging.Component(env.log, "host"),
	})
	unpacker := unpack.New(unpack.Options{
		TempDir:       env.paths.TempDir,
		MaxFiles:      env.cfg.Install.MaxFiles,
		MaxFileBytes:  env.cfg.Install.MaxFileBytes,
		MaxTotalBytes: env.cfg.Install.MaxTotalBytes,
		Logger:        logging.Component(env.log, "unpack"),
	})
	return install.Run(ctx, install.Options{
		PackagePath: packagePath,
		RelaxLimits: env.cfg.Install.RelaxLimits,
		System:      install.RealSystem{},
		Unpacker:    unpacker,
		Installer:   newInstaller(env, adapter),
		Sink:        out,
		Logger:      logging.Component(env.log, "install"),
	})
}

// newInstaller builds the installer engine selected by [engine] kind.
func newInstaller(env *environment, h host.Context) install.Installer {
	logger := logging.Component(env.log, "engine")
	if env.cfg.Engine.Kind == config.EngineCommand {
		return engine.NewCommandEngine(engine.CommandOptions{
			Host:   h,
			Argv:   env.cfg.Engine.Command,
			Dir:    env.paths.EngineDir,
			Env:    []string{config.EnvSiteRoot + "=" + env.paths.SiteRoot},
			TTY:    env.cfg.Engine.TTY,
			Logger: logger,
		})
	}
	return engine.NewManifestEngine(engine.ManifestOptions{
		Host:          h,
		Registry:      registry.New(env.paths.RegistryPath),
		SiteRoot:      env.paths.SiteRoot,
		ExtensionsDir: env.paths.ExtensionsDir,
		HostVersion:   env.cfg.Site.Version,
		Logger:        logger,
	})
}
