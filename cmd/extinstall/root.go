package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/conn-castle/extinstall/internal/config"
	"github.com/conn-castle/extinstall/internal/logging"
	"github.com/conn-castle/extinstall/internal/messages"
	"github.com/conn-castle/extinstall/internal/terminal"
)

var (
	getwd     = os.Getwd
	lookupEnv = os.LookupEnv
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           messages.RootUse,
		Short:         messages.RootShort,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", messages.RootFlagConfig)
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", messages.RootFlagLogLevel)
	cmd.Flags().Bool("version", false, messages.RootVersionFlag)

	cmd.AddCommand(newInstallCmd(opts), newListCmd(opts))
	return cmd
}

// environment is the loaded configuration plus the diagnostic logger for one command.
type environment struct {
	cfg   *config.Config
	paths config.Paths
	log   zerolog.Logger
}

// loadEnvironment resolves configuration and builds the stderr logger.
// The --log-level flag overrides EXTINSTALL_LOG_LEVEL, which overrides [log] level.
func loadEnvironment(cmd *cobra.Command, opts *rootOptions) (*environment, error) {
	cwd, err := getwd()
	if err != nil {
		return nil, fmt.Errorf(messages.ConfigResolveCwdFmt, err)
	}
	cfg, source, err := config.Load(config.LoadOptions{
		Path:      opts.configPath,
		Cwd:       cwd,
		LookupEnv: lookupEnv,
	})
	if err != nil {
		return nil, err
	}

	level := opts.logLevel
	if level == "" {
		level = cfg.Log.Level
	}
	stderr := cmd.ErrOrStderr()
	logger, err := logging.New(stderr, level, terminal.IsTerminal(stderr))
	if err != nil {
		return nil, fmt.Errorf(messages.LoggerSetupErrFmt, err)
	}
	logger.Debug().Str("config", source).Str("site", cfg.Site.Root).Str("engine", cfg.Engine.Kind).Msg("configuration loaded")

	return &environment{
		cfg:   cfg,
		paths: cfg.Paths(),
		log:   logger,
	}, nil
}
