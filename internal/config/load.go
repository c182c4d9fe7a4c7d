package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/extinstall/internal/messages"
)

// ErrConfigValidation is a sentinel that wraps config validation failures
// (as opposed to TOML syntax, filesystem, or other loading errors).
var ErrConfigValidation = errors.New("config validation failed")

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// Path is an explicit config file. It must exist when set.
	Path string
	// Cwd anchors relative paths and the ./extinstall.toml lookup. Defaults to the working directory.
	Cwd string
	// LookupEnv reads environment overrides. Defaults to os.LookupEnv.
	LookupEnv func(key string) (string, bool)
}

// Load resolves, parses and validates the configuration. The file is taken from
// opts.Path, then EXTINSTALL_CONFIG, then ./extinstall.toml; without any file
// the defaults apply. Environment overrides are applied last.
func Load(opts LoadOptions) (*Config, string, error) {
	lookup := opts.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	cwd := opts.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", fmt.Errorf(messages.ConfigResolveCwdFmt, err)
		}
		cwd = wd
	}

	path, required := opts.Path, opts.Path != ""
	if !required {
		if value, ok := lookup(EnvConfig); ok && value != "" {
			path, required = value, true
		} else if candidate := filepath.Join(cwd, FileName); isFile(candidate) {
			path = candidate
		}
	}

	cfg := Default()
	source := messages.ConfigDefaultsSource
	if path != "" {
		expanded, err := expandPath(path, cwd)
		if err != nil {
			return nil, "", fmt.Errorf(messages.ConfigExpandPathFmt, EnvConfig, path, err)
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			if required || !errors.Is(err, os.ErrNotExist) {
				return nil, "", fmt.Errorf(messages.ConfigMissingFileFmt, expanded, err)
			}
		} else {
			parsed, err := Parse(data, expanded)
			if err != nil {
				return nil, "", err
			}
			cfg = *parsed
			source = expanded
		}
	}

	applyEnv(&cfg, lookup)
	if err := cfg.resolvePaths(source, cwd); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(source); err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrConfigValidation, err)
	}
	return &cfg, source, nil
}

// Parse decodes config TOML data over the defaults. Unknown keys are rejected.
// source is used in error messages. Paths are left unresolved.
func Parse(data []byte, source string) (*Config, error) {
	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf(messages.ConfigInvalidConfigFmt, source, err)
	}
	if err := decodeStrict(data); err != nil {
		return nil, fmt.Errorf("%w: "+messages.ConfigUnrecognizedKeysFmt, ErrConfigValidation, source, err)
	}
	return &cfg, nil
}

// decodeStrict re-decodes the TOML data with strict unknown-field rejection.
func decodeStrict(data []byte) error {
	var cfg Config
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	return decoder.Decode(&cfg)
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if value, ok := lookup(EnvSiteRoot); ok && value != "" {
		cfg.Site.Root = value
	}
	if value, ok := lookup(EnvTmpPath); ok && value != "" {
		cfg.Install.TmpPath = value
	}
	if value, ok := lookup(EnvLogLevel); ok && value != "" {
		cfg.Log.Level = value
	}
}

// resolvePaths expands ~ and anchors relative paths at cwd.
func (c *Config) resolvePaths(source string, cwd string) error {
	if c.Site.Root == "" {
		c.Site.Root = cwd
	}
	fields := []struct {
		name  string
		value *string
	}{
		{"site.root", &c.Site.Root},
		{"install.tmp_path", &c.Install.TmpPath},
		{"engine.dir", &c.Engine.Dir},
	}
	for _, field := range fields {
		if *field.value == "" {
			continue
		}
		expanded, err := expandPath(*field.value, cwd)
		if err != nil {
			return fmt.Errorf(messages.ConfigExpandPathFmt, source, field.name, err)
		}
		*field.value = expanded
	}
	if c.Site.ExtensionsPath != "" {
		expanded, err := homedir.Expand(c.Site.ExtensionsPath)
		if err != nil {
			return fmt.Errorf(messages.ConfigExpandPathFmt, source, "site.extensions_path", err)
		}
		c.Site.ExtensionsPath = expanded
	}
	return nil
}

func expandPath(path string, cwd string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) {
		expanded = filepath.Join(cwd, expanded)
	}
	return filepath.Clean(expanded), nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
