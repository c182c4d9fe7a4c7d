package config

import "github.com/conn-castle/extinstall/internal/unpack"

// File and environment names.
const (
	FileName    = "extinstall.toml"
	EnvConfig   = "EXTINSTALL_CONFIG"
	EnvSiteRoot = "EXTINSTALL_SITE_ROOT"
	EnvTmpPath  = "EXTINSTALL_TMP_PATH"
	EnvLogLevel = "EXTINSTALL_LOG_LEVEL"
)

// Engine kinds.
const (
	EngineManifest = "manifest"
	EngineCommand  = "command"
)

// Defaults applied before the config file is decoded.
const (
	DefaultExtensionsPath = "extensions"
	DefaultSiteVersion    = "0.0.0"
)

// Default returns the configuration used when no file sets a value.
func Default() Config {
	return Config{
		Site: SiteConfig{
			ExtensionsPath: DefaultExtensionsPath,
			Version:        DefaultSiteVersion,
		},
		Install: InstallConfig{
			RelaxLimits:   true,
			MaxFiles:      unpack.DefaultMaxFiles,
			MaxFileBytes:  unpack.DefaultMaxFileBytes,
			MaxTotalBytes: unpack.DefaultMaxTotalBytes,
		},
		Engine: EngineConfig{
			Kind: EngineManifest,
		},
	}
}
