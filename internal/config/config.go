// Package config loads the optional extinstall.toml file that describes the
// target site and how packages are installed into it.
package config

// Config is the full extinstall configuration.
type Config struct {
	Site     SiteConfig        `toml:"site"`
	Install  InstallConfig     `toml:"install"`
	Engine   EngineConfig      `toml:"engine"`
	Log      LogConfig         `toml:"log"`
	Settings map[string]string `toml:"settings"`
}

// SiteConfig describes the site extensions are installed into.
type SiteConfig struct {
	Root string `toml:"root"`
	// ExtensionsPath is relative to Root unless absolute.
	ExtensionsPath string `toml:"extensions_path"`
	// LiveSite is the base URL relative redirects are resolved against.
	LiveSite string `toml:"live_site"`
	Version  string `toml:"version"`
}

// InstallConfig controls unpacking.
type InstallConfig struct {
	TmpPath string `toml:"tmp_path"`
	// RelaxLimits lifts the CPU time limit before unpacking. False models a
	// restricted host where limits must stay in place.
	RelaxLimits   bool  `toml:"relax_limits"`
	MaxFiles      int   `toml:"max_files"`
	MaxFileBytes  int64 `toml:"max_file_bytes"`
	MaxTotalBytes int64 `toml:"max_total_bytes"`
}

// EngineConfig selects the installer engine.
type EngineConfig struct {
	Kind    string   `toml:"kind"`
	Command []string `toml:"command"`
	TTY     bool     `toml:"tty"`
	Dir     string   `toml:"dir"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `toml:"level"`
}
