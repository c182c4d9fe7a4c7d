package config

import (
	"os"
	"path/filepath"

	"github.com/conn-castle/extinstall/internal/registry"
)

// Paths holds the resolved filesystem locations an install touches.
type Paths struct {
	SiteRoot      string
	ExtensionsDir string
	TempDir       string
	RegistryPath  string
	EngineDir     string
}

// Paths resolves the install locations. Call after Load.
func (c *Config) Paths() Paths {
	extensions := c.Site.ExtensionsPath
	if !filepath.IsAbs(extensions) {
		extensions = filepath.Join(c.Site.Root, extensions)
	}
	tmp := c.Install.TmpPath
	if tmp == "" {
		tmp = os.TempDir()
	}
	engineDir := c.Engine.Dir
	if engineDir == "" {
		engineDir = c.Site.Root
	}
	return Paths{
		SiteRoot:      c.Site.Root,
		ExtensionsDir: extensions,
		TempDir:       tmp,
		RegistryPath:  filepath.Join(c.Site.Root, registry.Dir, registry.FileName),
		EngineDir:     engineDir,
	}
}

// HostSettings returns the configuration store exposed to installer engines.
// Site values take precedence over free-form [settings] entries of the same name.
func (c *Config) HostSettings() map[string]any {
	paths := c.Paths()
	settings := make(map[string]any, len(c.Settings)+5)
	for key, value := range c.Settings {
		settings[key] = value
	}
	settings["site_root"] = paths.SiteRoot
	settings["extensions_path"] = paths.ExtensionsDir
	settings["tmp_path"] = paths.TempDir
	settings["version"] = c.Site.Version
	if c.Site.LiveSite != "" {
		settings["live_site"] = c.Site.LiveSite
	}
	return settings
}
