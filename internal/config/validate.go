package config

import (
	"fmt"
	"net/url"

	"github.com/hashicorp/go-version"

	"github.com/conn-castle/extinstall/internal/logging"
	"github.com/conn-castle/extinstall/internal/messages"
)

// Validate ensures the config is complete and consistent.
func (c *Config) Validate(source string) error {
	if c.Site.Root == "" {
		return fmt.Errorf(messages.ConfigSiteRootRequiredFmt, source)
	}
	if _, err := version.NewVersion(c.Site.Version); err != nil {
		return fmt.Errorf(messages.ConfigSiteVersionInvalidFmt, source, c.Site.Version, err)
	}
	if c.Site.LiveSite != "" {
		u, err := url.Parse(c.Site.LiveSite)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return fmt.Errorf(messages.ConfigLiveSiteInvalidFmt, source, c.Site.LiveSite)
		}
	}

	if c.Install.MaxFiles <= 0 {
		return fmt.Errorf(messages.ConfigLimitInvalidFmt, source, "max_files")
	}
	if c.Install.MaxFileBytes <= 0 {
		return fmt.Errorf(messages.ConfigLimitInvalidFmt, source, "max_file_bytes")
	}
	if c.Install.MaxTotalBytes <= 0 {
		return fmt.Errorf(messages.ConfigLimitInvalidFmt, source, "max_total_bytes")
	}

	switch c.Engine.Kind {
	case EngineManifest:
	case EngineCommand:
		if len(c.Engine.Command) == 0 || c.Engine.Command[0] == "" {
			return fmt.Errorf(messages.ConfigEngineCommandRequiredFmt, source)
		}
	default:
		return fmt.Errorf(messages.ConfigEngineKindInvalidFmt, source, c.Engine.Kind)
	}

	if c.Log.Level != "" {
		if _, err := logging.ParseLevel(c.Log.Level); err != nil {
			return fmt.Errorf(messages.ConfigLogLevelInvalidFmt, source, c.Log.Level)
		}
	}
	return nil
}
