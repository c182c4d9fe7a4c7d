package messages

// Config messages for configuration loading and validation.
const (
	// ConfigMissingFileFmt formats missing config file errors.
	ConfigMissingFileFmt      = "missing config file %s: %w"
	ConfigInvalidConfigFmt    = "invalid config %s: %w"
	ConfigUnrecognizedKeysFmt = "%s: unrecognized config keys: %w"
	ConfigExpandPathFmt       = "%s: expand %s: %w"
	ConfigResolveCwdFmt       = "resolve working directory: %w"
	ConfigDefaultsSource      = "built-in defaults"

	ConfigSiteRootRequiredFmt      = "%s: site.root is required"
	ConfigSiteVersionInvalidFmt    = "%s: site.version %q is not a valid version: %v"
	ConfigEngineKindInvalidFmt     = "%s: engine.kind must be manifest or command (got %q)"
	ConfigEngineCommandRequiredFmt = "%s: engine.command is required when engine.kind is command"
	ConfigLimitInvalidFmt          = "%s: install.%s must be greater than zero"
	ConfigLogLevelInvalidFmt       = "%s: log.level %q is not a valid level"
	ConfigLiveSiteInvalidFmt       = "%s: site.live_site %q is not an absolute URL"
)
