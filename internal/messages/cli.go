package messages

// CLI messages for user-facing commands and flags.
const (
	// RootUse is the CLI command name.
	RootUse = "extinstall"
	// RootShort is the short description for the root command.
	RootShort         = "Install packaged extensions without the web administration UI"
	RootFlagConfig    = "Path to the extinstall.toml configuration file"
	RootFlagLogLevel  = "Diagnostic log level on stderr (debug, info, warn, error, disabled)"
	RootVersionFlag   = "Print version and exit"
	VersionCommitFmt  = "commit %s"
	VersionBuildFmt   = "built %s"
	VersionFullFmt    = "%s (%s)"
	VersionTemplate   = "{{.Version}}\n"
	ExitCodeFmt       = "exit %d"
	UnexpectedErrFmt  = "extinstall: %v"
	LoggerSetupErrFmt = "configure logging: %w"

	// InstallUse is the install command usage.
	InstallUse             = "install [package]"
	InstallShort           = "Install an extension package archive"
	InstallLong            = "Unpacks the package archive, runs the installer engine against it and removes the\ntemporary files afterwards. Exit codes: 0 installed, 1 package file missing,\n3 unpack failed, 250 installer failed."
	InstallFlagPackage     = "Path to the package archive (equivalent to the positional argument)"
	InstallArgsConflictFmt = "package given twice with different values: %q and %q"

	// ListUse is the list command name.
	ListUse     = "list"
	ListShort   = "List extensions recorded as installed"
	ListEmpty   = "No extensions installed"
	ListLineFmt = "%s\t%s\t%s\n"
)
