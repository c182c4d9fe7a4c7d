package messages

// System messages for the host adapter, unpacker, engines and registry.
const (
	// HostRedirectFmt is printed instead of performing a redirect.
	HostRedirectFmt = "Redirect with HTTP %d attempted to %s"

	UnpackArchiveRequired      = "archive path is required"
	UnpackUnsupportedFormatFmt = "unsupported archive format for %s"
	UnpackOpenFmt              = "open archive %s: %w"
	UnpackReadFmt              = "read archive %s: %w"
	UnpackCreateDirFmt         = "create extraction directory: %w"
	UnpackUnsafePathFmt        = "archive entry %q escapes the extraction directory"
	UnpackUnsafeLinkFmt        = "archive link %q points outside the extraction directory"
	UnpackLinkedParentFmt      = "archive entry %q is placed through a symbolic link"
	UnpackTooManyFilesFmt      = "archive has more than %d entries"
	UnpackFileTooLargeFmt      = "archive entry %q exceeds %d bytes"
	UnpackTotalTooLargeFmt     = "archive expands beyond %d bytes"
	UnpackWriteEntryFmt        = "extract %s: %w"
	UnpackEmptyArchiveFmt      = "archive %s contains no files"

	EngineManifestName              = "extension.toml"
	EngineManifestNotFound          = "installation manifest not found"
	EngineManifestNotFoundFmt       = "No installation manifest (%s) found in %s"
	EngineManifestInvalidFmt        = "invalid manifest %s: %w"
	EngineManifestNameRequired      = "manifest name is required"
	EngineManifestNameInvalidFmt    = "manifest name %q may only contain letters, digits, dot, dash and underscore"
	EngineManifestTypeInvalidFmt    = "manifest type %q is not supported"
	EngineManifestVersionRequired   = "manifest version is required"
	EngineManifestVersionInvalidFmt = "manifest version %q: %v"
	EngineHostVersionInvalidFmt     = "manifest host_version %q: %v"
	EngineHostVersionUnmetFmt       = "Extension %s requires host version %s (site is %s)"
	EngineAdminRequired             = "Extensions can only be installed from the administrator client"
	EngineAlreadyInstalled          = "extension already installed"
	EngineAlreadyInstalledFmt       = "Extension %s %s is already installed (version %s)"
	EngineInstallingFmt             = "Installing %s %s version %s"
	EngineFileOutsidePackageFmt     = "file %q is outside the package"
	EngineCopyFailedFmt             = "Could not copy files to %s: %v"
	EngineRecordFailedFmt           = "Could not record the installation of %s: %v"
	EngineRegistryReadFailedFmt     = "Could not read the extension registry: %v"
	EngineInstalledFmt              = "Installed %s into %s"
	EngineCommandStartFailedFmt     = "Could not start installer command %s: %v"
	EngineCommandFailedFmt          = "Installer command exited with status %d"
	EngineCommandEmpty              = "installer command is empty"
	EngineUserStateMessageKey       = "com_installer.message"
	EngineUserStateExtMessageKey    = "com_installer.extension_message"

	RegistryOpenLockFmt    = "open lock %s: %w"
	RegistryLockFmt        = "lock %s: %w"
	RegistryLockTimeoutFmt = "timed out waiting for lock after %s"
	RegistryReadFmt        = "read registry %s: %w"
	RegistryDecodeFmt      = "decode registry %s: %w"
	RegistryEncodeFmt      = "encode registry: %w"
	RegistryWriteFmt       = "write registry %s: %w"
	RegistryCreateDirFmt   = "create registry directory %s: %w"

	FsutilCreateTempFmt = "create temp file for %s: %w"
	FsutilWriteTempFmt  = "write temp file for %s: %w"
	FsutilSyncTempFmt   = "sync temp file for %s: %w"
	FsutilCloseTempFmt  = "close temp file for %s: %w"
	FsutilChmodTempFmt  = "chmod temp file for %s: %w"
	FsutilRenameFmt     = "rename temp file to %s: %w"
)
