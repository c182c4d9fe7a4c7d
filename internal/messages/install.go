package messages

// Install orchestration messages. The status lines are part of the external
// contract and must not change.
const (
	InstallPackageMissingFmt = "Package file %s does not exist"
	InstallPackageRequired   = "Package file must be specified"
	InstallUnpackFailed      = "An error occurred while unpacking the file"
	InstallSucceeded         = "Extension successfully installed"
	InstallFailed            = "Extension installation failed"
	InstallFaultFmt          = "Installer fault: %v"

	InstallUnpackerRequired  = "install unpacker is required"
	InstallInstallerRequired = "install engine is required"
	InstallSinkRequired      = "install message sink is required"
	InstallSystemRequired    = "install system is required"
	InstallNilResult         = "unpacker returned no result"

	InstallCleanupDirFmt     = "remove extraction directory %s: %w"
	InstallCleanupArchiveFmt = "remove package archive %s: %w"
	InstallStatPackageFmt    = "stat package %s: %w"
)
