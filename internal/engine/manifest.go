package engine

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/go-version"
	"github.com/pelletier/go-toml/v2"

	"github.com/conn-castle/extinstall/internal/messages"
)

// ManifestName is the manifest file every package must carry.
const ManifestName = messages.EngineManifestName

// ErrManifestNotFound is returned when a package carries no manifest.
var ErrManifestNotFound = errors.New(messages.EngineManifestNotFound)

// Types lists the extension types the manifest engine installs.
var Types = []string{"component", "module", "plugin", "template", "library", "language", "file", "package"}

var namePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Manifest describes an extension package.
type Manifest struct {
	Name        string      `toml:"name"`
	Type        string      `toml:"type"`
	Version     string      `toml:"version"`
	Title       string      `toml:"title"`
	Description string      `toml:"description"`
	HostVersion string      `toml:"host_version"`
	Files       []string    `toml:"files"`
	PostInstall PostInstall `toml:"post_install"`
}

// PostInstall holds the narration and redirect an extension asks for once installed.
type PostInstall struct {
	Message        string `toml:"message"`
	Redirect       string `toml:"redirect"`
	RedirectStatus int    `toml:"redirect_status"`
}

// FindManifest looks for the manifest in dir and, when dir holds exactly one
// subdirectory and nothing else, inside that subdirectory.
func FindManifest(dir string) (string, error) {
	candidate := filepath.Join(dir, ManifestName)
	if isFile(candidate) {
		return candidate, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	if len(entries) == 1 && entries[0].IsDir() {
		candidate = filepath.Join(dir, entries[0].Name(), ManifestName)
		if isFile(candidate) {
			return candidate, nil
		}
	}
	return "", ErrManifestNotFound
}

// LoadManifest reads and validates the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf(messages.EngineManifestInvalidFmt, path, err)
	}
	var m Manifest
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf(messages.EngineManifestInvalidFmt, path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf(messages.EngineManifestInvalidFmt, path, err)
	}
	return &m, nil
}

// Validate reports every problem with the manifest at once.
func (m *Manifest) Validate() error {
	var result *multierror.Error
	switch {
	case m.Name == "":
		result = multierror.Append(result, errors.New(messages.EngineManifestNameRequired))
	case !namePattern.MatchString(m.Name):
		result = multierror.Append(result, fmt.Errorf(messages.EngineManifestNameInvalidFmt, m.Name))
	}
	if !isKnownType(m.Type) {
		result = multierror.Append(result, fmt.Errorf(messages.EngineManifestTypeInvalidFmt, m.Type))
	}
	if m.Version == "" {
		result = multierror.Append(result, errors.New(messages.EngineManifestVersionRequired))
	} else if _, err := version.NewVersion(m.Version); err != nil {
		result = multierror.Append(result, fmt.Errorf(messages.EngineManifestVersionInvalidFmt, m.Version, err))
	}
	if m.HostVersion != "" {
		if _, err := version.NewConstraint(m.HostVersion); err != nil {
			result = multierror.Append(result, fmt.Errorf(messages.EngineHostVersionInvalidFmt, m.HostVersion, err))
		}
	}
	return result.ErrorOrNil()
}

// SupportsHost reports whether hostVersion satisfies the manifest's host_version constraint.
func (m *Manifest) SupportsHost(hostVersion string) (bool, error) {
	if m.HostVersion == "" {
		return true, nil
	}
	constraint, err := version.NewConstraint(m.HostVersion)
	if err != nil {
		return false, err
	}
	current, err := version.NewVersion(hostVersion)
	if err != nil {
		return false, err
	}
	return constraint.Check(current), nil
}

func isKnownType(kind string) bool {
	for _, t := range Types {
		if t == kind {
			return true
		}
	}
	return false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
