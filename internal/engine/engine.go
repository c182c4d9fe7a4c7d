// Package engine provides the installer engines the orchestrator delegates to.
// Engines narrate exclusively through a host.Context and report a plain
// success or failure.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/conn-castle/extinstall/internal/host"
	"github.com/conn-castle/extinstall/internal/messages"
	"github.com/conn-castle/extinstall/internal/registry"
	"github.com/conn-castle/extinstall/internal/sink"
)

// ErrAlreadyInstalled is reported when the registry already holds the extension.
var ErrAlreadyInstalled = errors.New(messages.EngineAlreadyInstalled)

// Registry is the subset of the registry store the manifest engine needs.
type Registry interface {
	Lookup(kind string, name string) (registry.Record, bool, error)
	Put(rec registry.Record) error
}

// ManifestOptions configures a ManifestEngine.
type ManifestOptions struct {
	Host     host.Context
	Registry Registry
	// SiteRoot anchors relative record paths.
	SiteRoot string
	// ExtensionsDir receives <type>/<name> directories.
	ExtensionsDir string
	// HostVersion is checked against the manifest's host_version constraint.
	HostVersion string
	Logger      zerolog.Logger
	Now         func() time.Time
}

// ManifestEngine installs packages described by an extension.toml manifest by
// copying their files into the site's extensions directory.
type ManifestEngine struct {
	host          host.Context
	registry      Registry
	siteRoot      string
	extensionsDir string
	hostVersion   string
	log           zerolog.Logger
	now           func() time.Time
}

// NewManifestEngine returns a ManifestEngine.
func NewManifestEngine(opts ManifestOptions) *ManifestEngine {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ManifestEngine{
		host:          opts.Host,
		registry:      opts.Registry,
		siteRoot:      opts.SiteRoot,
		extensionsDir: opts.ExtensionsDir,
		hostVersion:   opts.HostVersion,
		log:           opts.Logger,
		now:           now,
	}
}

// Install installs the package unpacked in dir. Every failure is narrated as an
// error message and reported as false.
func (e *ManifestEngine) Install(ctx context.Context, dir string) bool {
	if err := e.install(ctx, dir); err != nil {
		e.log.Debug().Err(err).Str("dir", dir).Msg("manifest install failed")
		return false
	}
	return true
}

func (e *ManifestEngine) install(ctx context.Context, dir string) error {
	e.host.FlushAssets()
	if !e.host.IsClient(host.ClientAdministrator) {
		return e.fail(errors.New(messages.EngineAdminRequired))
	}

	manifestPath, err := FindManifest(dir)
	if err != nil {
		return e.fail(fmt.Errorf(messages.EngineManifestNotFoundFmt, ManifestName, dir))
	}
	m, err := LoadManifest(manifestPath)
	if err != nil {
		return e.fail(err)
	}
	ok, err := m.SupportsHost(e.hostVersion)
	if err != nil {
		return e.fail(err)
	}
	if !ok {
		return e.fail(fmt.Errorf(messages.EngineHostVersionUnmetFmt, m.Name, m.HostVersion, e.hostVersion))
	}

	existing, found, err := e.registry.Lookup(m.Type, m.Name)
	if err != nil {
		return e.fail(fmt.Errorf(messages.EngineRegistryReadFailedFmt, err))
	}
	if found {
		_ = e.fail(fmt.Errorf(messages.EngineAlreadyInstalledFmt, m.Type, m.Name, existing.Version))
		return ErrAlreadyInstalled
	}
	if err := ctx.Err(); err != nil {
		return e.fail(err)
	}

	e.log.Info().Str("name", m.Name).Str("type", m.Type).Str("version", m.Version).Msgf(messages.EngineInstallingFmt, m.Type, m.Name, m.Version)
	dest := filepath.Join(e.extensionsDir, m.Type, m.Name)
	if _, err := os.Lstat(dest); err == nil {
		return e.fail(fmt.Errorf(messages.EngineCopyFailedFmt, dest, os.ErrExist))
	}
	if err := copyTree(filepath.Dir(manifestPath), dest, m.Files); err != nil {
		e.discard(dest, err)
		return e.fail(fmt.Errorf(messages.EngineCopyFailedFmt, dest, err))
	}

	record := registry.Record{
		Name:        m.Name,
		Type:        m.Type,
		Version:     m.Version,
		Title:       m.Title,
		Path:        e.relativeToSite(dest),
		InstalledAt: e.now().UTC(),
	}
	if err := e.registry.Put(record); err != nil {
		e.discard(dest, err)
		return e.fail(fmt.Errorf(messages.EngineRecordFailedFmt, m.Name, err))
	}
	e.log.Info().Str("dest", dest).Msgf(messages.EngineInstalledFmt, m.Name, dest)

	e.narrate(m)
	return nil
}

// narrate passes the package's own messages and redirect to the host.
func (e *ManifestEngine) narrate(m *Manifest) {
	if e.host.AllowCache() {
		e.host.SetHeader("Cache-Control", "public", true)
	} else {
		e.host.SetHeader("Cache-Control", "no-cache", true)
	}
	if m.Description != "" {
		e.host.SetUserState(messages.EngineUserStateMessageKey, m.Description)
		e.host.EnqueueMessage(m.Description, sink.KindMessage)
	}
	if m.PostInstall.Message != "" {
		e.host.SetUserState(messages.EngineUserStateExtMessageKey, m.PostInstall.Message)
		e.host.EnqueueMessage(m.PostInstall.Message, sink.KindNotice)
	}
	if m.PostInstall.Redirect != "" {
		e.host.Redirect(e.absoluteURL(m.PostInstall.Redirect), m.PostInstall.RedirectStatus)
	}
}

func (e *ManifestEngine) fail(err error) error {
	e.host.EnqueueMessage(err.Error(), sink.KindError)
	return err
}

// discard removes a partially installed destination.
func (e *ManifestEngine) discard(dest string, cause error) {
	if err := os.RemoveAll(dest); err != nil {
		e.log.Warn().Err(err).AnErr("cause", cause).Str("dest", dest).Msg("remove partial install")
	}
}

func (e *ManifestEngine) relativeToSite(path string) string {
	if e.siteRoot == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(e.siteRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// absoluteURL resolves a relative redirect against the live_site setting.
func (e *ManifestEngine) absoluteURL(target string) string {
	base, _ := e.host.Config("live_site", "").(string)
	if base == "" {
		return target
	}
	ref, err := url.Parse(target)
	if err != nil || ref.IsAbs() {
		return target
	}
	baseURL, err := url.Parse(strings.TrimSuffix(base, "/") + "/")
	if err != nil {
		return target
	}
	return baseURL.ResolveReference(ref).String()
}
