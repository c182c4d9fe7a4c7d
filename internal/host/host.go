// Package host presents a headless process to installer engines as if it were
// the interactive administration application they were written for. Every
// browser-only side effect is absorbed here so the orchestrator stays free of
// web-context branching.
package host

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/conn-castle/extinstall/internal/messages"
	"github.com/conn-castle/extinstall/internal/sink"
)

// Client identity reported to installer engines.
const (
	ClientAdministrator   = "administrator"
	ClientAdministratorID = 1
)

// DefaultRedirectStatus is used when a redirect is requested without a status.
const DefaultRedirectStatus = 303

// Context is the capability surface installer engines may call while installing.
type Context interface {
	EnqueueMessage(msg string, kind sink.Kind)
	Redirect(url string, status int)
	AllowCache() bool
	FlushAssets() bool
	Template() string
	SetHeader(name string, value string, replace bool) Context
	ClientID() int
	IsClient(identifier string) bool
	SetUserState(key string, value any) any
	Config(name string, def any) any
}

// Options configures an Adapter.
type Options struct {
	// Sink receives every message and redirect notice. Required.
	Sink sink.Emitter
	// State backs SetUserState. Nil makes SetUserState a no-op.
	State UserState
	// Settings is the configuration store exposed through Config.
	Settings map[string]any
	Logger   zerolog.Logger
}

// Adapter implements Context for a headless install.
type Adapter struct {
	sink     sink.Emitter
	state    UserState
	settings map[string]any
	log      zerolog.Logger
}

var _ Context = (*Adapter)(nil)

// New returns an Adapter. The settings map is copied.
func New(opts Options) *Adapter {
	settings := make(map[string]any, len(opts.Settings))
	for key, value := range opts.Settings {
		settings[key] = value
	}
	return &Adapter{
		sink:     opts.Sink,
		state:    opts.State,
		settings: settings,
		log:      opts.Logger,
	}
}

// EnqueueMessage forwards msg to the sink, which strips markup.
func (a *Adapter) EnqueueMessage(msg string, kind sink.Kind) {
	if kind == "" {
		kind = sink.KindMessage
	}
	a.sink.Capture(sink.Message{Text: msg, Kind: kind})
}

// Redirect reports the attempted redirect instead of performing it.
func (a *Adapter) Redirect(url string, status int) {
	if status == 0 {
		status = DefaultRedirectStatus
	}
	a.log.Debug().Str("url", url).Int("status", status).Msg("redirect suppressed")
	a.sink.Line(fmt.Sprintf(messages.HostRedirectFmt, status, url))
}

// AllowCache always reports false: there is no response cache without a browser.
func (a *Adapter) AllowCache() bool {
	return false
}

// FlushAssets is a no-op that reports success.
func (a *Adapter) FlushAssets() bool {
	return true
}

// Template returns no template content.
func (a *Adapter) Template() string {
	return ""
}

// SetHeader discards the header and returns the adapter for chaining.
func (a *Adapter) SetHeader(name string, value string, replace bool) Context {
	a.log.Trace().Str("header", name).Str("value", value).Bool("replace", replace).Msg("header discarded")
	return a
}

// ClientID reports the administrator client.
func (a *Adapter) ClientID() int {
	return ClientAdministratorID
}

// IsClient reports whether identifier names the administrator client.
func (a *Adapter) IsClient(identifier string) bool {
	return identifier == ClientAdministrator
}

// SetUserState stores value under key in the session registry and returns the
// previous value. Without a registry it does nothing and returns nil.
func (a *Adapter) SetUserState(key string, value any) any {
	if a.state == nil {
		return nil
	}
	return a.state.SetValue(key, value)
}

// Config reads name from the configuration store, returning def when unset.
func (a *Adapter) Config(name string, def any) any {
	if value, ok := a.settings[name]; ok {
		return value
	}
	return def
}
