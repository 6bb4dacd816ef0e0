package main

import (
	"log/slog"

	"github.com/nanobot-dev/nanobridge/internal/auth"
	"github.com/nanobot-dev/nanobridge/internal/bridge"
	"github.com/nanobot-dev/nanobridge/internal/config"
	"github.com/nanobot-dev/nanobridge/internal/peer"
	"github.com/nanobot-dev/nanobridge/internal/tmux"
)

// newDriver assembles a bridge driver for the named session using its
// profile. An empty session name falls back to the configured default.
//
// This consolidates the repeated pattern of:
//
//	cfg := config.Load()
//	p := cfg.Profile(session)
//	d := bridge.NewDriver(bridge.NewMultiplexer(tmux.New()), ...)
func newDriver(cfg *config.Config, session string) (*bridge.Driver, string) {
	if session == "" {
		session = cfg.SessionName()
	}

	profile := cfg.Profile(session)
	detector := bridge.NewDetector(profile.PromptGlyph)
	poller := bridge.NewPoller(profile.PollInterval, profile.PollDebounce)

	driver := bridge.NewDriver(bridge.NewMultiplexer(tmux.New()), detector, poller, profile.ResponseMarker, slog.Default())
	if profile.SendDelay > 0 {
		driver.SendDelay = profile.SendDelay
	}

	if lines := cfg.CaptureLines(); lines > 0 {
		driver.CaptureWindow = lines
	}

	return driver, session
}

// newPeerClient creates a peer client using the configured URL and whatever
// token is stored. A missing token is not an error; the peer may not
// require authentication.
func newPeerClient(cfg *config.Config) (auth.CredentialSource, *peer.Client) {
	source, token := auth.GetToken()
	return source, peer.New(cfg.PeerURL(), token).WithTimeout(cfg.PeerTimeout())
}
