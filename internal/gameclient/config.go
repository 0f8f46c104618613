package gameclient

import (
	"flag"
	"fmt"
	"time"
)

// Defaults. RetransmitInterval and RetryCap follow spec.md §4.8; the
// handshake retry budget is carried forward from
// original_source/headless_client.py::connect (SPEC_FULL.md §9).
const (
	DefaultRetransmitInterval = 50 * time.Millisecond
	DefaultRetryCap           = 10
	DefaultHandshakeRetries   = 10
	DefaultHandshakeTimeout   = 500 * time.Millisecond
	DefaultSmoothingWindow    = 120 * time.Millisecond
)

// Config is a validated client configuration.
type Config struct {
	ServerAddr string
	Name       string

	RetransmitInterval time.Duration
	RetryCap           int

	HandshakeRetries int
	HandshakeTimeout time.Duration

	// SmoothingWindow is an advisory UI-interpolation hint only (spec.md §9:
	// "UI smoothing is a non-concern" for this repository); it has no
	// effect on reconciliation or retransmission semantics.
	SmoothingWindow time.Duration
}

// Validate enforces the external-interface ranges and carried-forward
// connection-retry budget from SPEC_FULL.md §9.
func (c *Config) Validate() error {
	if c.ServerAddr == "" {
		return fmt.Errorf("gameclient: server address is required")
	}
	if c.Name == "" {
		return fmt.Errorf("gameclient: player name is required")
	}
	if c.RetransmitInterval <= 0 {
		return fmt.Errorf("gameclient: retransmit interval must be positive")
	}
	if c.RetryCap < 1 {
		return fmt.Errorf("gameclient: retry cap must be positive")
	}
	if c.HandshakeRetries < 1 {
		return fmt.Errorf("gameclient: handshake retries must be positive")
	}
	if c.HandshakeTimeout <= 0 {
		return fmt.Errorf("gameclient: handshake timeout must be positive")
	}
	return nil
}

// Flags mirrors gameserver.Flags: *string/*int/*duration pointers
// populated by flag.Parse, resolved afterward into a validated Config.
type Flags struct {
	ServerAddr         *string
	Name               *string
	RetransmitInterval *time.Duration
	RetryCap           *int
	HandshakeRetries   *int
	HandshakeTimeout   *time.Duration
	SmoothingWindow    *time.Duration
}

// RegisterFlags registers the client's flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		ServerAddr:         fs.String("server", "127.0.0.1:9910", "server UDP address"),
		Name:               fs.String("name", "player", "display name sent in INIT"),
		RetransmitInterval: fs.Duration("retransmit-interval", DefaultRetransmitInterval, "unresolved EVENT resend interval"),
		RetryCap:           fs.Int("retry-cap", DefaultRetryCap, "max EVENT retransmissions before giving up"),
		HandshakeRetries:   fs.Int("handshake-retries", DefaultHandshakeRetries, "max INIT attempts before giving up"),
		HandshakeTimeout:   fs.Duration("handshake-timeout", DefaultHandshakeTimeout, "base INIT_ACK wait per attempt"),
		SmoothingWindow:    fs.Duration("smoothing-window", DefaultSmoothingWindow, "advisory UI interpolation window"),
	}
}

// Resolve turns parsed Flags into a validated Config.
func (f *Flags) Resolve() (*Config, error) {
	cfg := &Config{
		ServerAddr:         *f.ServerAddr,
		Name:               *f.Name,
		RetransmitInterval: *f.RetransmitInterval,
		RetryCap:           *f.RetryCap,
		HandshakeRetries:   *f.HandshakeRetries,
		HandshakeTimeout:   *f.HandshakeTimeout,
		SmoothingWindow:    *f.SmoothingWindow,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
