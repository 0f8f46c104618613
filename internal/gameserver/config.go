package gameserver

import (
	"flag"
	"fmt"
	"time"
)

// Defaults from spec.md §6.
const (
	DefaultGridSize       = 5
	DefaultSnapshotRateHz = 20
	DefaultRedundancy     = 2
	DefaultMaxClients     = 4
)

// Config is the validated, immutable configuration a Server runs with.
// It is populated either directly (tests) or via Flags.Resolve (cmd/chronoclash-server).
type Config struct {
	ListenAddr     string
	GridSize       int
	SnapshotRateHz int
	Redundancy     int
	MaxClients     int

	// AckResend enables the off-by-default per-session resend of un-acked
	// older snapshots beyond the K embedded in every datagram (spec.md §9
	// Open Question, resolved in SPEC_FULL.md §4.5: disabled by default).
	AckResend bool
}

// Validate enforces the external-interface ranges from spec.md §6.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("gameserver: listen address is required")
	}
	if c.GridSize < 2 || c.GridSize > 20 {
		return fmt.Errorf("gameserver: grid size %d out of range [2, 20]", c.GridSize)
	}
	if c.SnapshotRateHz < 1 || c.SnapshotRateHz > 60 {
		return fmt.Errorf("gameserver: snapshot rate %d Hz out of range [1, 60]", c.SnapshotRateHz)
	}
	if c.Redundancy < 1 || c.Redundancy > 5 {
		return fmt.Errorf("gameserver: redundancy K=%d out of range [1, 5]", c.Redundancy)
	}
	if c.MaxClients < 1 {
		return fmt.Errorf("gameserver: max clients must be positive, got %d", c.MaxClients)
	}
	return nil
}

// TickInterval derives the tick-loop period from SnapshotRateHz.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.SnapshotRateHz)
}

// Flags holds the *string/*int pointers flag.Parse writes into, following
// vctt94-pokerbisonrelay's RegisterClientFlags/LoadClientConfig split of
// "register flags" from "resolve into a validated Config."
type Flags struct {
	ListenAddr     *string
	GridSize       *int
	SnapshotRateHz *int
	Redundancy     *int
	MaxClients     *int
	AckResend      *bool
}

// RegisterFlags registers the server's flags on fs and returns the
// pointers they populate.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		ListenAddr:     fs.String("listen", ":9910", "UDP address to listen on"),
		GridSize:       fs.Int("grid-size", DefaultGridSize, "grid dimension N (2-20)"),
		SnapshotRateHz: fs.Int("snapshot-rate", DefaultSnapshotRateHz, "snapshot tick rate in Hz (1-60)"),
		Redundancy:     fs.Int("redundancy", DefaultRedundancy, "embedded snapshot history K (1-5)"),
		MaxClients:     fs.Int("max-clients", DefaultMaxClients, "maximum concurrent sessions"),
		AckResend:      fs.Bool("ack-resend", false, "enable per-session resend of un-acked snapshots beyond K"),
	}
}

// Resolve turns parsed Flags into a validated Config.
func (f *Flags) Resolve() (*Config, error) {
	cfg := &Config{
		ListenAddr:     *f.ListenAddr,
		GridSize:       *f.GridSize,
		SnapshotRateHz: *f.SnapshotRateHz,
		Redundancy:     *f.Redundancy,
		MaxClients:     *f.MaxClients,
		AckResend:      *f.AckResend,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
