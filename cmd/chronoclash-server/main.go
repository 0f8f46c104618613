// Command chronoclash-server runs an authoritative ChronoClash match: it
// listens for UDP clients, arbitrates claim events once per tick, and
// broadcasts snapshots until the grid is full.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/decred/slog"
	"github.com/rs/xid"

	"github.com/esraa1000/chronoclash/internal/gameserver"
	"github.com/esraa1000/chronoclash/internal/metrics"
)

func main() {
	fs := flag.NewFlagSet("chronoclash-server", flag.ExitOnError)
	flags := gameserver.RegisterFlags(fs)
	debugLevel := fs.String("debuglevel", "info", "logging level: trace, debug, info, warn, error, critical, off")
	metricsAddr := fs.String("metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. 127.0.0.1:9911)")
	fs.Parse(os.Args[1:])

	cfg, err := flags.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chronoclash-server: %v\n", err)
		os.Exit(1)
	}

	backend := slog.NewBackend(os.Stdout)
	log := backend.Logger("SRV")
	level, ok := slog.LevelFromString(*debugLevel)
	if !ok {
		fmt.Fprintf(os.Stderr, "chronoclash-server: unknown debug level %q\n", *debugLevel)
		os.Exit(1)
	}
	log.SetLevel(level)

	m := metrics.New("chronoclash")

	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				log.Errorf("metrics server stopped: %v", err)
			}
		}()
		log.Infof("metrics available at http://%s/metrics", *metricsAddr)
	}

	srv, err := gameserver.New(cfg, log, m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chronoclash-server: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runID := xid.New().String()
	log.Infof("run %s: listening on %s (grid=%dx%d, tick=%dHz, redundancy=%d, max-clients=%d)",
		runID, cfg.ListenAddr, cfg.GridSize, cfg.GridSize, cfg.SnapshotRateHz, cfg.Redundancy, cfg.MaxClients)

	board, err := srv.Run(ctx)
	if err != nil {
		log.Errorf("run %s: exited with error: %v", runID, err)
		os.Exit(1)
	}

	log.Infof("run %s: final scoreboard:", runID)
	for _, e := range board {
		log.Infof("  player %d: %d cells", e.PlayerID, e.Score)
	}
}
