// Command chronoclash-client is a headless ChronoClash participant: it
// connects, then clicks random empty cells at a human-like pace until the
// match ends, for load testing and CI scenarios (adapted from
// original_source/headless_client.py's simulate_user_clicks).
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/decred/slog"

	"github.com/esraa1000/chronoclash/internal/gameclient"
)

func main() {
	fs := flag.NewFlagSet("chronoclash-client", flag.ExitOnError)
	flags := gameclient.RegisterFlags(fs)
	debugLevel := fs.String("debuglevel", "info", "logging level: trace, debug, info, warn, error, critical, off")
	fs.Parse(os.Args[1:])

	cfg, err := flags.Resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chronoclash-client: %v\n", err)
		os.Exit(1)
	}

	backend := slog.NewBackend(os.Stdout)
	log := backend.Logger("CLI")
	level, ok := slog.LevelFromString(*debugLevel)
	if !ok {
		fmt.Fprintf(os.Stderr, "chronoclash-client: unknown debug level %q\n", *debugLevel)
		os.Exit(1)
	}
	log.SetLevel(level)

	c, err := gameclient.New(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chronoclash-client: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := c.Connect(ctx); err != nil {
		log.Errorf("connection failed: %v", err)
		os.Exit(1)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	go simulateClicks(ctx, c, rng)

	board := c.Run(ctx)
	c.Close()

	log.Infof("match finished, final scoreboard:")
	for _, e := range board {
		log.Infof("  player %d: %d cells", e.PlayerID, e.Score)
	}
}

// simulateClicks repeatedly claims a random empty cell with a human-like
// delay between attempts, matching the pacing of the original GUI client.
func simulateClicks(ctx context.Context, c *gameclient.Client, rng *rand.Rand) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		g := c.Mirror()
		if g == nil {
			time.Sleep(50 * time.Millisecond)
			continue
		}

		size := g.Size()
		var empty [][2]uint16
		for r := 0; r < size; r++ {
			for col := 0; col < size; col++ {
				if g.Owner(r, col) == 0 {
					empty = append(empty, [2]uint16{uint16(r), uint16(col)})
				}
			}
		}

		if len(empty) == 0 {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		cell := empty[rng.Intn(len(empty))]
		c.SendEvent(cell[0], cell[1])

		delay := 200*time.Millisecond + time.Duration(rng.Intn(300))*time.Millisecond
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}
