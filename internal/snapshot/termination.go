package snapshot

import (
	"time"

	"github.com/esraa1000/chronoclash/internal/grid"
)

// Timing constants for the termination sequence (spec.md §4.6), carried
// forward from the grace periods read in original_source/game_server.py:
// a short pause before the final snapshot so the last ACKs have a chance
// to land, triple-send GAME_OVER at close spacing against datagram loss,
// then hold the socket open briefly so stragglers still see the result.
const (
	FinalSnapshotGrace = 100 * time.Millisecond
	GameOverRepeats    = 3
	GameOverSpacing    = 10 * time.Millisecond
	PostGameOverGrace  = 5 * time.Second
)

// IsComplete reports whether every cell of g has been claimed (spec.md
// §4.6, the sole termination condition).
func IsComplete(g *grid.Grid) bool {
	return g.IsFull()
}

// Scoreboard computes the final standings for players 1..maxPlayerID,
// sorted descending by score with ties broken by ascending player ID (see
// SPEC_FULL.md §9 for why ascending ID rather than claim order).
func Scoreboard(g *grid.Grid, maxPlayerID int) []grid.ScoreboardEntry {
	return g.Scoreboard(maxPlayerID)
}
