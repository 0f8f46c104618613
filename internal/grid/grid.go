// Package grid holds the authoritative NxN cell-ownership state. Cells are
// one-shot: once claimed, an owner is never reassigned (spec.md P2).
package grid

import "fmt"

// Grid is a dense, row-major owner array. 0 means unclaimed; 1..P means
// owned by player P. Per the Design Notes, this is a flat slice indexed
// r*N+c rather than a map or slice-of-slices.
type Grid struct {
	size  int
	cells []byte
}

// New allocates an empty NxN grid. N must satisfy 2 <= N <= 20 per
// spec.md §6.
func New(size int) (*Grid, error) {
	if size < 2 || size > 20 {
		return nil, fmt.Errorf("grid: size %d out of range [2, 20]", size)
	}
	return &Grid{size: size, cells: make([]byte, size*size)}, nil
}

// Size returns N.
func (g *Grid) Size() int { return g.size }

// InBounds reports whether (row, col) addresses a real cell.
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.size && col >= 0 && col < g.size
}

// Owner returns the current owner of (row, col), or 0 if out of bounds.
func (g *Grid) Owner(row, col int) byte {
	if !g.InBounds(row, col) {
		return 0
	}
	return g.cells[row*g.size+col]
}

// Claim sets (row, col)'s owner to playerID iff the cell is in bounds and
// currently unclaimed. It reports whether the claim succeeded. This is the
// only mutator on Grid, and it never reassigns a nonzero owner — the
// one-shot invariant (spec.md P2) is enforced here, nowhere else.
func (g *Grid) Claim(row, col int, playerID byte) bool {
	if !g.InBounds(row, col) {
		return false
	}
	idx := row*g.size + col
	if g.cells[idx] != 0 {
		return false
	}
	g.cells[idx] = playerID
	return true
}

// IsFull reports whether every cell has a nonzero owner.
func (g *Grid) IsFull() bool {
	for _, c := range g.cells {
		if c == 0 {
			return false
		}
	}
	return true
}

// Bytes returns a copy of the row-major owner bytes, suitable for embedding
// in an immutable snapshot frame.
func (g *Grid) Bytes() []byte {
	out := make([]byte, len(g.cells))
	copy(out, g.cells)
	return out
}

// FromBytes overwrites a client-side mirror grid from snapshot bytes. It is
// only ever used client-side, where the grid is not authoritative and is
// simply replaced wholesale on each accepted snapshot.
func FromBytes(size int, data []byte) (*Grid, error) {
	if len(data) != size*size {
		return nil, fmt.Errorf("grid: expected %d bytes for size %d, got %d", size*size, size, len(data))
	}
	cells := make([]byte, len(data))
	copy(cells, data)
	return &Grid{size: size, cells: cells}, nil
}

// ScoreboardEntry is one (player, score) pair, score = count of owned
// cells.
type ScoreboardEntry struct {
	PlayerID byte
	Score    uint16
}

// Scoreboard computes, for each player ID in [1, maxPlayerID], the number
// of cells it owns, sorted by score descending with ties broken by
// ascending player ID (see SPEC_FULL.md §9 for why: the original's
// tie-break relies on CPython Counter insertion order, which has no
// deterministic Go analogue; ascending player ID is the closest
// deterministic substitute).
func (g *Grid) Scoreboard(maxPlayerID int) []ScoreboardEntry {
	counts := make([]uint16, maxPlayerID+1)
	for _, c := range g.cells {
		if c > 0 && int(c) <= maxPlayerID {
			counts[c]++
		}
	}

	entries := make([]ScoreboardEntry, 0, maxPlayerID)
	for pid := 1; pid <= maxPlayerID; pid++ {
		entries = append(entries, ScoreboardEntry{PlayerID: byte(pid), Score: counts[pid]})
	}

	// Stable insertion sort: maxPlayerID is small (<= 255), and we want
	// the deterministic descending-score / ascending-id ordering, not
	// sort.Slice's unspecified tie behavior.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && less(entries[j], entries[j-1]); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	return entries
}

func less(a, b ScoreboardEntry) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.PlayerID < b.PlayerID
}
