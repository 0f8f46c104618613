// Package snapshot produces immutable grid snapshots at a fixed tick rate,
// retains the last K of them for redundant fan-out, and detects game
// termination (spec.md §4.5, §4.6).
package snapshot

// Frame is one immutable view of the grid at a point in time. Once
// constructed, a Frame is never mutated — the Grid byte slice is an
// independent copy taken at tick time (spec.md §9, per-snapshot
// immutability).
type Frame struct {
	SnapshotID        uint32
	ServerTimestampMs int64
	Grid              []byte
}
