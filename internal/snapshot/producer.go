package snapshot

import (
	"errors"

	"github.com/esraa1000/chronoclash/internal/arbiter"
	"github.com/esraa1000/chronoclash/internal/grid"
	"github.com/esraa1000/chronoclash/internal/protocol"
	"github.com/esraa1000/chronoclash/internal/session"
)

// ErrNoFrames is returned by BuildPayload before the first tick has run.
var ErrNoFrames = errors.New("snapshot: no frames produced yet")

// Producer owns snapshot ID allocation and the redundancy history. One
// Producer belongs to one running game; it is not reusable across games.
type Producer struct {
	history *History
	nextID  uint32
}

// NewProducer creates a Producer retaining up to redundancy frames of
// history. Snapshot IDs start at 1 and strictly increase (spec.md §4.5).
func NewProducer(redundancy int) *Producer {
	return &Producer{history: NewHistory(redundancy), nextID: 1}
}

// Tick arbitrates events against g (spec.md §4.4), then captures the
// resulting grid state as a new Frame appended to history. It is called
// once per tick, under the tick activity's exclusive lock over game state
// (spec.md §5) — the caller, not Producer, is responsible for that lock.
func (p *Producer) Tick(events []arbiter.Event, g *grid.Grid, sessions *session.Registry, nowMs int64) (Frame, arbiter.Result) {
	result := arbiter.Apply(events, g, sessions)
	frame := Frame{
		SnapshotID:        p.nextID,
		ServerTimestampMs: nowMs,
		Grid:              g.Bytes(),
	}
	p.nextID++
	p.history.Append(frame)
	return frame, result
}

// BuildPayload encodes the M = min(redundancy, history length) most recent
// frames into one SNAPSHOT payload, and reports the newest embedded
// snapshot ID — the value the caller places in the outer datagram header
// (spec.md §4.5: "outer header snapshot ID is the newest embedded frame's
// ID").
func (p *Producer) BuildPayload(redundancy int) ([]byte, uint32, error) {
	frames := p.history.Recent(redundancy)
	if len(frames) == 0 {
		return nil, 0, ErrNoFrames
	}

	protoFrames := make([]protocol.SnapshotFrame, len(frames))
	for i, f := range frames {
		protoFrames[i] = protocol.SnapshotFrame{
			SnapshotID:        f.SnapshotID,
			ServerTimestampMs: f.ServerTimestampMs,
			Grid:              f.Grid,
		}
	}
	payload, err := protocol.EncodeSnapshot(protoFrames)
	if err != nil {
		return nil, 0, err
	}
	return payload, frames[len(frames)-1].SnapshotID, nil
}

// BuildPayloadSince encodes every retained frame newer than lastAcked
// (bounded by the history's own capacity) into one SNAPSHOT payload. It
// backs the optional per-session catch-up resend (spec.md §9 Open
// Question: disabled by default, see gameserver.Config.AckResend) for a
// session whose acknowledged snapshot has fallen behind the K frames
// embedded in the regular broadcast.
func (p *Producer) BuildPayloadSince(lastAcked uint32) ([]byte, uint32, error) {
	all := p.history.Recent(p.history.Len())
	var missing []Frame
	for _, f := range all {
		if f.SnapshotID > lastAcked {
			missing = append(missing, f)
		}
	}
	if len(missing) == 0 {
		return nil, 0, ErrNoFrames
	}

	protoFrames := make([]protocol.SnapshotFrame, len(missing))
	for i, f := range missing {
		protoFrames[i] = protocol.SnapshotFrame{
			SnapshotID:        f.SnapshotID,
			ServerTimestampMs: f.ServerTimestampMs,
			Grid:              f.Grid,
		}
	}
	payload, err := protocol.EncodeSnapshot(protoFrames)
	if err != nil {
		return nil, 0, err
	}
	return payload, missing[len(missing)-1].SnapshotID, nil
}

// LatestSnapshotID reports the ID of the most recently produced frame, or
// 0 if none has been produced yet.
func (p *Producer) LatestSnapshotID() uint32 {
	recent := p.history.Recent(1)
	if len(recent) == 0 {
		return 0
	}
	return recent[0].SnapshotID
}
