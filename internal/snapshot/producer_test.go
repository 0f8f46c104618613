package snapshot

import (
	"net"
	"testing"
	"time"

	"github.com/esraa1000/chronoclash/internal/arbiter"
	"github.com/esraa1000/chronoclash/internal/grid"
	"github.com/esraa1000/chronoclash/internal/protocol"
	"github.com/esraa1000/chronoclash/internal/session"
	"github.com/stretchr/testify/require"
)

func addr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: port}
}

// TestSnapshotIDsStrictlyIncrease is property P4.
func TestSnapshotIDsStrictlyIncrease(t *testing.T) {
	g, err := grid.New(3)
	require.NoError(t, err)
	sessions := session.New(4)
	p := NewProducer(2)

	var lastID uint32
	for i := 0; i < 5; i++ {
		frame, _ := p.Tick(nil, g, sessions, int64(i))
		require.Greater(t, frame.SnapshotID, lastID)
		lastID = frame.SnapshotID
	}
	require.Equal(t, uint32(5), lastID)
}

func TestBuildPayloadEmbedsUpToRedundancyFrames(t *testing.T) {
	g, err := grid.New(3)
	require.NoError(t, err)
	sessions := session.New(4)
	p := NewProducer(2)

	p.Tick(nil, g, sessions, 100)
	p.Tick(nil, g, sessions, 200)
	p.Tick(nil, g, sessions, 300)

	payload, newest, err := p.BuildPayload(2)
	require.NoError(t, err)
	require.Equal(t, uint32(3), newest)

	frames, err := protocol.DecodeSnapshot(payload)
	require.NoError(t, err)
	require.Len(t, frames, 2)
	require.Equal(t, uint32(2), frames[0].SnapshotID)
	require.Equal(t, uint32(3), frames[1].SnapshotID)
}

func TestBuildPayloadBeforeAnyTickReturnsErrNoFrames(t *testing.T) {
	p := NewProducer(2)
	_, _, err := p.BuildPayload(2)
	require.ErrorIs(t, err, ErrNoFrames)
}

func TestTickAppliesArbitrationAndCapturesResultingGrid(t *testing.T) {
	g, err := grid.New(3)
	require.NoError(t, err)
	sessions := session.New(4)
	now := time.Now()
	s, err := sessions.Register(addr(1), "A", now)
	require.NoError(t, err)

	p := NewProducer(2)
	events := []arbiter.Event{{Addr: addr(1), Row: 1, Col: 1, ClientTsMs: 1}}
	frame, result := p.Tick(events, g, sessions, 42)

	require.Equal(t, 1, result.Applied)
	require.Equal(t, byte(s.PlayerID), frame.Grid[1*3+1])
	require.Equal(t, int64(42), frame.ServerTimestampMs)
}

func TestLatestSnapshotIDReflectsMostRecentTick(t *testing.T) {
	g, err := grid.New(3)
	require.NoError(t, err)
	sessions := session.New(4)
	p := NewProducer(2)

	require.Equal(t, uint32(0), p.LatestSnapshotID())
	p.Tick(nil, g, sessions, 1)
	p.Tick(nil, g, sessions, 2)
	require.Equal(t, uint32(2), p.LatestSnapshotID())
}
