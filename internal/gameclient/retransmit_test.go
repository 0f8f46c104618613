package gameclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPendingTableAddIsIdempotent(t *testing.T) {
	p := newPendingTable()
	require.True(t, p.add(1, 2, 1000))
	require.False(t, p.add(1, 2, 5000), "a second add for the same cell while one is outstanding must be a no-op")
	require.True(t, p.isPending(1, 2))
}

func TestPendingTableClearAcceptedDropsClaimedCells(t *testing.T) {
	p := newPendingTable()
	p.add(0, 0, 1000)
	p.add(1, 1, 1000)

	owners := []byte{1, 0, 0, 0} // 2x2 grid, only (0,0) claimed
	p.clearAccepted(owners, 2)

	require.False(t, p.isPending(0, 0))
	require.True(t, p.isPending(1, 1))
}

func TestPendingTableDueResendsAfterInterval(t *testing.T) {
	p := newPendingTable()
	p.add(0, 0, 1000)

	resend, dropped := p.due(1010, 50*time.Millisecond, 3)
	require.Empty(t, resend)
	require.Empty(t, dropped)

	resend, dropped = p.due(1100, 50*time.Millisecond, 3)
	require.Equal(t, []cellKey{{0, 0}}, resend)
	require.Empty(t, dropped)
}

func TestPendingTableDueDropsAtRetryCap(t *testing.T) {
	p := newPendingTable()
	p.add(0, 0, 0)

	now := int64(0)
	for i := 0; i < 2; i++ {
		now += 100
		resend, dropped := p.due(now, 50*time.Millisecond, 2)
		require.Len(t, resend, 1)
		require.Empty(t, dropped)
	}

	now += 100
	resend, dropped := p.due(now, 50*time.Millisecond, 2)
	require.Empty(t, resend)
	require.Equal(t, []cellKey{{0, 0}}, dropped)

	require.False(t, p.isPending(0, 0))
}
