package session

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func addr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: port}
}

func TestRegisterAssignsDenseIncreasingPlayerIDs(t *testing.T) {
	r := New(4)
	now := time.Now()

	s1, err := r.Register(addr(1), "A", now)
	require.NoError(t, err)
	s2, err := r.Register(addr(2), "B", now)
	require.NoError(t, err)

	require.Equal(t, uint32(1), s1.PlayerID)
	require.Equal(t, uint32(2), s2.PlayerID)
}

func TestRegisterIsIdempotentForSameEndpoint(t *testing.T) {
	r := New(4)
	now := time.Now()
	a := addr(1)

	s1, err := r.Register(a, "A", now)
	require.NoError(t, err)
	s2, err := r.Register(a, "A-retry", now.Add(time.Second))
	require.NoError(t, err)

	require.Same(t, s1, s2)
	require.Equal(t, "A", s2.Name) // name is not overwritten by the retry
}

func TestRegisterRejectsBeyondCapacity(t *testing.T) {
	r := New(1)
	now := time.Now()

	_, err := r.Register(addr(1), "A", now)
	require.NoError(t, err)

	_, err = r.Register(addr(2), "B", now)
	require.ErrorIs(t, err, ErrFull)
}

// TestPlayerIDsStableAndDistinct is property P1.
func TestPlayerIDsStableAndDistinct(t *testing.T) {
	r := New(10)
	now := time.Now()
	seen := map[uint32]bool{}

	for i := 1; i <= 5; i++ {
		s, err := r.Register(addr(i), "P", now)
		require.NoError(t, err)
		require.False(t, seen[s.PlayerID], "player ID %d reused", s.PlayerID)
		seen[s.PlayerID] = true
	}

	// Re-registering an existing endpoint must not change its ID.
	s, err := r.Register(addr(3), "P", now)
	require.NoError(t, err)
	require.Equal(t, uint32(3), s.PlayerID)
}

func TestMarkAckIsMonotonic(t *testing.T) {
	r := New(4)
	now := time.Now()
	a := addr(1)
	_, err := r.Register(a, "A", now)
	require.NoError(t, err)

	r.MarkAck(a, 5)
	r.MarkAck(a, 3) // stale, ignored
	require.Equal(t, int32(5), r.Lookup(a).LastAck)

	r.MarkAck(a, 9)
	require.Equal(t, int32(9), r.Lookup(a).LastAck)
}

func TestTouchUpdatesLastSeen(t *testing.T) {
	r := New(4)
	now := time.Now()
	a := addr(1)
	_, err := r.Register(a, "A", now)
	require.NoError(t, err)

	later := now.Add(time.Second)
	r.Touch(a, later)
	require.Equal(t, later, r.Lookup(a).LastSeen)
}
