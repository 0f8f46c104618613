package gameserver

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/require"

	"github.com/esraa1000/chronoclash/internal/metrics"
	"github.com/esraa1000/chronoclash/internal/protocol"
)

func testLogger() slog.Logger {
	backend := slog.NewBackend(os.Stderr)
	l := backend.Logger("TEST")
	l.SetLevel(slog.LevelOff)
	return l
}

func newTestServer(t *testing.T, maxClients int) *Server {
	t.Helper()
	cfg := &Config{
		ListenAddr:     "127.0.0.1:0",
		GridSize:       2,
		SnapshotRateHz: 40,
		Redundancy:     2,
		MaxClients:     maxClients,
	}
	require.NoError(t, cfg.Validate())
	s, err := New(cfg, testLogger(), metrics.New("chronoclash_gameserver_test"))
	require.NoError(t, err)
	return s
}

// dialServer starts s.Run in the background and returns a UDP socket
// connected to it once the listener is up.
func dialServer(t *testing.T, s *Server) (*net.UDPConn, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	ready := make(chan struct{})
	go func() {
		// Poll until the socket is bound.
		for s.LocalAddr() == nil {
			select {
			case <-ctx.Done():
				return
			default:
				time.Sleep(time.Millisecond)
			}
		}
		close(ready)
	}()

	go func() {
		s.Run(ctx)
	}()

	select {
	case <-ready:
	case <-time.After(2 * time.Second):
		t.Fatal("server did not bind in time")
	}

	clientConn, err := net.DialUDP("udp", nil, s.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	return clientConn, cancel
}

// TestHandshakeSingleClient is scenario 1 (spec.md §8): a client sends
// INIT and receives an INIT_ACK carrying a nonzero player ID.
func TestHandshakeSingleClient(t *testing.T) {
	s := newTestServer(t, 4)
	conn, cancel := dialServer(t, s)
	defer cancel()
	defer conn.Close()

	initPayload := protocol.EncodeInit(protocol.InitPayload{Nonce: 0xABCD, Name: "Alice"})
	datagram, err := protocol.Encode(protocol.MsgInit, 0, 1, 1000, initPayload)
	require.NoError(t, err)

	_, err = conn.Write(datagram)
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, protocol.MaxDatagramSize)
	n, err := conn.Read(buf)
	require.NoError(t, err)

	hdr, payload, err := protocol.Decode(buf[:n])
	require.NoError(t, err)
	require.Equal(t, protocol.MsgInitAck, hdr.Type)

	ack, err := protocol.DecodeInitAck(payload)
	require.NoError(t, err)
	require.Equal(t, uint64(0xABCD), ack.Nonce)
	require.Equal(t, uint32(1), ack.PlayerID)
}

// TestMaxClientsRejectedSilently is the resource-error path from spec.md
// §4.3/§7: INIT beyond capacity gets no response at all.
func TestMaxClientsRejectedSilently(t *testing.T) {
	s := newTestServer(t, 1)
	conn, cancel := dialServer(t, s)
	defer cancel()
	defer conn.Close()

	// The second client needs its own endpoint: a repeat INIT from the
	// first one is idempotent and would be answered.
	second, err := net.DialUDP("udp", nil, s.LocalAddr().(*net.UDPAddr))
	require.NoError(t, err)
	defer second.Close()

	send := func(c *net.UDPConn, name string) {
		payload := protocol.EncodeInit(protocol.InitPayload{Nonce: 1, Name: name})
		datagram, err := protocol.Encode(protocol.MsgInit, 0, 1, 1000, payload)
		require.NoError(t, err)
		_, err = c.Write(datagram)
		require.NoError(t, err)
	}

	send(conn, "first")
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, protocol.MaxDatagramSize)
	_, err = conn.Read(buf)
	require.NoError(t, err) // first client accepted

	send(second, "second")
	second.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	_, err = second.Read(buf)
	require.Error(t, err) // second rejected silently: no datagram ever arrives
}

// TestGameTerminationBroadcastsScoreboard is a single-client form of
// scenario 5: one client claims every cell of a 2x2 grid, which triggers
// GAME_OVER with a one-entry scoreboard scoring 4.
func TestGameTerminationBroadcastsScoreboard(t *testing.T) {
	s := newTestServer(t, 2)
	conn, cancel := dialServer(t, s)
	defer cancel()
	defer conn.Close()

	initPayload := protocol.EncodeInit(protocol.InitPayload{Nonce: 1, Name: "Solo"})
	datagram, _ := protocol.Encode(protocol.MsgInit, 0, 1, 1000, initPayload)
	_, err := conn.Write(datagram)
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, protocol.MaxDatagramSize)
	_, err = conn.Read(buf)
	require.NoError(t, err)

	for _, cell := range [][2]uint16{{0, 0}, {0, 1}, {1, 0}, {1, 1}} {
		evPayload := protocol.EncodeEvent(protocol.EventPayload{ClientTimestampMs: 1, Row: cell[0], Col: cell[1]})
		dg, _ := protocol.Encode(protocol.MsgEvent, 0, 1, 1, evPayload)
		_, err := conn.Write(dg)
		require.NoError(t, err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, err := conn.Read(buf)
		if err != nil {
			continue
		}
		hdr, payload, err := protocol.Decode(buf[:n])
		if err != nil {
			continue
		}
		if hdr.Type == protocol.MsgGameOver {
			board, err := protocol.DecodeGameOver(payload)
			require.NoError(t, err)
			require.Len(t, board, 1)
			require.Equal(t, uint16(4), board[0].Score)
			return
		}
	}
	t.Fatal("never observed GAME_OVER")
}
