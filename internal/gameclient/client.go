// Package gameclient is a cooperating ChronoClash client: it drives the
// INIT handshake, then runs a receive/reconcile loop alongside a
// retransmit loop over a shared pending-event table (spec.md §4.7, §4.8).
package gameclient

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/slog"

	"github.com/esraa1000/chronoclash/internal/clock"
	"github.com/esraa1000/chronoclash/internal/grid"
	"github.com/esraa1000/chronoclash/internal/protocol"
)

// Client is one connected game participant. Connect must succeed before
// Run, SendEvent, or Close are called.
type Client struct {
	cfg *Config
	log slog.Logger
	rng *rand.Rand

	conn     *net.UDPConn
	playerID uint32

	highestSnapshotID int64 // touched only by the receive loop; starts at -1
	mirror            *grid.Grid

	pending *pendingTable

	gameOverOnce sync.Once
	gameOverCh   chan []protocol.ScoreboardEntry

	outSeq uint32
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New constructs a Client from a validated Config.
func New(cfg *Config, log slog.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		cfg:               cfg,
		log:               log,
		rng:               rand.New(rand.NewSource(time.Now().UnixNano())),
		highestSnapshotID: -1,
		pending:           newPendingTable(),
		gameOverCh:        make(chan []protocol.ScoreboardEntry, 1),
	}, nil
}

// Connect dials the server and performs the INIT/INIT_ACK handshake,
// retrying with a growing per-attempt timeout up to HandshakeRetries
// (carried forward from original_source/headless_client.py::connect, per
// SPEC_FULL.md §9).
func (c *Client) Connect(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp", c.cfg.ServerAddr)
	if err != nil {
		return fmt.Errorf("gameclient: resolve %s: %w", c.cfg.ServerAddr, err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return fmt.Errorf("gameclient: dial %s: %w", c.cfg.ServerAddr, err)
	}
	c.conn = conn

	nonce := c.rng.Uint64()
	initPayload := protocol.EncodeInit(protocol.InitPayload{Nonce: nonce, Name: c.cfg.Name})

	var lastErr error
	for attempt := 0; attempt < c.cfg.HandshakeRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		datagram, err := protocol.Encode(protocol.MsgInit, 0, c.nextSeq(), clock.NowMillis(), initPayload)
		if err != nil {
			return err
		}
		if _, err := conn.Write(datagram); err != nil {
			lastErr = err
			continue
		}

		timeout := c.cfg.HandshakeTimeout * time.Duration(attempt+1)
		conn.SetReadDeadline(time.Now().Add(timeout))

		buf := make([]byte, protocol.MaxDatagramSize)
		n, err := conn.Read(buf)
		if err != nil {
			lastErr = err
			c.log.Debugf("gameclient: handshake attempt %d/%d timed out: %v", attempt+1, c.cfg.HandshakeRetries, err)
			continue
		}

		hdr, payload, err := protocol.Decode(buf[:n])
		if err != nil || hdr.Type != protocol.MsgInitAck {
			lastErr = fmt.Errorf("gameclient: unexpected handshake reply (type=%v, err=%v)", hdr.Type, err)
			continue
		}
		ack, err := protocol.DecodeInitAck(payload)
		if err != nil || ack.Nonce != nonce {
			lastErr = fmt.Errorf("gameclient: INIT_ACK nonce mismatch or decode error: %v", err)
			continue
		}

		c.playerID = ack.PlayerID
		c.log.Infof("gameclient: connected as player %d", c.playerID)
		return nil
	}

	conn.Close()
	return fmt.Errorf("gameclient: handshake failed after %d attempts: %w", c.cfg.HandshakeRetries, lastErr)
}

// Run starts the receive and retransmit loops and blocks until ctx is
// cancelled or GAME_OVER is observed, returning the final scoreboard.
func (c *Client) Run(ctx context.Context) []protocol.ScoreboardEntry {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.receiveLoop(runCtx)
	}()
	go func() {
		defer c.wg.Done()
		c.retransmitLoop(runCtx)
	}()

	var board []protocol.ScoreboardEntry
	select {
	case board = <-c.gameOverCh:
	case <-runCtx.Done():
	}

	cancel()
	c.wg.Wait()
	return board
}

// Close cancels any running loops and closes the socket.
func (c *Client) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// SendEvent issues a claim attempt for (row, col), registering it in the
// pending-event table and sending it immediately (spec.md §4.8). A cell
// already pending is not re-sent here — only the periodic retransmit sweep
// resends it, each time with a fresh timestamp.
func (c *Client) SendEvent(row, col uint16) {
	now := clock.NowMillis()
	if !c.pending.add(row, col, now) {
		return
	}
	c.sendEvent(row, col, now)
}

func (c *Client) sendEvent(row, col uint16, clientTsMs int64) {
	payload := protocol.EncodeEvent(protocol.EventPayload{ClientTimestampMs: clientTsMs, Row: row, Col: col})
	datagram, err := protocol.Encode(protocol.MsgEvent, 0, c.nextSeq(), clock.NowMillis(), payload)
	if err != nil {
		c.log.Errorf("gameclient: failed to encode EVENT(%d,%d): %v", row, col, err)
		return
	}
	if _, err := c.conn.Write(datagram); err != nil {
		c.log.Debugf("gameclient: failed to send EVENT(%d,%d): %v", row, col, err)
	}
}

func (c *Client) nextSeq() uint32 {
	return atomic.AddUint32(&c.outSeq, 1)
}

func (c *Client) sendAck(snapshotID uint32) {
	if c.conn == nil {
		return
	}
	payload := protocol.EncodeAck(snapshotID)
	datagram, err := protocol.Encode(protocol.MsgAck, snapshotID, c.nextSeq(), clock.NowMillis(), payload)
	if err != nil {
		return
	}
	c.conn.Write(datagram)
}

func inferGridSize(byteLen int) int {
	return int(math.Sqrt(float64(byteLen)))
}

// PlayerID returns the ID assigned by the server during handshake.
func (c *Client) PlayerID() uint32 { return c.playerID }

// Mirror returns the client's current view of the grid, or nil before the
// first snapshot is accepted.
func (c *Client) Mirror() *grid.Grid { return c.mirror }
