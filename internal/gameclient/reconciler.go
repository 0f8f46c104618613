package gameclient

import (
	"context"
	"net"
	"time"

	"github.com/esraa1000/chronoclash/internal/grid"
	"github.com/esraa1000/chronoclash/internal/protocol"
)

// receiveLoop reads datagrams one at a time and reconciles SNAPSHOT and
// GAME_OVER messages against local state (spec.md §4.7). A single reader
// keeps mirror/highestSnapshotID touched by exactly one goroutine.
func (c *Client) receiveLoop(ctx context.Context) {
	buf := make([]byte, protocol.MaxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, err := c.conn.Read(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			c.log.Debugf("gameclient: read error: %v", err)
			continue
		}

		hdr, payload, err := protocol.Decode(buf[:n])
		if err != nil {
			c.log.Debugf("gameclient: dropped malformed datagram: %v", err)
			continue
		}

		switch hdr.Type {
		case protocol.MsgSnapshot:
			c.handleSnapshot(payload)
		case protocol.MsgGameOver:
			c.handleGameOver(payload)
		case protocol.MsgInitAck:
			// Handshake already completed via Connect; a stray duplicate
			// reply here carries nothing new.
		default:
			c.log.Debugf("gameclient: ignoring unexpected message type %s", hdr.Type)
		}
	}
}

// handleSnapshot accepts the embedded frame with the greatest snapshot ID
// only if it exceeds the highest one already seen (spec.md §4.7's
// reconciliation rule), discarding any embedded frame that is stale.
func (c *Client) handleSnapshot(payload []byte) {
	frames, err := protocol.DecodeSnapshot(payload)
	if err != nil || len(frames) == 0 {
		c.log.Debugf("gameclient: malformed SNAPSHOT: %v", err)
		return
	}

	newest := frames[0]
	for _, f := range frames[1:] {
		if f.SnapshotID > newest.SnapshotID {
			newest = f
		}
	}

	if int64(newest.SnapshotID) <= c.highestSnapshotID {
		return
	}

	size := inferGridSize(len(newest.Grid))
	g, err := grid.FromBytes(size, newest.Grid)
	if err != nil {
		c.log.Errorf("gameclient: SNAPSHOT %d embeds an invalid grid: %v", newest.SnapshotID, err)
		return
	}

	c.highestSnapshotID = int64(newest.SnapshotID)
	c.mirror = g
	c.pending.clearAccepted(g.Bytes(), size)
	c.sendAck(newest.SnapshotID)
}

// handleGameOver surfaces the final scoreboard to Run's caller exactly
// once.
func (c *Client) handleGameOver(payload []byte) {
	board, err := protocol.DecodeGameOver(payload)
	if err != nil {
		c.log.Errorf("gameclient: malformed GAME_OVER: %v", err)
		return
	}
	c.gameOverOnce.Do(func() {
		c.log.Infof("gameclient: game over, scoreboard=%v", board)
		c.gameOverCh <- board
	})
}
