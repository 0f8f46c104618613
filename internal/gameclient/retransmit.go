package gameclient

import (
	"context"
	"sync"
	"time"

	"github.com/esraa1000/chronoclash/internal/clock"
)

// cellKey identifies a grid cell within the pending-event table.
type cellKey struct {
	Row, Col uint16
}

type pendingEvent struct {
	lastSentMs int64
	retries    int
}

// pendingTable tracks EVENTs this client has sent but not yet seen
// reflected in an accepted snapshot (spec.md §4.8).
type pendingTable struct {
	mu      sync.Mutex
	entries map[cellKey]*pendingEvent
}

func newPendingTable() *pendingTable {
	return &pendingTable{entries: make(map[cellKey]*pendingEvent)}
}

// add registers a claim attempt for a cell if one isn't already pending,
// and reports whether it did so. A cell with an attempt already in flight
// is left alone — the retransmit loop is already resending it on its own
// schedule, so there is nothing for the caller to send.
func (p *pendingTable) add(row, col uint16, nowMs int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	key := cellKey{row, col}
	if _, ok := p.entries[key]; ok {
		return false
	}
	p.entries[key] = &pendingEvent{lastSentMs: nowMs}
	return true
}

// isPending reports whether a claim attempt for (row, col) is still
// outstanding.
func (p *pendingTable) isPending(row, col uint16) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[cellKey{row, col}]
	return ok
}

// clearAccepted drops every pending entry whose cell is non-zero in the
// given owner grid (size N*N, row-major).
func (p *pendingTable) clearAccepted(owners []byte, size int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for key := range p.entries {
		if int(key.Row) >= size || int(key.Col) >= size {
			continue
		}
		if owners[int(key.Row)*size+int(key.Col)] != 0 {
			delete(p.entries, key)
		}
	}
}

// due returns the cells whose retransmit interval has elapsed, dropping
// (and returning separately) any that have exhausted the retry cap. It
// only tracks send timing and retry counts — the resend itself always
// carries a fresh timestamp, taken by the caller at the moment it actually
// sends (spec.md §4.8: "resend ... same row/col, fresh timestamp").
func (p *pendingTable) due(nowMs int64, interval time.Duration, retryCap int) (resend []cellKey, dropped []cellKey) {
	p.mu.Lock()
	defer p.mu.Unlock()
	intervalMs := interval.Milliseconds()
	for key, ev := range p.entries {
		if nowMs-ev.lastSentMs < intervalMs {
			continue
		}
		if ev.retries >= retryCap {
			delete(p.entries, key)
			dropped = append(dropped, key)
			continue
		}
		ev.retries++
		ev.lastSentMs = nowMs
		resend = append(resend, key)
	}
	return resend, dropped
}

// retransmitLoop periodically resends unresolved EVENTs until they are
// cleared by an accepted snapshot or dropped at the retry cap (spec.md
// §4.8). It runs independently of the receive loop; the pending table's
// own mutex is the only shared state between them. Each resend is encoded
// with the current clock reading, never the original claim's timestamp —
// a stale timestamp would let a late retry masquerade as an early
// arbitration-time claim and win a race it shouldn't (spec.md §4.4's sort
// is by client timestamp).
func (c *Client) retransmitLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.RetransmitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			resend, dropped := c.pending.due(clock.NowMillis(), c.cfg.RetransmitInterval, c.cfg.RetryCap)
			for _, key := range dropped {
				c.log.Warnf("gameclient: giving up on claim (%d,%d) after %d retries", key.Row, key.Col, c.cfg.RetryCap)
			}
			for _, key := range resend {
				c.sendEvent(key.Row, key.Col, clock.NowMillis())
			}
		}
	}
}
