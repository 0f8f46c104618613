package gameserver

import (
	"net"
	"time"

	"github.com/esraa1000/chronoclash/internal/arbiter"
	"github.com/esraa1000/chronoclash/internal/clock"
	"github.com/esraa1000/chronoclash/internal/protocol"
)

// handleInit processes an INIT datagram (spec.md §4.3): idempotent
// registration, silent drop at capacity, an INIT_ACK echoing the client's
// nonce otherwise.
func (s *Server) handleInit(addr *net.UDPAddr, payload []byte) {
	init, err := protocol.DecodeInit(payload)
	if err != nil {
		s.metrics.DecodeErrors.Inc()
		s.log.Debugf("run %s: malformed INIT from %s: %v", s.runID, addr, err)
		return
	}

	sess, err := s.sessions.Register(addr, init.Name, time.Now())
	if err != nil {
		// Resource error (spec.md §7): registry at capacity. Silent drop,
		// no INIT_ACK, matching original_source/game_server.py::handle_init.
		s.log.Debugf("run %s: rejected INIT from %s: %v", s.runID, addr, err)
		return
	}

	initialSnapshotID := s.producer.LatestSnapshotID()
	ack := protocol.EncodeInitAck(protocol.InitAckPayload{
		Nonce:             init.Nonce,
		PlayerID:          sess.PlayerID,
		InitialSnapshotID: initialSnapshotID,
		ServerTimestampMs: clock.NowMillis(),
	})
	s.send(addr, protocol.MsgInitAck, initialSnapshotID, ack)
	s.log.Infof("run %s: registered player %d (%q) at %s", s.runID, sess.PlayerID, sess.Name, addr)
}

// handleEvent decodes an EVENT datagram and enqueues it for the next tick's
// arbitration (spec.md §4.4). Whether the originating address has a known
// session is checked at arbitration time, not here, so the decision lives
// in one place.
func (s *Server) handleEvent(addr *net.UDPAddr, payload []byte) {
	ev, err := protocol.DecodeEvent(payload)
	if err != nil {
		s.metrics.DecodeErrors.Inc()
		s.log.Debugf("run %s: malformed EVENT from %s: %v", s.runID, addr, err)
		return
	}
	s.queue.Push(arbiter.Event{
		Addr:       addr,
		Row:        int(ev.Row),
		Col:        int(ev.Col),
		ClientTsMs: ev.ClientTimestampMs,
	})
}

// handleAck records a client's acknowledged snapshot ID (spec.md §4.3
// markAck), monotonically.
func (s *Server) handleAck(addr *net.UDPAddr, payload []byte) {
	snapshotID, err := protocol.DecodeAck(payload)
	if err != nil {
		s.metrics.DecodeErrors.Inc()
		s.log.Debugf("run %s: malformed ACK from %s: %v", s.runID, addr, err)
		return
	}
	s.sessions.MarkAck(addr, int32(snapshotID))
}
