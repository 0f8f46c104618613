// Package gameserver is the authoritative ChronoClash server: it owns the
// UDP socket and wires the registry, arbiter, and snapshot components into
// the two-activity concurrency model of spec.md §5.
package gameserver

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/decred/slog"
	"github.com/rs/xid"

	"github.com/esraa1000/chronoclash/internal/arbiter"
	"github.com/esraa1000/chronoclash/internal/clock"
	"github.com/esraa1000/chronoclash/internal/grid"
	"github.com/esraa1000/chronoclash/internal/metrics"
	"github.com/esraa1000/chronoclash/internal/protocol"
	"github.com/esraa1000/chronoclash/internal/session"
	"github.com/esraa1000/chronoclash/internal/snapshot"
)

// Server is one running game. It is not reusable across games: once the
// grid fills and the termination sequence completes, Stop must be called
// and a new Server constructed for a rematch.
type Server struct {
	cfg     *Config
	log     slog.Logger
	metrics *metrics.Metrics
	runID   string

	conn *net.UDPConn

	sessions *session.Registry
	queue    *arbiter.Queue

	stateMu    sync.Mutex // guards grid and producer for the duration of one tick
	grid       *grid.Grid
	producer   *snapshot.Producer
	terminated bool

	outSeq uint32 // monotonically increasing outgoing datagram sequence

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New constructs a Server from a validated Config. It does not bind the
// socket; call Run to do that.
func New(cfg *Config, log slog.Logger, m *metrics.Metrics) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g, err := grid.New(cfg.GridSize)
	if err != nil {
		return nil, err
	}
	return &Server{
		cfg:      cfg,
		log:      log,
		metrics:  m,
		runID:    xid.New().String(),
		sessions: session.New(cfg.MaxClients),
		queue:    arbiter.NewQueue(),
		grid:     g,
		producer: snapshot.NewProducer(cfg.Redundancy),
	}, nil
}

// Run binds the UDP socket and blocks running the receive and tick
// activities until ctx is cancelled or the game terminates. It returns the
// final scoreboard.
func (s *Server) Run(ctx context.Context) ([]grid.ScoreboardEntry, error) {
	addr, err := net.ResolveUDPAddr("udp", s.cfg.ListenAddr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	defer conn.Close()

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.log.Infof("run %s: listening on %s (grid=%d rate=%dHz K=%d maxClients=%d)",
		s.runID, conn.LocalAddr(), s.cfg.GridSize, s.cfg.SnapshotRateHz, s.cfg.Redundancy, s.cfg.MaxClients)

	scoreboardCh := make(chan []grid.ScoreboardEntry, 1)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.receiveLoop(runCtx)
	}()
	go func() {
		defer s.wg.Done()
		scoreboardCh <- s.tickLoop(runCtx)
		// The tick loop only returns on cancellation or after the
		// termination sequence; either way the receive loop stops too.
		cancel()
	}()

	s.wg.Wait()
	select {
	case board := <-scoreboardCh:
		return board, nil
	default:
		return nil, runCtx.Err()
	}
}

// Stop cancels the server's activities and waits for them to exit.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// LocalAddr returns the bound socket address, valid only after Run has
// reached the listening state. Used by tests that bind to :0.
func (s *Server) LocalAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// receiveLoop is the first of the two cooperating activities from spec.md
// §5: it blocks on ReadFromUDP with a short deadline so it can observe
// ctx cancellation within one iteration, decodes each datagram, and routes
// it to the appropriate handler. It never touches the grid directly.
func (s *Server) receiveLoop(ctx context.Context) {
	buf := make([]byte, protocol.MaxDatagramSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		s.conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, addr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			continue
		}
		s.metrics.MessagesReceived.Inc()
		s.metrics.BytesReceived.Add(float64(n))

		hdr, payload, err := protocol.Decode(buf[:n])
		if err != nil {
			s.metrics.DecodeErrors.Inc()
			s.log.Debugf("run %s: dropped datagram from %s: %v", s.runID, addr, err)
			continue
		}

		s.sessions.Touch(addr, time.Now())

		switch hdr.Type {
		case protocol.MsgInit:
			s.handleInit(addr, payload)
		case protocol.MsgEvent:
			s.handleEvent(addr, payload)
		case protocol.MsgAck:
			s.handleAck(addr, payload)
		default:
			s.log.Debugf("run %s: ignoring unexpected message type %s from %s", s.runID, hdr.Type, addr)
		}
	}
}

// tickLoop is the second cooperating activity: a fixed-rate ticker that
// drains the event queue, arbitrates, produces a snapshot, and broadcasts
// it. It returns the final scoreboard once the grid fills and the
// termination sequence completes.
func (s *Server) tickLoop(ctx context.Context) []grid.ScoreboardEntry {
	ticker := time.NewTicker(s.cfg.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if board, done := s.tick(); done {
				s.runTermination(ctx, board)
				return board
			}
		}
	}
}

// tick performs exactly one arbitration-and-snapshot cycle under the
// server's state mutex, matching "the arbiter takes an exclusive lock over
// the game state for the duration of one tick" (spec.md §5).
func (s *Server) tick() (board []grid.ScoreboardEntry, done bool) {
	events := s.queue.Drain()
	nowMs := clock.NowMillis()

	s.stateMu.Lock()
	_, result := s.producer.Tick(events, s.grid, s.sessions, nowMs)
	s.metrics.EventsApplied.Add(float64(result.Applied))
	s.metrics.EventsDropped.Add(float64(result.Dropped))
	s.metrics.SnapshotsProduced.Inc()

	payload, newestID, err := s.producer.BuildPayload(s.cfg.Redundancy)
	complete := snapshot.IsComplete(s.grid)
	var scoreboard []grid.ScoreboardEntry
	if complete {
		scoreboard = snapshot.Scoreboard(s.grid, s.sessions.MaxPlayerID())
	}
	s.stateMu.Unlock()

	if err != nil {
		s.log.Errorf("run %s: failed to build snapshot payload: %v", s.runID, err)
		return nil, false
	}
	s.broadcastSnapshot(payload, newestID)

	s.metrics.SessionsActive.Set(float64(s.sessions.Count()))
	return scoreboard, complete
}

func (s *Server) broadcastSnapshot(payload []byte, snapshotID uint32) {
	for _, sess := range s.sessions.All() {
		s.send(sess.Addr, protocol.MsgSnapshot, snapshotID, payload)
		s.sessions.MarkSent(sess.Addr, int32(snapshotID))

		if s.cfg.AckResend && sess.LastAck >= 0 && uint32(sess.LastAck) < snapshotID {
			s.resendSince(sess)
		}
	}
}

// resendSince sends a session one extra payload holding every retained
// frame newer than its last ACK. The history keeps at most K frames, so
// frames older than that are not resent. broadcastSnapshot calls it for any
// session whose last ACK is older than the newest snapshot. Gated behind
// Config.AckResend (off by default).
func (s *Server) resendSince(sess *session.Session) {
	s.stateMu.Lock()
	payload, newestID, err := s.producer.BuildPayloadSince(uint32(sess.LastAck))
	s.stateMu.Unlock()

	if err != nil {
		return
	}
	s.send(sess.Addr, protocol.MsgSnapshot, newestID, payload)
}

// send encodes and writes one datagram, bumping metrics on success. It is
// called from both the receive activity (INIT_ACK) and the tick activity
// (SNAPSHOT, GAME_OVER), so the sequence counter is advanced atomically.
func (s *Server) send(addr *net.UDPAddr, msgType protocol.MessageType, snapshotID uint32, payload []byte) {
	seq := atomic.AddUint32(&s.outSeq, 1)
	datagram, err := protocol.Encode(msgType, snapshotID, seq, clock.NowMillis(), payload)
	if err != nil {
		s.log.Errorf("run %s: failed to encode %s to %s: %v", s.runID, msgType, addr, err)
		return
	}
	n, err := s.conn.WriteToUDP(datagram, addr)
	if err != nil {
		s.log.Debugf("run %s: write to %s failed: %v", s.runID, addr, err)
		return
	}
	s.metrics.MessagesSent.Inc()
	s.metrics.BytesSent.Add(float64(n))
}
