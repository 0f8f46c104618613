package gameserver

import (
	"context"
	"time"

	"github.com/esraa1000/chronoclash/internal/grid"
	"github.com/esraa1000/chronoclash/internal/protocol"
	"github.com/esraa1000/chronoclash/internal/snapshot"
)

// runTermination executes the sequence from spec.md §4.6 once the tick
// loop has observed a full grid: a short grace period, one final snapshot
// resend, then a triple-redundant GAME_OVER broadcast carrying board, and
// a last grace period before the tick loop returns. The receive loop and
// socket shutdown follow under the server's normal context-cancellation
// path (§5), not here.
func (s *Server) runTermination(ctx context.Context, board []grid.ScoreboardEntry) {
	s.stateMu.Lock()
	s.terminated = true
	s.stateMu.Unlock()

	sleep(ctx, snapshot.FinalSnapshotGrace)

	if payload, snapshotID, err := s.producer.BuildPayload(s.cfg.Redundancy); err == nil {
		s.broadcastSnapshot(payload, snapshotID)
	} else {
		s.log.Errorf("run %s: final snapshot resend failed: %v", s.runID, err)
	}

	gameOverPayload, err := protocol.EncodeGameOver(toProtoScoreboard(board))
	if err != nil {
		s.log.Errorf("run %s: failed to encode GAME_OVER: %v", s.runID, err)
		return
	}

	latest := s.producer.LatestSnapshotID()
	for i := 0; i < snapshot.GameOverRepeats; i++ {
		for _, sess := range s.sessions.All() {
			s.send(sess.Addr, protocol.MsgGameOver, latest, gameOverPayload)
		}
		if i < snapshot.GameOverRepeats-1 {
			sleep(ctx, snapshot.GameOverSpacing)
		}
	}

	s.log.Infof("run %s: game over, scoreboard=%v", s.runID, board)
	sleep(ctx, snapshot.PostGameOverGrace)
}

func toProtoScoreboard(board []grid.ScoreboardEntry) []protocol.ScoreboardEntry {
	out := make([]protocol.ScoreboardEntry, len(board))
	for i, e := range board {
		out[i] = protocol.ScoreboardEntry{PlayerID: e.PlayerID, Score: e.Score}
	}
	return out
}

// sleep waits for d or ctx cancellation, whichever comes first — so a
// shutdown signal during the termination grace periods doesn't hang the
// tick loop.
func sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
