package arbiter

import (
	"sort"

	"github.com/esraa1000/chronoclash/internal/grid"
	"github.com/esraa1000/chronoclash/internal/session"
)

// Result summarizes one tick's arbitration for metrics/logging.
type Result struct {
	Applied int
	Dropped int
}

// Apply sorts events by (client timestamp ascending, arrival sequence
// ascending) and applies them against g in that order (spec.md §4.4). An
// event is applied iff its cell is in bounds, currently unclaimed, and its
// origin address has a known session; otherwise it is silently dropped.
// Because cells are one-shot, conflicting concurrent claims for the same
// cell resolve naturally: only the first application that finds owner==0
// succeeds.
func Apply(events []Event, g *grid.Grid, sessions *session.Registry) Result {
	if len(events) == 0 {
		return Result{}
	}

	ordered := make([]Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ClientTsMs != ordered[j].ClientTsMs {
			return ordered[i].ClientTsMs < ordered[j].ClientTsMs
		}
		return ordered[i].ArrivalSeqNum < ordered[j].ArrivalSeqNum
	})

	var result Result
	for _, ev := range ordered {
		s := sessions.Lookup(ev.Addr)
		if s == nil {
			result.Dropped++
			continue
		}
		if g.Claim(ev.Row, ev.Col, byte(s.PlayerID)) {
			result.Applied++
		} else {
			result.Dropped++
		}
	}
	return result
}
