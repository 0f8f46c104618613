// Package session maps client network endpoints to player identities,
// assigning dense, monotonically increasing player IDs and tracking
// per-session acknowledgement and liveness state.
package session

import (
	"net"
	"sync"
	"time"
)

// Session is a registered participant (spec.md §3 Player/Session).
type Session struct {
	PlayerID   uint32
	Addr       *net.UDPAddr
	Name       string
	LastAck    int32 // snapshot ID, -1 if none yet
	LastSent   int32 // snapshot ID, -1 if none yet
	LastSeen   time.Time
}

// Registry is the server-side session table. Two distinct sessions never
// share a player ID; endpoint-to-session mapping is unique at any instant
// (spec.md §3 invariant).
type Registry struct {
	mu       sync.RWMutex
	byAddr   map[string]*Session
	byPlayer []*Session // dense, index 0 unused; index i is player i
	maxCount int
}

// New creates an empty Registry accepting at most maxCount sessions.
func New(maxCount int) *Registry {
	return &Registry{
		byAddr:   make(map[string]*Session),
		byPlayer: make([]*Session, 1, maxCount+1), // index 0 is the unassigned sentinel
		maxCount: maxCount,
	}
}

// ErrFull is returned by Register when the registry is already at
// capacity and addr is not already known — the caller must drop the INIT
// with no INIT_ACK (spec.md §7, Resource errors).
var ErrFull = &fullError{}

type fullError struct{}

func (*fullError) Error() string { return "session: registry is full" }

// Register is idempotent: if addr is already known, it returns the
// existing session unchanged (so a client's own INIT retransmission after
// a lost INIT_ACK doesn't allocate a second player ID). Otherwise it
// allocates the next unused player ID and records a new session.
func (r *Registry) Register(addr *net.UDPAddr, name string, now time.Time) (*Session, error) {
	key := addr.String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byAddr[key]; ok {
		existing.LastSeen = now
		return existing, nil
	}

	if len(r.byAddr) >= r.maxCount {
		return nil, ErrFull
	}

	playerID := uint32(len(r.byPlayer))
	s := &Session{
		PlayerID: playerID,
		Addr:     addr,
		Name:     name,
		LastAck:  -1,
		LastSent: -1,
		LastSeen: now,
	}
	r.byAddr[key] = s
	r.byPlayer = append(r.byPlayer, s)
	return s, nil
}

// Lookup returns the session registered for addr, or nil if none.
func (r *Registry) Lookup(addr *net.UDPAddr) *Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byAddr[addr.String()]
}

// Touch updates a session's last-seen time.
func (r *Registry) Touch(addr *net.UDPAddr, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byAddr[addr.String()]; ok {
		s.LastSeen = now
	}
}

// MarkAck monotonically advances addr's last-acknowledged snapshot ID.
// Stale or regressive ACKs are ignored.
func (r *Registry) MarkAck(addr *net.UDPAddr, snapshotID int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byAddr[addr.String()]; ok && snapshotID > s.LastAck {
		s.LastAck = snapshotID
	}
}

// MarkSent records the newest snapshot ID sent to addr.
func (r *Registry) MarkSent(addr *net.UDPAddr, snapshotID int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byAddr[addr.String()]; ok {
		s.LastSent = snapshotID
	}
}

// All returns a stable, ID-ordered snapshot of every registered session,
// suitable for broadcast enumeration.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.byAddr))
	for _, s := range r.byPlayer[1:] {
		out = append(out, s)
	}
	return out
}

// Count returns the number of registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAddr)
}

// MaxPlayerID returns the highest player ID assigned so far, or 0 if none.
func (r *Registry) MaxPlayerID() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPlayer) - 1
}
