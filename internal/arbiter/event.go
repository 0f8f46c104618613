// Package arbiter buffers client-originated claim attempts and applies
// them against the authoritative grid once per tick, under a deterministic
// ordering policy that compensates for unordered datagram delivery.
package arbiter

import "net"

// Event is a single claim attempt (spec.md §3 Event). It is created on
// EVENT reception and consumed on the next arbitration tick; it is never
// retained past that.
type Event struct {
	Addr          *net.UDPAddr
	Row           int
	Col           int
	ClientTsMs    int64
	ArrivalSeqNum uint64
}
