// Package clock provides the single millisecond wall-clock reference
// shared by header timestamps and latency computation, so every component
// agrees on what "now" means on the wire.
package clock

import "time"

// NowMillis returns the current wall-clock time in milliseconds since the
// Unix epoch, matching the granularity of every timestamp field in the
// wire protocol.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}

// SinceMillis returns the number of milliseconds elapsed since t.
func SinceMillis(t int64) int64 {
	return NowMillis() - t
}
