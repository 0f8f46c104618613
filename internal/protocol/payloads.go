package protocol

import (
	"encoding/binary"
	"fmt"
)

// InitPayload is the INIT message body: a client-chosen nonce echoed back
// in INIT_ACK, and a null-padded display name.
type InitPayload struct {
	Nonce uint64
	Name  string
}

const initPayloadSize = 8 + NameSize

// EncodeInit serializes an InitPayload.
func EncodeInit(p InitPayload) []byte {
	buf := make([]byte, initPayloadSize)
	binary.BigEndian.PutUint64(buf[0:8], p.Nonce)
	copy(buf[8:8+NameSize], []byte(p.Name))
	return buf
}

// DecodeInit parses an INIT payload.
func DecodeInit(payload []byte) (InitPayload, error) {
	if len(payload) != initPayloadSize {
		return InitPayload{}, fmt.Errorf("protocol: INIT payload must be %d bytes, got %d", initPayloadSize, len(payload))
	}
	nonce := binary.BigEndian.Uint64(payload[0:8])
	name := trimNullPad(payload[8 : 8+NameSize])
	return InitPayload{Nonce: nonce, Name: name}, nil
}

// InitAckPayload is the INIT_ACK message body.
type InitAckPayload struct {
	Nonce             uint64
	PlayerID          uint32
	InitialSnapshotID uint32
	ServerTimestampMs int64
}

const initAckPayloadSize = 8 + 4 + 4 + 8

// EncodeInitAck serializes an InitAckPayload.
func EncodeInitAck(p InitAckPayload) []byte {
	buf := make([]byte, initAckPayloadSize)
	binary.BigEndian.PutUint64(buf[0:8], p.Nonce)
	binary.BigEndian.PutUint32(buf[8:12], p.PlayerID)
	binary.BigEndian.PutUint32(buf[12:16], p.InitialSnapshotID)
	binary.BigEndian.PutUint64(buf[16:24], uint64(p.ServerTimestampMs))
	return buf
}

// DecodeInitAck parses an INIT_ACK payload.
func DecodeInitAck(payload []byte) (InitAckPayload, error) {
	if len(payload) != initAckPayloadSize {
		return InitAckPayload{}, fmt.Errorf("protocol: INIT_ACK payload must be %d bytes, got %d", initAckPayloadSize, len(payload))
	}
	return InitAckPayload{
		Nonce:             binary.BigEndian.Uint64(payload[0:8]),
		PlayerID:          binary.BigEndian.Uint32(payload[8:12]),
		InitialSnapshotID: binary.BigEndian.Uint32(payload[12:16]),
		ServerTimestampMs: int64(binary.BigEndian.Uint64(payload[16:24])),
	}, nil
}

// EventPayload is the EVENT message body: a claim attempt on one cell.
// The canonical layout is 8 (timestamp) + 2 (row) + 2 (col), per the
// Open Question resolution in spec.md §9.
type EventPayload struct {
	ClientTimestampMs int64
	Row               uint16
	Col               uint16
}

const eventPayloadSize = 8 + 2 + 2

// EncodeEvent serializes an EventPayload.
func EncodeEvent(p EventPayload) []byte {
	buf := make([]byte, eventPayloadSize)
	binary.BigEndian.PutUint64(buf[0:8], uint64(p.ClientTimestampMs))
	binary.BigEndian.PutUint16(buf[8:10], p.Row)
	binary.BigEndian.PutUint16(buf[10:12], p.Col)
	return buf
}

// DecodeEvent parses an EVENT payload. A length other than the canonical
// 8+2+2 form is a framing error (ErrMalformedEvent), not a semantic one —
// it is rejected the same way a bad checksum is.
func DecodeEvent(payload []byte) (EventPayload, error) {
	if len(payload) != eventPayloadSize {
		return EventPayload{}, ErrMalformedEvent
	}
	return EventPayload{
		ClientTimestampMs: int64(binary.BigEndian.Uint64(payload[0:8])),
		Row:               binary.BigEndian.Uint16(payload[8:10]),
		Col:               binary.BigEndian.Uint16(payload[10:12]),
	}, nil
}

// SnapshotFrame is one embedded, immutable grid view inside a SNAPSHOT
// datagram.
type SnapshotFrame struct {
	SnapshotID        uint32
	ServerTimestampMs int64
	Grid              []byte // row-major owner bytes, length N*N
}

// EncodeSnapshot packs 1..255 frames into a SNAPSHOT payload. Frames must
// already be ordered newest-last by the caller; the outer header's
// snapshot ID is the caller's responsibility (the newest frame's ID).
func EncodeSnapshot(frames []SnapshotFrame) ([]byte, error) {
	if len(frames) == 0 || len(frames) > 255 {
		return nil, fmt.Errorf("protocol: SNAPSHOT frame count %d out of range", len(frames))
	}

	size := 1
	for _, f := range frames {
		if len(f.Grid) > 0xFFFF {
			return nil, fmt.Errorf("protocol: SNAPSHOT grid too large: %d bytes", len(f.Grid))
		}
		size += 4 + 8 + 2 + len(f.Grid)
	}

	buf := make([]byte, size)
	buf[0] = byte(len(frames))
	offset := 1
	for _, f := range frames {
		binary.BigEndian.PutUint32(buf[offset:offset+4], f.SnapshotID)
		binary.BigEndian.PutUint64(buf[offset+4:offset+12], uint64(f.ServerTimestampMs))
		binary.BigEndian.PutUint16(buf[offset+12:offset+14], uint16(len(f.Grid)))
		offset += 14
		copy(buf[offset:offset+len(f.Grid)], f.Grid)
		offset += len(f.Grid)
	}
	return buf, nil
}

// DecodeSnapshot parses a SNAPSHOT payload into its embedded frames.
func DecodeSnapshot(payload []byte) ([]SnapshotFrame, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("protocol: SNAPSHOT payload empty")
	}
	count := int(payload[0])
	frames := make([]SnapshotFrame, 0, count)
	offset := 1
	for i := 0; i < count; i++ {
		if offset+14 > len(payload) {
			return nil, fmt.Errorf("protocol: SNAPSHOT payload truncated at frame %d", i)
		}
		snapshotID := binary.BigEndian.Uint32(payload[offset : offset+4])
		ts := int64(binary.BigEndian.Uint64(payload[offset+4 : offset+12]))
		gridLen := int(binary.BigEndian.Uint16(payload[offset+12 : offset+14]))
		offset += 14
		if offset+gridLen > len(payload) {
			return nil, fmt.Errorf("protocol: SNAPSHOT payload truncated grid at frame %d", i)
		}
		grid := make([]byte, gridLen)
		copy(grid, payload[offset:offset+gridLen])
		offset += gridLen

		frames = append(frames, SnapshotFrame{
			SnapshotID:        snapshotID,
			ServerTimestampMs: ts,
			Grid:              grid,
		})
	}
	return frames, nil
}

const ackPayloadSize = 4

// EncodeAck serializes an ACK payload.
func EncodeAck(snapshotID uint32) []byte {
	buf := make([]byte, ackPayloadSize)
	binary.BigEndian.PutUint32(buf, snapshotID)
	return buf
}

// DecodeAck parses an ACK payload.
func DecodeAck(payload []byte) (uint32, error) {
	if len(payload) != ackPayloadSize {
		return 0, fmt.Errorf("protocol: ACK payload must be %d bytes, got %d", ackPayloadSize, len(payload))
	}
	return binary.BigEndian.Uint32(payload), nil
}

// ScoreboardEntry is one (player, score) pair within a GAME_OVER payload.
type ScoreboardEntry struct {
	PlayerID uint8
	Score    uint16
}

// EncodeGameOver serializes a scoreboard (already sorted by the caller)
// into a GAME_OVER payload.
func EncodeGameOver(entries []ScoreboardEntry) ([]byte, error) {
	if len(entries) > 255 {
		return nil, fmt.Errorf("protocol: GAME_OVER has too many players: %d", len(entries))
	}
	buf := make([]byte, 1+3*len(entries))
	buf[0] = byte(len(entries))
	offset := 1
	for _, e := range entries {
		buf[offset] = e.PlayerID
		binary.BigEndian.PutUint16(buf[offset+1:offset+3], e.Score)
		offset += 3
	}
	return buf, nil
}

// DecodeGameOver parses a GAME_OVER payload.
func DecodeGameOver(payload []byte) ([]ScoreboardEntry, error) {
	if len(payload) < 1 {
		return nil, fmt.Errorf("protocol: GAME_OVER payload empty")
	}
	count := int(payload[0])
	if len(payload) != 1+3*count {
		return nil, fmt.Errorf("protocol: GAME_OVER payload length mismatch for %d players", count)
	}
	entries := make([]ScoreboardEntry, count)
	offset := 1
	for i := 0; i < count; i++ {
		entries[i] = ScoreboardEntry{
			PlayerID: payload[offset],
			Score:    binary.BigEndian.Uint16(payload[offset+1 : offset+3]),
		}
		offset += 3
	}
	return entries, nil
}

func trimNullPad(b []byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
