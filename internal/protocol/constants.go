// Package protocol implements the ChronoClash wire format: the 28-byte
// framed, checksummed header shared by every datagram and the six message
// payload schemas that ride on top of it.
package protocol

// MessageType is the tagged-union discriminant carried in every header.
type MessageType uint8

const (
	MsgInit MessageType = iota + 1
	MsgInitAck
	MsgSnapshot
	MsgEvent
	MsgAck
	MsgGameOver
)

func (t MessageType) String() string {
	switch t {
	case MsgInit:
		return "INIT"
	case MsgInitAck:
		return "INIT_ACK"
	case MsgSnapshot:
		return "SNAPSHOT"
	case MsgEvent:
		return "EVENT"
	case MsgAck:
		return "ACK"
	case MsgGameOver:
		return "GAME_OVER"
	default:
		return "UNKNOWN"
	}
}

const (
	// ProtocolVersion is the single supported wire version.
	ProtocolVersion uint8 = 1

	// HeaderSize is the fixed size, in bytes, of every datagram's header.
	HeaderSize = 28

	// MaxDatagramSize keeps every packet comfortably under a typical MTU.
	MaxDatagramSize = 1200

	// MaxPayloadSize is the largest payload that still fits under
	// MaxDatagramSize alongside the header.
	MaxPayloadSize = MaxDatagramSize - HeaderSize

	// NameSize is the fixed, null-padded width of a player's display name.
	NameSize = 16
)

// protocolMagic is the fixed 4-byte protocol tag ("ChronoClash Link Protocol").
var protocolMagic = [4]byte{'C', 'C', 'L', 'P'}
