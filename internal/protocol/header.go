package protocol

import (
	"encoding/binary"
	"hash/crc32"
)

// Header is the fixed 28-byte preamble of every ChronoClash datagram.
//
//	offset size field
//	0      4    magic
//	4      1    version
//	5      1    message type
//	6      4    snapshot ID
//	10     4    sequence number
//	14     8    timestamp (ms)
//	22     2    payload length
//	24     4    checksum (CRC-32, IEEE, over header-with-checksum-zeroed||payload)
type Header struct {
	Type         MessageType
	SnapshotID   uint32
	Sequence     uint32
	TimestampMs  int64
	PayloadLen   uint16
	Checksum     uint32
}

// Encode writes header and payload into a single datagram, computing the
// checksum over the header (with the checksum field zeroed) followed by
// the payload, per spec.
func Encode(msgType MessageType, snapshotID, sequence uint32, timestampMs int64, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	buf := make([]byte, HeaderSize+len(payload))
	writeHeaderFields(buf, msgType, snapshotID, sequence, timestampMs, uint16(len(payload)), 0)
	copy(buf[HeaderSize:], payload)

	crc := crc32.ChecksumIEEE(buf)
	binary.BigEndian.PutUint32(buf[24:28], crc)

	return buf, nil
}

func writeHeaderFields(buf []byte, msgType MessageType, snapshotID, sequence uint32, timestampMs int64, payloadLen uint16, checksum uint32) {
	copy(buf[0:4], protocolMagic[:])
	buf[4] = ProtocolVersion
	buf[5] = byte(msgType)
	binary.BigEndian.PutUint32(buf[6:10], snapshotID)
	binary.BigEndian.PutUint32(buf[10:14], sequence)
	binary.BigEndian.PutUint64(buf[14:22], uint64(timestampMs))
	binary.BigEndian.PutUint16(buf[22:24], payloadLen)
	binary.BigEndian.PutUint32(buf[24:28], checksum)
}

// Decode validates and parses a raw datagram, returning the header and the
// payload slice (which aliases data). Any framing violation returns one of
// the sentinel errors in errors.go; callers must drop the datagram and
// send no response.
func Decode(data []byte) (Header, []byte, error) {
	if len(data) < HeaderSize {
		return Header{}, nil, ErrTooShort
	}

	var magic [4]byte
	copy(magic[:], data[0:4])
	if magic != protocolMagic {
		return Header{}, nil, ErrBadMagic
	}
	if data[4] != ProtocolVersion {
		return Header{}, nil, ErrBadVersion
	}

	payload := data[HeaderSize:]
	declaredLen := binary.BigEndian.Uint16(data[22:24])
	if int(declaredLen) != len(payload) {
		return Header{}, nil, ErrPayloadLength
	}

	recvChecksum := binary.BigEndian.Uint32(data[24:28])

	verify := make([]byte, len(data))
	copy(verify, data)
	binary.BigEndian.PutUint32(verify[24:28], 0)
	computed := crc32.ChecksumIEEE(verify)
	if computed != recvChecksum {
		return Header{}, nil, ErrChecksum
	}

	h := Header{
		Type:        MessageType(data[5]),
		SnapshotID:  binary.BigEndian.Uint32(data[6:10]),
		Sequence:    binary.BigEndian.Uint32(data[10:14]),
		TimestampMs: int64(binary.BigEndian.Uint64(data[14:22])),
		PayloadLen:  declaredLen,
		Checksum:    recvChecksum,
	}
	return h, payload, nil
}
