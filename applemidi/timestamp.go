package applemidi

import "encoding/binary"

// CommandTimestampSync is the 2-byte ASCII command for the CK packet.
const CommandTimestampSync = "CK"

// TimestampPacket is the three-step CK clock-sync packet. Timestamps are in
// units of 100 microseconds since an arbitrary epoch; only differences within
// a session are meaningful.
type TimestampPacket struct {
	SSRC  uint32
	Count uint8
	T1    uint64
	T2    uint64
	T3    uint64
}

// DecodeTimestamp parses a CK packet. The 3 padding bytes following Count are
// ignored.
func DecodeTimestamp(buf []byte) (TimestampPacket, error) {
	var pkt TimestampPacket
	if len(buf) < 36 {
		return pkt, parseErr("TimestampPacket", ErrTruncated)
	}
	if binary.BigEndian.Uint16(buf[0:2]) != preamble {
		return pkt, parseErr("TimestampPacket", ErrBadPreamble)
	}
	// buf[2:4] is the "CK" command tag; the caller has already dispatched on it.
	pkt.SSRC = binary.BigEndian.Uint32(buf[4:8])
	pkt.Count = buf[8]
	// buf[9:12] is padding, ignored.
	pkt.T1 = binary.BigEndian.Uint64(buf[12:20])
	pkt.T2 = binary.BigEndian.Uint64(buf[20:28])
	pkt.T3 = binary.BigEndian.Uint64(buf[28:36])
	return pkt, nil
}

// EncodeTimestamp renders a TimestampPacket to its wire form.
func EncodeTimestamp(pkt TimestampPacket) ([]byte, error) {
	b := make([]byte, 36)
	binary.BigEndian.PutUint16(b[0:2], preamble)
	copy(b[2:4], CommandTimestampSync)
	binary.BigEndian.PutUint32(b[4:8], pkt.SSRC)
	b[8] = pkt.Count
	// b[9:12] left zero (padding).
	binary.BigEndian.PutUint64(b[12:20], pkt.T1)
	binary.BigEndian.PutUint64(b[20:28], pkt.T2)
	binary.BigEndian.PutUint64(b[28:36], pkt.T3)
	return b, nil
}
