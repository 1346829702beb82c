package applemidi

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Command values for the exchange packet's 2-byte ASCII command field.
const (
	CommandInvitation         = "IN"
	CommandInvitationAccepted = "OK"
	CommandInvitationRejected = "NO"
	CommandExit               = "BY"
)

const preamble = uint16(0xFFFF)

// ProtocolVersion is the AppleMIDI protocol version this module speaks.
const ProtocolVersion = uint32(2)

// ExchangePacket is the IN/OK/NO/BY session-control packet exchanged on the
// control port (and, for IN/OK only, echoed on the data port during client
// connect).
type ExchangePacket struct {
	Command         string
	ProtocolVersion uint32
	InitiatorToken  uint32
	SSRC            uint32
	// Name is the peer's human-readable session name. An empty string means
	// "absent" on encode; a decoded packet with no name field also yields "".
	Name string
}

// DecodeExchange parses an AppleMIDI exchange packet.
func DecodeExchange(buf []byte) (ExchangePacket, error) {
	var pkt ExchangePacket
	if len(buf) < 16 {
		return pkt, parseErr("ExchangePacket", ErrTruncated)
	}
	if binary.BigEndian.Uint16(buf[0:2]) != preamble {
		return pkt, parseErr("ExchangePacket", ErrBadPreamble)
	}
	pkt.Command = string(buf[2:4])
	pkt.ProtocolVersion = binary.BigEndian.Uint32(buf[4:8])
	pkt.InitiatorToken = binary.BigEndian.Uint32(buf[8:12])
	pkt.SSRC = binary.BigEndian.Uint32(buf[12:16])

	rest := buf[16:]
	if len(rest) == 0 {
		return pkt, nil
	}
	nul := bytes.IndexByte(rest, 0x00)
	if nul < 0 {
		return pkt, parseErr("ExchangePacket", ErrNameNotTerminated)
	}
	pkt.Name = string(rest[:nul])
	return pkt, nil
}

// EncodeExchange renders an ExchangePacket to its wire form.
func EncodeExchange(pkt ExchangePacket) ([]byte, error) {
	if len(pkt.Command) != 2 {
		return nil, fmt.Errorf("applemidi: encode ExchangePacket: command %q must be 2 ASCII bytes", pkt.Command)
	}
	b := make([]byte, 0, 24)
	var hdr [16]byte
	binary.BigEndian.PutUint16(hdr[0:2], preamble)
	copy(hdr[2:4], pkt.Command)
	binary.BigEndian.PutUint32(hdr[4:8], pkt.ProtocolVersion)
	binary.BigEndian.PutUint32(hdr[8:12], pkt.InitiatorToken)
	binary.BigEndian.PutUint32(hdr[12:16], pkt.SSRC)
	b = append(b, hdr[:]...)
	if pkt.Name != "" {
		b = append(b, pkt.Name...)
		b = append(b, 0x00)
	}
	return b, nil
}
