package rtp

import (
	"encoding/binary"
	"io"

	pionrtp "github.com/pion/rtp"
)

const (
	// PayloadType is the RTP-MIDI payload type assigned by RFC 6295.
	PayloadType = 0x61

	commandBigHeaderBit = 0x80 // B
	commandJournalBit   = 0x40 // J
	commandZeroDeltaBit = 0x20 // Z
	commandPhantomBit   = 0x10 // P
	commandLenMask      = 0x0F
)

// MIDIMessage is one RTP-MIDI packet: the generic RTP envelope (handled by
// github.com/pion/rtp) plus the command-section event list and an optional
// recovery journal.
type MIDIMessage struct {
	Header  pionrtp.Header
	Phantom bool // the command-section P bit; round-tripped, never interpreted
	Events  []Event
	Journal Journal
}

// NewMessage builds a MIDIMessage with the canonical RTP-MIDI envelope
// (V=2, P=0, X=0, CC=0, M=1, PT=0x61) for outbound packets.
func NewMessage(ssrc uint32, sequence uint16, timestamp uint32, events []Event) *MIDIMessage {
	return &MIDIMessage{
		Header: pionrtp.Header{
			Version:     2,
			Marker:      true,
			PayloadType: PayloadType,
			SequenceNumber: sequence,
			Timestamp:   timestamp,
			SSRC:        ssrc,
		},
		Events: events,
	}
}

// Decode parses a full RTP-MIDI packet (RTP envelope plus payload). The
// envelope's flag bits are accepted verbatim, even when they deviate from
// the canonical values real-world peers are supposed to send.
func Decode(buf []byte) (*MIDIMessage, error) {
	var packet pionrtp.Packet
	if err := packet.Unmarshal(buf); err != nil {
		return nil, parseErr("RTP envelope", err)
	}
	payload := packet.Payload
	if len(payload) < 1 {
		return nil, parseErr("command section", ErrTruncated)
	}

	first := payload[0]
	big := first&commandBigHeaderBit != 0
	hasJournal := first&commandJournalBit != 0
	z := first&commandZeroDeltaBit != 0
	phantom := first&commandPhantomBit != 0

	var length, listStart int
	if big {
		if len(payload) < 2 {
			return nil, parseErr("command section", ErrTruncated)
		}
		length = int(binary.BigEndian.Uint16(payload[0:2]) & 0x0FFF)
		listStart = 2
	} else {
		length = int(first & commandLenMask)
		listStart = 1
	}
	if listStart+length > len(payload) {
		return nil, parseErr("command section", ErrTruncated)
	}

	events, err := decodeEvents(payload[listStart:listStart+length], z)
	if err != nil {
		return nil, err
	}

	var journal Journal
	if hasJournal {
		journal, err = decodeJournal(payload[listStart+length:])
		if err != nil {
			return nil, err
		}
	}

	return &MIDIMessage{
		Header:  packet.Header,
		Phantom: phantom,
		Events:  events,
		Journal: journal,
	}, nil
}

// Encode renders a MIDIMessage to its wire form. This package never
// originates journal content, so the encoded packet always has J=0
// regardless of msg.Journal (which only reflects what a prior Decode saw).
func Encode(msg *MIDIMessage) ([]byte, error) {
	eventBytes, z, err := encodeEvents(msg.Events)
	if err != nil {
		return nil, err
	}

	var header []byte
	if len(eventBytes) > commandLenMask {
		b0 := commandBigHeaderBit | flagBits(z, msg.Phantom) | byte(len(eventBytes)>>8)&0x0F
		header = []byte{b0, byte(len(eventBytes))}
	} else {
		header = []byte{flagBits(z, msg.Phantom) | byte(len(eventBytes))}
	}

	packet := pionrtp.Packet{
		Header:  msg.Header,
		Payload: append(header, eventBytes...),
	}
	return packet.Marshal()
}

func flagBits(z, phantom bool) byte {
	var b byte
	if z {
		b |= commandZeroDeltaBit
	}
	if phantom {
		b |= commandPhantomBit
	}
	return b
}

// EncodeTo writes the encoded packet to w, mirroring the reference
// implementation's streaming encoder.
func EncodeTo(w io.Writer, msg *MIDIMessage) error {
	buf, err := Encode(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}
