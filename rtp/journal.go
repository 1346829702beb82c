package rtp

import "encoding/binary"

// Journal is the RFC 6295 recovery journal, parsed losslessly but never
// replayed: sub-journal bodies are kept opaque. A Journal this package
// builds is always empty (Present=false); encoding never originates
// journal content.
type Journal struct {
	Present    bool
	Checkpoint uint16

	HasSystem    bool
	SystemFlags  uint8 // the 6 flag/reserved bits preceding the system journal's length field
	SystemBody   []byte

	HasChannel       bool
	ChannelFlags     uint8 // the S/CHAN/H bits preceding the channel journal's length field
	ChannelHeaderByte byte // the 3rd channel-journal header byte
	ChannelBody      []byte
}

// decodeJournal parses the outer journal header plus any present
// sub-journals, consuming exactly the journal's byte range.
func decodeJournal(buf []byte) (Journal, error) {
	var j Journal
	if len(buf) < 3 {
		return j, parseErr("journal", ErrTruncated)
	}
	outer := buf[0]
	s := outer&0x80 != 0
	a := outer&0x20 != 0
	j.Present = true
	j.Checkpoint = binary.BigEndian.Uint16(buf[1:3])

	pos := 3
	if s {
		if pos+2 > len(buf) {
			return j, parseErr("system journal", ErrTruncated)
		}
		raw := binary.BigEndian.Uint16(buf[pos : pos+2])
		length := int(raw & 0x03FF)
		j.SystemFlags = uint8(raw >> 10)
		if length < 2 || pos+length > len(buf) {
			return j, parseErr("system journal", ErrTruncated)
		}
		j.HasSystem = true
		j.SystemBody = append([]byte(nil), buf[pos+2:pos+length]...)
		pos += length
	}
	if a {
		if pos+3 > len(buf) {
			return j, parseErr("channel journal", ErrTruncated)
		}
		raw := binary.BigEndian.Uint16(buf[pos : pos+2])
		length := int(raw & 0x03FF)
		j.ChannelFlags = uint8(raw >> 10)
		j.ChannelHeaderByte = buf[pos+2]
		if length < 3 || pos+length > len(buf) {
			return j, parseErr("channel journal", ErrTruncated)
		}
		j.HasChannel = true
		j.ChannelBody = append([]byte(nil), buf[pos+3:pos+length]...)
		pos += length
	}
	return j, nil
}
