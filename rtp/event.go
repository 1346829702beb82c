package rtp

// Kind identifies the MIDI status nibble of an event. KindOther is a
// catch-all for anything not in the four named kinds; it always ends the
// event list (the reference decoder reads it as a greedy tail).
type Kind byte

const (
	KindNoteOff           Kind = 0x80
	KindNoteOn            Kind = 0x90
	KindAftertouch        Kind = 0xA0
	KindControlModeChange Kind = 0xB0
	KindOther             Kind = 0xF0
)

// Event is one decoded element of a MIDI command list. Only the fields
// relevant to its Kind are meaningful; see §4.1 of the packet format.
type Event struct {
	DeltaTime  uint32
	Kind       Kind
	Channel    uint8
	Key        byte
	Velocity   byte
	Touch      byte
	Controller byte
	Value      byte
	// Other holds the raw remainder of the event list when Kind == KindOther,
	// including the leading status byte.
	Other []byte
}

// decodeEvents parses a MIDI command list. z reports whether the
// command-section header's Z bit was set (delta time present on the first
// event). Running status is a local variable scoped to this call only.
func decodeEvents(buf []byte, z bool) ([]Event, error) {
	var events []Event
	var lastStatus byte
	haveStatus := false
	pos := 0
	for pos < len(buf) {
		var delta uint32
		if len(events) > 0 || z {
			d, n, err := decodeVLQ(buf[pos:])
			if err != nil {
				return events, parseErr("delta time", err)
			}
			delta = d
			pos += n
		}

		if pos >= len(buf) {
			return events, parseErr("event", ErrTruncated)
		}
		status := buf[pos]
		if status&0x80 != 0 {
			lastStatus = status
			haveStatus = true
			pos++
		} else {
			if !haveStatus {
				return events, parseErr("event", ErrRunningStatusUnderflow)
			}
			status = lastStatus
		}

		ev := Event{DeltaTime: delta, Kind: Kind(status & 0xF0), Channel: status & 0x0F}
		switch ev.Kind {
		case KindNoteOn, KindNoteOff:
			if pos+2 > len(buf) {
				return events, parseErr("note event", ErrTruncated)
			}
			ev.Key = buf[pos]
			ev.Velocity = buf[pos+1]
			pos += 2
		case KindAftertouch:
			if pos+2 > len(buf) {
				return events, parseErr("aftertouch event", ErrTruncated)
			}
			ev.Key = buf[pos]
			ev.Touch = buf[pos+1]
			pos += 2
		case KindControlModeChange:
			if pos+2 > len(buf) {
				return events, parseErr("control change event", ErrTruncated)
			}
			ev.Controller = buf[pos]
			ev.Value = buf[pos+1]
			pos += 2
		default:
			ev.Kind = KindOther
			tail := make([]byte, 0, len(buf)-pos+1)
			tail = append(tail, status)
			tail = append(tail, buf[pos:]...)
			ev.Other = tail
			pos = len(buf)
		}
		events = append(events, ev)
	}
	return events, nil
}

// encodeEvents renders an event list. Status bytes are always emitted (no
// running-status compression on encode). It reports whether the first
// event's delta time must be written (the command-section Z bit).
func encodeEvents(events []Event) (buf []byte, z bool, err error) {
	if len(events) > 0 {
		z = events[0].DeltaTime != 0
	}
	for i, ev := range events {
		if i > 0 || z {
			buf = append(buf, encodeVLQ(ev.DeltaTime)...)
		}
		if ev.Kind == KindOther {
			if len(ev.Other) == 0 {
				return nil, false, buildErr("event", ErrTruncated)
			}
			buf = append(buf, ev.Other...)
			continue
		}
		status := byte(ev.Kind) | (ev.Channel & 0x0F)
		buf = append(buf, status)
		switch ev.Kind {
		case KindNoteOn, KindNoteOff:
			buf = append(buf, ev.Key, ev.Velocity)
		case KindAftertouch:
			buf = append(buf, ev.Key, ev.Touch)
		case KindControlModeChange:
			buf = append(buf, ev.Controller, ev.Value)
		}
	}
	if len(buf) > 0x0FFF {
		return nil, false, buildErr("event list", ErrLengthOverflow)
	}
	return buf, z, nil
}
