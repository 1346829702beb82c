package session

import (
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"net"

	"github.com/laenzlinger/rtpmidi-go/applemidi"
	"github.com/laenzlinger/rtpmidi-go/peer"
	"github.com/laenzlinger/rtpmidi-go/rtp"
)

const preamble = uint16(0xFFFF)

// DataProtocol reacts to datagrams arriving on a session binding's data
// port: CK timestamp-sync packets and RTP-MIDI data packets. Its peer
// table is a mirror of the paired ControlProtocol's, kept in sync via Link.
type DataProtocol struct {
	SSRC   uint32
	Peers  *peer.Table
	Clock  Clock
	Logger *slog.Logger
	Send   SendFunc

	OnMIDICommands func(*peer.Peer, *rtp.MIDIMessage)
}

// NewDataProtocol constructs a DataProtocol. Its peer table starts empty;
// use Link to mirror a ControlProtocol's table into it.
func NewDataProtocol(ssrc uint32, send SendFunc, logger *slog.Logger) *DataProtocol {
	if logger == nil {
		logger = slog.Default()
	}
	return &DataProtocol{
		SSRC:   ssrc,
		Peers:  peer.NewTable(logger),
		Clock:  DefaultClock,
		Logger: logger,
		Send:   send,
	}
}

// Link mirrors control's peer-table changes into data's table: every
// successful Register/Unregister on control is replayed on data. This is
// the one-way Control -> Data relationship the session binding requires;
// Data never reaches back into Control.
func Link(control *ControlProtocol, data *DataProtocol) {
	control.onChange = func(added bool, ssrc uint32, p *peer.Peer) {
		if added {
			data.Peers.Register(p)
		} else {
			data.Peers.Unregister(ssrc)
		}
	}
}

// HandleMessage decodes and reacts to one datagram received on the data
// port.
func (d *DataProtocol) HandleMessage(buf []byte, addr *net.UDPAddr) {
	if len(buf) >= 4 && binary.BigEndian.Uint16(buf[0:2]) == preamble {
		if string(buf[2:4]) == applemidi.CommandTimestampSync {
			d.handleTimestamp(buf, addr)
			return
		}
		d.Logger.Warn("data: unhandled exchange command", "addr", addr, "hex", hex.EncodeToString(buf[:4]), "err", ErrUnknownCommand)
		return
	}

	msg, err := rtp.Decode(buf)
	if err != nil {
		d.Logger.Warn("data: malformed MIDI packet", "addr", addr, "err", err)
		return
	}
	p, ok := d.Peers.Lookup(msg.Header.SSRC)
	if !ok {
		d.Logger.Debug("data: MIDI packet from unknown peer dropped", "ssrc", msg.Header.SSRC, "addr", addr)
		return
	}
	if d.OnMIDICommands != nil {
		d.OnMIDICommands(p, msg)
	}
}

func (d *DataProtocol) handleTimestamp(buf []byte, addr *net.UDPAddr) {
	pkt, err := applemidi.DecodeTimestamp(buf)
	if err != nil {
		d.Logger.Warn("data: malformed CK packet", "addr", addr, "err", err)
		return
	}
	reply, shouldReply := d.Step(pkt)
	if !shouldReply {
		return
	}
	out, err := applemidi.EncodeTimestamp(reply)
	if err != nil || d.Send == nil {
		return
	}
	if err := d.Send(addr, out); err != nil {
		d.Logger.Warn("data: failed to send CK reply", "addr", addr, "err", err)
	}
}

// Step advances the three-step CK clock-sync handshake for one received
// packet and returns the reply to send (if any). It has no socket
// dependency: the data port's receive path drives it, and tests exercise
// it directly with a fake Clock, including the initiator's count=1 step.
func (d *DataProtocol) Step(pkt applemidi.TimestampPacket) (reply applemidi.TimestampPacket, shouldReply bool) {
	now := d.clock().Now100us()
	switch pkt.Count {
	case 0:
		return applemidi.TimestampPacket{SSRC: d.SSRC, Count: 1, T1: pkt.T1, T2: now, T3: 0}, true
	case 1:
		return applemidi.TimestampPacket{SSRC: d.SSRC, Count: 2, T1: pkt.T1, T2: pkt.T2, T3: now}, true
	case 2:
		offset := (pkt.T3 + pkt.T1) / 2 - pkt.T2
		d.Logger.Debug("data: CK offset estimate", "ssrc", pkt.SSRC, "offset_100us", offset)
		return applemidi.TimestampPacket{}, false
	default:
		d.Logger.Warn("data: CK packet with invalid count", "count", pkt.Count)
		return applemidi.TimestampPacket{}, false
	}
}

func (d *DataProtocol) clock() Clock {
	if d.Clock == nil {
		return DefaultClock
	}
	return d.Clock
}
