package session

import (
	"bytes"
	"encoding/hex"
	"log/slog"
	"net"
	"strings"
	"testing"

	"github.com/laenzlinger/rtpmidi-go/applemidi"
	"github.com/laenzlinger/rtpmidi-go/peer"
	"github.com/laenzlinger/rtpmidi-go/rtp"
)

type fakeClock struct{ now uint64 }

func (f fakeClock) Now100us() uint64 { return f.now }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestDataProtocol_Step(t *testing.T) {
	d := NewDataProtocol(1, nil, testLogger())
	d.Clock = fakeClock{now: 5000}

	reply, ok := d.Step(applemidi.TimestampPacket{SSRC: 2, Count: 0, T1: 1000})
	if !ok {
		t.Fatal("Step(count=0) should produce a reply")
	}
	if reply.Count != 1 || reply.T1 != 1000 || reply.T2 != 5000 || reply.T3 != 0 {
		t.Errorf("reply = %+v, want count=1 T1=1000 T2=5000 T3=0", reply)
	}

	_, ok = d.Step(applemidi.TimestampPacket{SSRC: 2, Count: 2, T1: 1000, T2: 5000, T3: 6000})
	if ok {
		t.Error("Step(count=2) should not produce a reply")
	}
}

func TestCKHandshake_EqualClocksYieldsZeroOffset(t *testing.T) {
	clock := fakeClock{now: 42000}
	initiator := NewDataProtocol(1, nil, testLogger())
	initiator.Clock = clock
	responder := NewDataProtocol(2, nil, testLogger())
	responder.Clock = clock

	step1, ok := responder.Step(applemidi.TimestampPacket{SSRC: 1, Count: 0, T1: clock.now})
	if !ok {
		t.Fatal("responder.Step(count=0) should reply")
	}
	step2, ok := initiator.Step(step1)
	if !ok {
		t.Fatal("initiator.Step(count=1) should reply")
	}
	offset := (step2.T3 + step2.T1) / 2
	if offset < step2.T2 {
		t.Fatalf("unexpected underflow computing offset from %+v", step2)
	}
	got := offset - step2.T2
	if got != 0 {
		t.Errorf("offset = %d, want 0 for equal local clocks", got)
	}
}

func TestDataProtocol_HandleMessage_MIDIFromUnknownPeerDropped(t *testing.T) {
	var sent [][]byte
	d := NewDataProtocol(1, func(addr *net.UDPAddr, buf []byte) error {
		sent = append(sent, buf)
		return nil
	}, testLogger())

	buf := []byte{0x80, 0x61, 0, 1, 0, 0, 0, 0, 0, 0, 0, 99, 0x00}
	d.HandleMessage(buf, &net.UDPAddr{})
	if len(sent) != 0 {
		t.Error("unknown-peer MIDI packet should not trigger a reply")
	}
}

func TestDataProtocol_HandleMessage_MIDIFromKnownPeer(t *testing.T) {
	d := NewDataProtocol(1, nil, testLogger())
	known := &peer.Peer{SSRC: 1205342358}
	d.Peers.Register(known)

	var got *peer.Peer
	var gotEvents int
	d.OnMIDICommands = func(p *peer.Peer, msg *rtp.MIDIMessage) {
		got = p
		gotEvents = len(msg.Events)
	}

	buf := hexBytesForTest(t, "80 61 42 7a 4b 9f 30 36 47 d8 10 96 43 90 30 26 20 42 76 00 06 08 00 66 85")
	d.HandleMessage(buf, &net.UDPAddr{})

	if got != known {
		t.Fatalf("OnMIDICommands peer = %v, want %v", got, known)
	}
	if gotEvents != 1 {
		t.Errorf("OnMIDICommands event count = %d, want 1", gotEvents)
	}
}

func hexBytesForTest(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		t.Fatalf("bad hex fixture: %v", err)
	}
	return b
}
