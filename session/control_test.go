package session

import (
	"net"
	"testing"

	"github.com/laenzlinger/rtpmidi-go/applemidi"
	"github.com/laenzlinger/rtpmidi-go/peer"
)

func TestControlProtocol_InvitationAcceptedAndReplies(t *testing.T) {
	var repliedTo *net.UDPAddr
	var repliedPkt applemidi.ExchangePacket
	c := NewControlProtocol(7, "local", func(addr *net.UDPAddr, buf []byte) error {
		repliedTo = addr
		pkt, err := applemidi.DecodeExchange(buf)
		if err != nil {
			t.Fatalf("reply did not decode: %v", err)
		}
		repliedPkt = pkt
		return nil
	}, testLogger())

	var connected *peer.Peer
	c.OnPeerConnected = func(p *peer.Peer) { connected = p }

	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 5004}
	buf, err := applemidi.EncodeExchange(applemidi.ExchangePacket{
		Command: applemidi.CommandInvitation, ProtocolVersion: 2, InitiatorToken: 99, SSRC: 1234, Name: "remote",
	})
	if err != nil {
		t.Fatalf("EncodeExchange: %v", err)
	}

	c.HandleMessage(buf, addr)

	if repliedTo != addr {
		t.Fatalf("replied to %v, want %v", repliedTo, addr)
	}
	if repliedPkt.Command != applemidi.CommandInvitationAccepted {
		t.Errorf("reply command = %q, want OK", repliedPkt.Command)
	}
	if repliedPkt.InitiatorToken != 99 {
		t.Errorf("reply InitiatorToken = %d, want 99", repliedPkt.InitiatorToken)
	}
	if repliedPkt.SSRC != 7 {
		t.Errorf("reply SSRC = %d, want 7", repliedPkt.SSRC)
	}
	if c.Peers.Len() != 1 {
		t.Errorf("Peers.Len() = %d, want 1", c.Peers.Len())
	}
	if connected == nil || connected.SSRC != 1234 {
		t.Errorf("OnPeerConnected called with %v, want SSRC 1234", connected)
	}
}

func TestControlProtocol_DuplicateInvitationIgnored(t *testing.T) {
	var replies int
	c := NewControlProtocol(7, "local", func(addr *net.UDPAddr, buf []byte) error {
		replies++
		return nil
	}, testLogger())

	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 5004}
	buf, _ := applemidi.EncodeExchange(applemidi.ExchangePacket{
		Command: applemidi.CommandInvitation, ProtocolVersion: 2, SSRC: 1234,
	})

	c.HandleMessage(buf, addr)
	c.HandleMessage(buf, addr)

	if replies != 1 {
		t.Errorf("replies = %d, want 1 (duplicate invitation is dropped, prior registration retained, no second OK)", replies)
	}
	if c.Peers.Len() != 1 {
		t.Errorf("Peers.Len() = %d, want 1", c.Peers.Len())
	}
}

func TestControlProtocol_ExitForUnknownSSRCIgnored(t *testing.T) {
	var replies int
	c := NewControlProtocol(7, "local", func(addr *net.UDPAddr, buf []byte) error {
		replies++
		return nil
	}, testLogger())

	buf, _ := applemidi.EncodeExchange(applemidi.ExchangePacket{Command: applemidi.CommandExit, SSRC: 404})
	c.HandleMessage(buf, &net.UDPAddr{})

	if replies != 0 {
		t.Error("BY for unknown SSRC should not reply")
	}
	if c.Peers.Len() != 0 {
		t.Error("Peers.Len() should remain 0")
	}
}

func TestControlProtocol_ExitRemovesPeer(t *testing.T) {
	c := NewControlProtocol(7, "local", func(addr *net.UDPAddr, buf []byte) error { return nil }, testLogger())
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 5004}

	in, _ := applemidi.EncodeExchange(applemidi.ExchangePacket{Command: applemidi.CommandInvitation, SSRC: 1234})
	c.HandleMessage(in, addr)

	var disconnected *peer.Peer
	c.OnPeerDisconnected = func(p *peer.Peer) { disconnected = p }

	by, _ := applemidi.EncodeExchange(applemidi.ExchangePacket{Command: applemidi.CommandExit, SSRC: 1234})
	c.HandleMessage(by, addr)

	if c.Peers.Len() != 0 {
		t.Errorf("Peers.Len() = %d, want 0 after BY", c.Peers.Len())
	}
	if disconnected == nil || disconnected.SSRC != 1234 {
		t.Errorf("OnPeerDisconnected called with %v, want SSRC 1234", disconnected)
	}
}
