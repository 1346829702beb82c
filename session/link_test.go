package session

import (
	"net"
	"testing"

	"github.com/laenzlinger/rtpmidi-go/applemidi"
)

func TestLink_MirrorsPeerTable(t *testing.T) {
	control := NewControlProtocol(1, "local", func(addr *net.UDPAddr, buf []byte) error { return nil }, testLogger())
	data := NewDataProtocol(1, nil, testLogger())
	Link(control, data)

	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 5004}
	in, _ := applemidi.EncodeExchange(applemidi.ExchangePacket{Command: applemidi.CommandInvitation, SSRC: 55})
	control.HandleMessage(in, addr)

	if _, ok := data.Peers.Lookup(55); !ok {
		t.Fatal("data protocol should mirror the peer registered via control")
	}

	by, _ := applemidi.EncodeExchange(applemidi.ExchangePacket{Command: applemidi.CommandExit, SSRC: 55})
	control.HandleMessage(by, addr)

	if _, ok := data.Peers.Lookup(55); ok {
		t.Error("data protocol should mirror the peer removal via control")
	}
}
