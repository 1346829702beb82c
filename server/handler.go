package server

import (
	"github.com/laenzlinger/rtpmidi-go/peer"
	"github.com/laenzlinger/rtpmidi-go/rtp"
)

// Handler is the outward contract to user code: the set of events a bound
// server fans out to. It is not part of the wire-protocol core.
type Handler interface {
	OnPeerConnected(p *peer.Peer)
	OnPeerDisconnected(p *peer.Peer)
	OnMIDICommands(p *peer.Peer, msg *rtp.MIDIMessage)
}
