package session

import (
	"encoding/hex"
	"log/slog"
	"net"

	"github.com/laenzlinger/rtpmidi-go/applemidi"
	"github.com/laenzlinger/rtpmidi-go/peer"
)

// SendFunc delivers an already-encoded packet to addr. The server and
// client façades supply this over their real UDP sockets; tests supply a
// recording stub.
type SendFunc func(addr *net.UDPAddr, buf []byte) error

// changeFunc mirrors a peer-table change from the control protocol into its
// paired data protocol. It is a plain function value, not a pointer cycle:
// Data never needs to reach back into Control.
type changeFunc func(added bool, ssrc uint32, p *peer.Peer)

// ControlProtocol reacts to AppleMIDI exchange packets (IN/OK/NO/BY)
// arriving on a session binding's control port. It owns the authoritative
// peer table for the binding.
type ControlProtocol struct {
	SSRC   uint32
	Name   string
	Peers  *peer.Table
	Logger *slog.Logger
	Send   SendFunc

	OnPeerConnected    func(*peer.Peer)
	OnPeerDisconnected func(*peer.Peer)

	onChange changeFunc
}

// NewControlProtocol constructs a ControlProtocol with its own peer table.
func NewControlProtocol(ssrc uint32, name string, send SendFunc, logger *slog.Logger) *ControlProtocol {
	if logger == nil {
		logger = slog.Default()
	}
	return &ControlProtocol{
		SSRC:   ssrc,
		Name:   name,
		Peers:  peer.NewTable(logger),
		Logger: logger,
		Send:   send,
	}
}

// HandleMessage decodes and reacts to one datagram received on the control
// port. Malformed packets and protocol violations are logged and dropped;
// this never returns an error to the caller, matching the "keep running"
// failure semantics for untrusted network input.
func (c *ControlProtocol) HandleMessage(buf []byte, addr *net.UDPAddr) {
	pkt, err := applemidi.DecodeExchange(buf)
	if err != nil {
		c.Logger.Warn("control: malformed exchange packet", "addr", addr, "err", err, "hex", hex.EncodeToString(buf))
		return
	}

	switch pkt.Command {
	case applemidi.CommandInvitation:
		c.handleInvitation(pkt, addr)
	case applemidi.CommandExit:
		c.handleExit(pkt)
	default:
		c.Logger.Warn("control: unhandled command", "command", pkt.Command, "addr", addr, "err", ErrUnknownCommand)
	}
}

func (c *ControlProtocol) handleInvitation(pkt applemidi.ExchangePacket, addr *net.UDPAddr) {
	p := &peer.Peer{Name: pkt.Name, Addr: addr, SSRC: pkt.SSRC}
	registered, didRegister := c.Peers.Register(p)
	if !didRegister {
		return // Register already warned about the collision
	}

	reply := applemidi.ExchangePacket{
		Command:         applemidi.CommandInvitationAccepted,
		ProtocolVersion: applemidi.ProtocolVersion,
		InitiatorToken:  pkt.InitiatorToken,
		SSRC:            c.SSRC,
		Name:            c.Name,
	}
	if err := c.reply(addr, reply); err != nil {
		c.Logger.Warn("control: failed to send OK", "addr", addr, "err", err)
	}

	if c.onChange != nil {
		c.onChange(true, registered.SSRC, registered)
	}
	if c.OnPeerConnected != nil {
		c.OnPeerConnected(registered)
	}
}

func (c *ControlProtocol) handleExit(pkt applemidi.ExchangePacket) {
	p, ok := c.Peers.Unregister(pkt.SSRC)
	if !ok {
		c.Logger.Warn("control: BY for unknown peer", "ssrc", pkt.SSRC)
		return
	}
	if c.onChange != nil {
		c.onChange(false, pkt.SSRC, nil)
	}
	if c.OnPeerDisconnected != nil {
		c.OnPeerDisconnected(p)
	}
}

func (c *ControlProtocol) reply(addr *net.UDPAddr, pkt applemidi.ExchangePacket) error {
	if c.Send == nil {
		return nil
	}
	buf, err := applemidi.EncodeExchange(pkt)
	if err != nil {
		return err
	}
	return c.Send(addr, buf)
}
