// Package client implements the RTP-MIDI/AppleMIDI client façade: it
// initiates a session with a remote peer and sends MIDI commands to it.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"time"

	"github.com/laenzlinger/rtpmidi-go/applemidi"
	"github.com/laenzlinger/rtpmidi-go/rtp"
	"github.com/laenzlinger/rtpmidi-go/session"
)

const inviteTimeout = 3 * time.Second

// Client owns two outgoing UDP sockets (source ports P and P+1) and
// composes RTP-MIDI data packets with a monotonic sequence number.
type Client struct {
	Name   string
	SSRC   uint32
	Logger *slog.Logger

	localHost string
	localPort uint16

	controlConn net.Conn
	dataConn    net.Conn
	sequence    uint16
	start       time.Time
}

// New constructs a Client that will bind its outgoing sockets at
// (localHost, localPort) and (localHost, localPort+1).
func New(name, localHost string, localPort uint16, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		Name:      name,
		SSRC:      rand.Uint32(),
		Logger:    logger,
		localHost: localHost,
		localPort: localPort,
		sequence:  1,
	}
}

// Connect dials the peer's control and data ports and performs the
// invitation handshake on each, in that order. Both must answer OK.
func (c *Client) Connect(ctx context.Context, host string, port uint16) error {
	controlConn, err := c.dial(host, port, c.localPort)
	if err != nil {
		return err
	}
	dataConn, err := c.dial(host, port+1, c.localPort+1)
	if err != nil {
		controlConn.Close()
		return err
	}

	deadline := time.Now().Add(inviteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	token := rand.Uint32()
	if err := c.invite(controlConn, token, deadline); err != nil {
		controlConn.Close()
		dataConn.Close()
		return err
	}
	if err := c.invite(dataConn, token, deadline); err != nil {
		controlConn.Close()
		dataConn.Close()
		return err
	}

	c.controlConn = controlConn
	c.dataConn = dataConn
	c.start = time.Now()
	return nil
}

func (c *Client) dial(host string, port uint16, sourcePort uint16) (net.Conn, error) {
	raddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
	if err != nil {
		return nil, err
	}
	laddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", c.localHost, sourcePort))
	if err != nil {
		return nil, err
	}
	return net.DialUDP("udp", laddr, raddr)
}

func (c *Client) invite(conn net.Conn, token uint32, deadline time.Time) error {
	out, err := applemidi.EncodeExchange(applemidi.ExchangePacket{
		Command: applemidi.CommandInvitation, ProtocolVersion: applemidi.ProtocolVersion,
		InitiatorToken: token, SSRC: c.SSRC, Name: c.Name,
	})
	if err != nil {
		return err
	}
	if _, err := conn.Write(out); err != nil {
		return err
	}

	conn.SetReadDeadline(deadline)
	buf := make([]byte, 128)
	n, err := conn.Read(buf)
	if err != nil {
		return ErrInviteTimeout
	}
	reply, err := applemidi.DecodeExchange(buf[:n])
	if err != nil {
		c.Logger.Warn("client: malformed invitation reply", "err", err)
		return ErrInviteTimeout
	}
	switch reply.Command {
	case applemidi.CommandInvitationAccepted:
		return nil
	case applemidi.CommandInvitationRejected:
		return ErrInviteRejected
	default:
		return ErrInviteTimeout
	}
}

// SendNoteOn sends a single note_on event on the given channel.
func (c *Client) SendNoteOn(channel, key, velocity byte) error {
	return c.SendCommands([]rtp.Event{{Kind: rtp.KindNoteOn, Channel: channel & 0x0F, Key: key, Velocity: velocity}})
}

// SendNoteOff sends a single note_off event on the given channel.
func (c *Client) SendNoteOff(channel, key, velocity byte) error {
	return c.SendCommands([]rtp.Event{{Kind: rtp.KindNoteOff, Channel: channel & 0x0F, Key: key, Velocity: velocity}})
}

// SendCommands builds and sends a MIDI packet carrying events, with the
// canonical envelope, current sequence number, current timestamp, local
// SSRC, and an empty journal (J=0).
func (c *Client) SendCommands(events []rtp.Event) error {
	ts := uint32(time.Since(c.start) / session.Unit100us)
	msg := rtp.NewMessage(c.SSRC, c.sequence, ts, events)
	buf, err := rtp.Encode(msg)
	if err != nil {
		return err
	}
	c.sequence++
	_, err = c.dataConn.Write(buf)
	return err
}

// Disconnect sends a BY exchange packet on the control socket only (the
// reference implementation does not send BY on the data socket; this
// replicates that asymmetry) and closes both sockets.
func (c *Client) Disconnect() error {
	out, err := applemidi.EncodeExchange(applemidi.ExchangePacket{
		Command: applemidi.CommandExit, ProtocolVersion: applemidi.ProtocolVersion, SSRC: c.SSRC,
	})
	if err == nil && c.controlConn != nil {
		c.controlConn.Write(out)
	}
	var first error
	if c.controlConn != nil {
		if err := c.controlConn.Close(); err != nil {
			first = err
		}
	}
	if c.dataConn != nil {
		if err := c.dataConn.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
