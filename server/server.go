// Package server implements the RTP-MIDI/AppleMIDI server façade: it binds
// one or more (host, port) session bindings, owns their control and data
// protocol instances, and fans out received events to registered handlers.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"sync"
	"time"

	"github.com/laenzlinger/rtpmidi-go/peer"
	"github.com/laenzlinger/rtpmidi-go/rtp"
	"github.com/laenzlinger/rtpmidi-go/session"
)

// protocolHandler is satisfied by both session.ControlProtocol and
// session.DataProtocol.
type protocolHandler interface {
	HandleMessage(buf []byte, addr *net.UDPAddr)
}

type binding struct {
	controlConn net.PacketConn
	dataConn    net.PacketConn
	control     *session.ControlProtocol
	data        *session.DataProtocol
}

type datagram struct {
	protocol protocolHandler
	buf      []byte
	addr     *net.UDPAddr
}

// Server binds N session bindings and dispatches received datagrams to
// registered Handlers.
type Server struct {
	Name   string
	SSRC   uint32
	Logger *slog.Logger

	mu       sync.RWMutex
	handlers map[Handler]struct{}
	bindings []*binding
	incoming chan datagram
}

// New constructs a Server with a randomly chosen local SSRC.
func New(name string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		Name:     name,
		SSRC:     rand.Uint32(),
		Logger:   logger,
		handlers: make(map[Handler]struct{}),
		incoming: make(chan datagram),
	}
}

// AddHandler registers h to receive events from every current and future
// binding.
func (s *Server) AddHandler(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[h] = struct{}{}
}

// RemoveHandler unregisters h.
func (s *Server) RemoveHandler(h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.handlers, h)
}

// Bind opens a control socket at (host, port) and a data socket at
// (host, port+1), wiring a linked ControlProtocol/DataProtocol pair that
// fans its events out to this server's handlers.
func (s *Server) Bind(host string, port uint16) error {
	controlAddr := fmt.Sprintf("%s:%d", host, port)

	s.mu.RLock()
	for _, b := range s.bindings {
		if b.controlConn.LocalAddr().String() == controlAddr {
			s.mu.RUnlock()
			return ErrAlreadyBound
		}
	}
	s.mu.RUnlock()

	controlConn, err := net.ListenPacket("udp", controlAddr)
	if err != nil {
		return &BindError{Addr: controlAddr, Err: err}
	}
	dataAddr := fmt.Sprintf("%s:%d", host, port+1)
	dataConn, err := net.ListenPacket("udp", dataAddr)
	if err != nil {
		controlConn.Close()
		return &BindError{Addr: dataAddr, Err: err}
	}

	control := session.NewControlProtocol(s.SSRC, s.Name, sendFunc(controlConn), s.Logger)
	data := session.NewDataProtocol(s.SSRC, sendFunc(dataConn), s.Logger)
	session.Link(control, data)
	control.OnPeerConnected = s.fanOutPeerConnected
	control.OnPeerDisconnected = s.fanOutPeerDisconnected
	data.OnMIDICommands = s.fanOutMIDICommands

	s.mu.Lock()
	s.bindings = append(s.bindings, &binding{
		controlConn: controlConn,
		dataConn:    dataConn,
		control:     control,
		data:        data,
	})
	s.mu.Unlock()
	return nil
}

func sendFunc(conn net.PacketConn) session.SendFunc {
	return func(addr *net.UDPAddr, buf []byte) error {
		_, err := conn.WriteTo(buf, addr)
		return err
	}
}

func (s *Server) fanOutPeerConnected(p *peer.Peer) {
	for h := range s.snapshotHandlers() {
		h.OnPeerConnected(p)
	}
}

func (s *Server) fanOutPeerDisconnected(p *peer.Peer) {
	for h := range s.snapshotHandlers() {
		h.OnPeerDisconnected(p)
	}
}

func (s *Server) fanOutMIDICommands(p *peer.Peer, msg *rtp.MIDIMessage) {
	for h := range s.snapshotHandlers() {
		h.OnMIDICommands(p, msg)
	}
}

func (s *Server) snapshotHandlers() map[Handler]struct{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Handler]struct{}, len(s.handlers))
	for h := range s.handlers {
		out[h] = struct{}{}
	}
	return out
}

// ServeForever reads from every bound socket and dispatches each datagram
// fully (including all handler callbacks) before the next is dispatched;
// each socket's reader goroutine may already hold its next datagram. It runs
// until ctx is canceled, then closes all sockets and returns nil.
func (s *Server) ServeForever(ctx context.Context) error {
	s.mu.RLock()
	bindings := append([]*binding(nil), s.bindings...)
	s.mu.RUnlock()

	readerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	for _, b := range bindings {
		wg.Add(2)
		go s.readLoop(readerCtx, &wg, b.controlConn, b.control)
		go s.readLoop(readerCtx, &wg, b.dataConn, b.data)
	}

	for {
		select {
		case <-ctx.Done():
			cancel()
			for _, b := range bindings {
				b.controlConn.Close()
				b.dataConn.Close()
			}
			wg.Wait()
			return nil
		case d := <-s.incoming:
			d.protocol.HandleMessage(d.buf, d.addr)
		}
	}
}

func (s *Server) readLoop(ctx context.Context, wg *sync.WaitGroup, conn net.PacketConn, protocol protocolHandler) {
	defer wg.Done()
	buf := make([]byte, 1500)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.Logger.Warn("server: read error", "err", err)
			return
		}
		udpAddr, ok := addr.(*net.UDPAddr)
		if !ok {
			continue
		}
		cp := make([]byte, n)
		copy(cp, buf[:n])
		select {
		case s.incoming <- datagram{protocol: protocol, buf: cp, addr: udpAddr}:
		case <-ctx.Done():
			return
		}
	}
}

// LoopOnce processes at most one datagram per bound socket, returning after
// timeout if none arrive. It is meant for tests: a bounded single-iteration
// wait implemented with SetReadDeadline rather than a real multiplexed
// select.
func (s *Server) LoopOnce(timeout time.Duration) error {
	s.mu.RLock()
	bindings := append([]*binding(nil), s.bindings...)
	s.mu.RUnlock()

	deadline := time.Now().Add(timeout)
	buf := make([]byte, 1500)
	for _, b := range bindings {
		for _, sock := range []struct {
			conn     net.PacketConn
			protocol protocolHandler
		}{
			{b.controlConn, b.control},
			{b.dataConn, b.data},
		} {
			sock.conn.SetReadDeadline(deadline)
			n, addr, err := sock.conn.ReadFrom(buf)
			if err != nil {
				continue // timeout or transient error: nothing arrived on this socket
			}
			udpAddr, ok := addr.(*net.UDPAddr)
			if !ok {
				continue
			}
			sock.protocol.HandleMessage(buf[:n], udpAddr)
		}
	}
	return nil
}

// Close releases every bound socket.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var first error
	for _, b := range s.bindings {
		if err := b.controlConn.Close(); err != nil && first == nil {
			first = err
		}
		if err := b.dataConn.Close(); err != nil && first == nil {
			first = err
		}
	}
	s.bindings = nil
	return first
}
