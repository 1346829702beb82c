// Command rtpmidi-server runs an RTP-MIDI/AppleMIDI server that accepts
// invitations from peers and logs every MIDI command it receives.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/grandcat/zeroconf"
	"github.com/laenzlinger/rtpmidi-go/internal/config"
	"github.com/laenzlinger/rtpmidi-go/midi"
	"github.com/laenzlinger/rtpmidi-go/peer"
	"github.com/laenzlinger/rtpmidi-go/rtp"
	"github.com/laenzlinger/rtpmidi-go/server"
)

type logHandler struct {
	logger *slog.Logger
}

func (h *logHandler) OnPeerConnected(p *peer.Peer) {
	h.logger.Info("peer connected", "name", p.Name, "ssrc", p.SSRC, "addr", p.Addr)
}

func (h *logHandler) OnPeerDisconnected(p *peer.Peer) {
	h.logger.Info("peer disconnected", "name", p.Name, "ssrc", p.SSRC)
}

func (h *logHandler) OnMIDICommands(p *peer.Peer, msg *rtp.MIDIMessage) {
	for _, ev := range msg.Events {
		switch ev.Kind {
		case rtp.KindNoteOn:
			h.logger.Info("note_on", "peer", p.Name, "note", midi.NameForKey(ev.Key), "velocity", ev.Velocity)
		case rtp.KindNoteOff:
			h.logger.Info("note_off", "peer", p.Name, "note", midi.NameForKey(ev.Key), "velocity", ev.Velocity)
		case rtp.KindAftertouch:
			h.logger.Info("aftertouch", "peer", p.Name, "note", midi.NameForKey(ev.Key), "touch", ev.Touch)
		case rtp.KindControlModeChange:
			h.logger.Info("control_mode_change", "peer", p.Name, "controller", ev.Controller, "value", ev.Value)
		default:
			if h.logger.Enabled(context.Background(), slog.LevelDebug) {
				h.logger.Debug("other event", "peer", p.Name, "bytes", hex.EncodeToString(ev.Other))
			}
		}
	}
}

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("rtpmidi-server", flag.ContinueOnError)
	cfg, err := config.LoadServer(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logger := config.NewLogger(os.Stdout, cfg.Verbose)

	s := server.New(cfg.ServiceName, logger)
	s.AddHandler(&logHandler{logger: logger})

	if err := s.Bind(cfg.BindHost, uint16(cfg.Port)); err != nil {
		logger.Error("bind failed", "err", err)
		return 1
	}
	for _, addr := range cfg.BindAddrs {
		host, port, err := splitHostPort(addr)
		if err != nil {
			logger.Error("invalid bind_addr", "addr", addr, "err", err)
			return 1
		}
		if err := s.Bind(host, port); err != nil {
			logger.Error("bind failed", "addr", addr, "err", err)
			return 1
		}
	}

	if cfg.Advertise {
		zc, err := zeroconf.Register(cfg.ServiceName, "_apple-midi._udp", "local.", cfg.Port, []string{"txtv=0", "lo=1", "la=2"}, nil)
		if err != nil {
			logger.Warn("zeroconf registration failed", "err", err)
		} else {
			defer zc.Shutdown()
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info("shutting down")
		cancel()
	}()

	if err := s.ServeForever(ctx); err != nil {
		logger.Error("server exited with error", "err", err)
		return 1
	}
	return 0
}

func splitHostPort(addr string) (string, uint16, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, err
	}
	return host, uint16(port), nil
}
