// Command rtpmidi-client connects to an RTP-MIDI/AppleMIDI peer and strikes
// a configurable note on a fixed interval, matching the reference Python
// example client's send_note_on/send_note_off loop.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/laenzlinger/rtpmidi-go/client"
	"github.com/laenzlinger/rtpmidi-go/internal/config"
	"github.com/laenzlinger/rtpmidi-go/midi"
)

func main() {
	os.Exit(run())
}

func run() int {
	fs := flag.NewFlagSet("rtpmidi-client", flag.ContinueOnError)
	cfg, err := config.LoadClient(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logger := config.NewLogger(os.Stdout, cfg.Verbose)

	key, err := midi.KeyForName(cfg.Note)
	if err != nil {
		logger.Error("invalid note", "note", cfg.Note, "err", err)
		return 2
	}
	interval, err := time.ParseDuration(cfg.Interval)
	if err != nil {
		logger.Error("invalid interval", "interval", cfg.Interval, "err", err)
		return 2
	}
	targetHost, targetPortStr, err := net.SplitHostPort(cfg.Target)
	if err != nil {
		logger.Error("invalid target", "target", cfg.Target, "err", err)
		return 2
	}
	targetPort, err := strconv.ParseUint(targetPortStr, 10, 16)
	if err != nil {
		logger.Error("invalid target port", "target", cfg.Target, "err", err)
		return 2
	}

	c := client.New("rtpmidi-go", cfg.BindHost, uint16(cfg.BindPort), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	logger.Info("connecting", "target", cfg.Target)
	err = c.Connect(ctx, targetHost, uint16(targetPort))
	cancel()
	if err != nil {
		logger.Error("connect failed", "err", err)
		return 1
	}
	defer c.Disconnect()
	logger.Info("connected")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sig:
			logger.Info("shutting down")
			return 0
		default:
		}

		logger.Info("striking key", "note", cfg.Note)
		if err := c.SendNoteOn(0, key, 80); err != nil {
			logger.Warn("send note_on failed", "err", err)
		}
		time.Sleep(interval)
		if err := c.SendNoteOff(0, key, 80); err != nil {
			logger.Warn("send note_off failed", "err", err)
		}
		time.Sleep(interval)
	}
}
