// Package config implements layered configuration (CLI flags > env vars >
// defaults) and structured log setup for the cmd/ binaries, mirroring the
// reference codebase's internal/config package.
package config

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// envPrefix is the prefix for all rtpmidi environment variables.
const envPrefix = "RTPMIDI_"

const (
	defaultBindHost    = "0.0.0.0"
	defaultPort        = 5051
	defaultServiceName = "rtpmidi-go"
	defaultTarget      = "0.0.0.0:5004"
	defaultNote        = "B6"
	defaultInterval    = "500ms"
)

// ServerConfig holds runtime configuration for cmd/rtpmidi-server.
type ServerConfig struct {
	BindHost    string
	Port        int
	BindAddrs   []string // repeatable --bind_addr host:port, in addition to BindHost:Port
	Verbose     bool
	Advertise   bool
	ServiceName string
}

type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// LoadServer parses server configuration from CLI flags (args, typically
// os.Args[1:]) with environment-variable fallback and hard defaults.
// Precedence: CLI flags > env vars > defaults.
func LoadServer(fs *flag.FlagSet, args []string) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	var bindAddrs stringList

	fs.StringVar(&cfg.BindHost, "bind_host", defaultBindHost, "host to bind the control/data sockets on")
	fs.IntVar(&cfg.Port, "port", defaultPort, "control port (data port is port+1)")
	fs.Var(&bindAddrs, "bind_addr", "additional host:port session binding (may be repeated)")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "enable debug-level logging")
	fs.BoolVar(&cfg.Advertise, "advertise", false, "advertise _apple-midi._udp via zeroconf/Bonjour")
	fs.StringVar(&cfg.ServiceName, "name", defaultServiceName, "Bonjour/RTP-MIDI session name")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	applyServerEnvOverrides(fs, cfg)
	cfg.BindAddrs = bindAddrs
	return cfg, nil
}

func applyServerEnvOverrides(fs *flag.FlagSet, cfg *ServerConfig) {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["bind_host"] {
		if v, ok := os.LookupEnv(envPrefix + "BIND_HOST"); ok && v != "" {
			cfg.BindHost = v
		}
	}
	if !set["port"] {
		if v, ok := os.LookupEnv(envPrefix + "PORT"); ok && v != "" {
			if p, err := strconv.Atoi(v); err == nil {
				cfg.Port = p
			}
		}
	}
	if !set["verbose"] {
		if v, ok := os.LookupEnv(envPrefix + "VERBOSE"); ok {
			cfg.Verbose = v == "1" || strings.EqualFold(v, "true")
		}
	}
	if !set["advertise"] {
		if v, ok := os.LookupEnv(envPrefix + "ADVERTISE"); ok {
			cfg.Advertise = v == "1" || strings.EqualFold(v, "true")
		}
	}
	if !set["name"] {
		if v, ok := os.LookupEnv(envPrefix + "NAME"); ok && v != "" {
			cfg.ServiceName = v
		}
	}
}

// ClientConfig holds runtime configuration for cmd/rtpmidi-client.
type ClientConfig struct {
	BindHost string
	BindPort int
	Target   string
	Verbose  bool
	Note     string
	Interval string
}

// LoadClient parses client configuration from CLI flags with
// environment-variable fallback and hard defaults.
func LoadClient(fs *flag.FlagSet, args []string) (*ClientConfig, error) {
	cfg := &ClientConfig{}

	fs.StringVar(&cfg.BindHost, "bind_host", defaultBindHost, "local host to send from")
	fs.IntVar(&cfg.BindPort, "bind_port", defaultPort, "local source control port (source data port is bind_port+1)")
	fs.StringVar(&cfg.Target, "target", defaultTarget, "remote host:port to connect to")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "enable debug-level logging")
	fs.StringVar(&cfg.Note, "note", defaultNote, "note name to strike, e.g. B6")
	fs.StringVar(&cfg.Interval, "interval", defaultInterval, "interval between note on/off pairs, e.g. 500ms")

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	applyClientEnvOverrides(fs, cfg)
	return cfg, nil
}

func applyClientEnvOverrides(fs *flag.FlagSet, cfg *ClientConfig) {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if !set["bind_host"] {
		if v, ok := os.LookupEnv(envPrefix + "BIND_HOST"); ok && v != "" {
			cfg.BindHost = v
		}
	}
	if !set["target"] {
		if v, ok := os.LookupEnv(envPrefix + "TARGET"); ok && v != "" {
			cfg.Target = v
		}
	}
	if !set["verbose"] {
		if v, ok := os.LookupEnv(envPrefix + "VERBOSE"); ok {
			cfg.Verbose = v == "1" || strings.EqualFold(v, "true")
		}
	}
	if !set["note"] {
		if v, ok := os.LookupEnv(envPrefix + "NOTE"); ok && v != "" {
			cfg.Note = v
		}
	}
}

// NewLogger returns a log/slog.Logger at LevelDebug when verbose, else
// LevelInfo, writing text-formatted records to w.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
