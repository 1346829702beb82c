package config

import (
	"flag"
	"testing"
)

func TestLoadServer_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := LoadServer(fs, nil)
	if err != nil {
		t.Fatalf("LoadServer: %v", err)
	}
	if cfg.Port != defaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, defaultPort)
	}
	if cfg.BindHost != defaultBindHost {
		t.Errorf("BindHost = %q, want %q", cfg.BindHost, defaultBindHost)
	}
	if cfg.ServiceName != defaultServiceName {
		t.Errorf("ServiceName = %q, want %q", cfg.ServiceName, defaultServiceName)
	}
}

func TestLoadServer_FlagOverridesEnv(t *testing.T) {
	t.Setenv(envPrefix+"PORT", "6000")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := LoadServer(fs, []string{"-port", "7000"})
	if err != nil {
		t.Fatalf("LoadServer: %v", err)
	}
	if cfg.Port != 7000 {
		t.Errorf("Port = %d, want 7000 (flag should win over env)", cfg.Port)
	}
}

func TestLoadServer_EnvOverridesDefault(t *testing.T) {
	t.Setenv(envPrefix+"PORT", "6000")
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := LoadServer(fs, nil)
	if err != nil {
		t.Fatalf("LoadServer: %v", err)
	}
	if cfg.Port != 6000 {
		t.Errorf("Port = %d, want 6000 (env should win over default)", cfg.Port)
	}
}

func TestLoadServer_RepeatedBindAddr(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := LoadServer(fs, []string{"-bind_addr", "127.0.0.1:6000", "-bind_addr", "127.0.0.1:7000"})
	if err != nil {
		t.Fatalf("LoadServer: %v", err)
	}
	if len(cfg.BindAddrs) != 2 {
		t.Fatalf("BindAddrs = %v, want 2 entries", cfg.BindAddrs)
	}
}

func TestLoadClient_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	cfg, err := LoadClient(fs, nil)
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.Target != defaultTarget {
		t.Errorf("Target = %q, want %q", cfg.Target, defaultTarget)
	}
	if cfg.Note != defaultNote {
		t.Errorf("Note = %q, want %q", cfg.Note, defaultNote)
	}
}

func TestNewLogger_Level(t *testing.T) {
	logger := NewLogger(nopWriter{}, true)
	if !logger.Enabled(nil, -4) { // slog.LevelDebug == -4
		t.Error("verbose logger should be enabled at debug level")
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
