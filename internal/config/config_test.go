package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brfid/brfid.github.io-sub000/internal/bridge"
	"github.com/brfid/brfid.github.io-sub000/internal/chaos"
	"github.com/brfid/brfid.github.io-sub000/internal/shim"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "relay.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultMatchesDaemonDefaults(t *testing.T) {
	f := Default()
	if got := f.ShimConfig(); got != shim.DefaultConfig() {
		t.Errorf("shim config = %+v, want %+v", got, shim.DefaultConfig())
	}
	got, err := f.BridgeConfig()
	if err != nil {
		t.Fatal(err)
	}
	if got != bridge.DefaultConfig() {
		t.Errorf("bridge config = %+v, want %+v", got, bridge.DefaultConfig())
	}
	opts := f.LogFileOptions()
	if opts.Path != "" || opts.MaxSizeMB != 25 || opts.MaxAgeDays != 7 || opts.MaxBackups != 5 {
		t.Errorf("unexpected log options %+v", opts)
	}
	if f.Logs.Level != "INFO" {
		t.Errorf("level = %q", f.Logs.Level)
	}
}

func TestLoadOverridesAndDefaults(t *testing.T) {
	path := writeConfig(t, `
shim:
  pdp10Port: 3001
  impHost: 10.0.0.3
  statsInterval: 30s
bridge:
  pdp10Host: "0o1440"
  pdp10Subnet: "6"
  forward: true
  gatewayPort: 1733
logs:
  level: debug
  file: logs/relay.log
  maxBackups: 2
monitor:
  listen: 127.0.0.1:9100
  interval: 5s
`)
	f, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	sc := f.ShimConfig()
	if sc.PDP10ListenPort != 3001 || sc.IMPHost != "10.0.0.3" || sc.StatsInterval != 30*time.Second {
		t.Errorf("shim overrides lost: %+v", sc)
	}
	if sc.IMPListenPort != shim.DefaultIMPListenPort || sc.PDP10Host != shim.DefaultPDP10Host {
		t.Errorf("shim defaults not filled: %+v", sc)
	}

	bc, err := f.BridgeConfig()
	if err != nil {
		t.Fatal(err)
	}
	if bc.PDP10 != (chaos.Address{Host: 0o1440, Subnet: 6}) || !bc.Forward || bc.GatewayPort != 1733 {
		t.Errorf("bridge overrides lost: %+v", bc)
	}
	if bc.ListenPort != chaos.Port || bc.ArpanetGateway != bridge.DefaultArpanetGateway {
		t.Errorf("bridge defaults not filled: %+v", bc)
	}

	want := filepath.Join(filepath.Dir(path), "logs", "relay.log")
	if f.Logs.File != want {
		t.Errorf("log file = %q, want %q", f.Logs.File, want)
	}
	if f.Logs.MaxBackups != 2 || f.Logs.MaxSizeMB != DefaultMaxSizeMB {
		t.Errorf("unexpected logs section %+v", f.Logs)
	}
	if f.Monitor.Listen != "127.0.0.1:9100" || f.Monitor.Interval != 5*time.Second {
		t.Errorf("unexpected monitor section %+v", f.Monitor)
	}
}

func TestLoadNegativeStatsIntervalDisables(t *testing.T) {
	f, err := Load(writeConfig(t, "shim:\n  statsInterval: -1s\n"))
	if err != nil {
		t.Fatal(err)
	}
	if f.ShimConfig().StatsInterval >= 0 {
		t.Fatalf("stats interval = %v", f.ShimConfig().StatsInterval)
	}
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    string
	}{
		{"unknown field", "shim:\n  bogus: 1\n", "bogus"},
		{"bad host", "bridge:\n  pdp10Host: zz\n", "pdp10Host"},
		{"subnet overflow", "bridge:\n  pdp10Subnet: 0x10000\n", "pdp10Subnet"},
		{"bad duration", "monitor:\n  interval: soon\n", "decode"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !os.IsNotExist(err) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestParseWord(t *testing.T) {
	testCases := []struct {
		in   string
		want uint16
		ok   bool
	}{
		{"0x7700", 0x7700, true},
		{"0X01", 1, true},
		{"1", 1, true},
		{" 30464 ", 30464, true},
		{"0o17", 15, true},
		{"65535", 65535, true},
		{"65536", 0, false},
		{"-1", 0, false},
		{"", 0, false},
	}
	for _, tc := range testCases {
		got, err := ParseWord(tc.in)
		if (err == nil) != tc.ok || got != tc.want {
			t.Errorf("ParseWord(%q) = %d, %v", tc.in, got, err)
		}
	}
}

func TestApplyLogsRejectsUnknownLevel(t *testing.T) {
	f := Default()
	f.Logs.Level = "LOUD"
	if _, err := f.ApplyLogs(); err == nil || !strings.Contains(err.Error(), "LOUD") {
		t.Fatalf("expected unknown level error, got %v", err)
	}
}
