// Package config loads the optional YAML file shared by the relay daemons.
// Every section is optional; missing values take the daemon defaults, and
// command-line flags set explicitly on top of the file win over it.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brfid/brfid.github.io-sub000/internal/bridge"
	"github.com/brfid/brfid.github.io-sub000/internal/chaos"
	"github.com/brfid/brfid.github.io-sub000/internal/shim"
	"github.com/brfid/brfid.github.io-sub000/internal/util"
)

// Log rotation defaults.
const (
	DefaultLogLevel   = "INFO"
	DefaultMaxSizeMB  = 25
	DefaultMaxAgeDays = 7
	DefaultMaxBackups = 5
)

type ShimSection struct {
	Bind            string        `yaml:"bind"`
	PDP10Port       int           `yaml:"pdp10Port"`
	IMPPort         int           `yaml:"impPort"`
	PDP10Host       string        `yaml:"pdp10Host"`
	PDP10TargetPort int           `yaml:"pdp10TargetPort"`
	IMPHost         string        `yaml:"impHost"`
	IMPTargetPort   int           `yaml:"impTargetPort"`
	StatsInterval   time.Duration `yaml:"statsInterval"`
}

type BridgeSection struct {
	PDP10Host      string        `yaml:"pdp10Host"`
	PDP10Subnet    string        `yaml:"pdp10Subnet"`
	Bind           string        `yaml:"bind"`
	ListenPort     int           `yaml:"listenPort"`
	ArpanetGateway string        `yaml:"arpanetGateway"`
	GatewayPort    int           `yaml:"gatewayPort"`
	Forward        bool          `yaml:"forward"`
	StatsInterval  time.Duration `yaml:"statsInterval"`
}

type LogSection struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

type MonitorSection struct {
	Listen   string        `yaml:"listen"`
	Interval time.Duration `yaml:"interval"`
}

// File is the decoded configuration file.
type File struct {
	Shim    ShimSection    `yaml:"shim"`
	Bridge  BridgeSection  `yaml:"bridge"`
	Logs    LogSection     `yaml:"logs"`
	Monitor MonitorSection `yaml:"monitor"`
}

// Default returns the configuration used when no file is given.
func Default() File {
	var f File
	f.fillDefaults()
	return f
}

// Load reads and decodes path, then fills defaults. A relative log file path
// is resolved against the directory holding the config file.
func Load(path string) (File, error) {
	var f File
	fh, err := os.Open(path)
	if err != nil {
		return f, err
	}
	defer fh.Close()

	dec := yaml.NewDecoder(fh)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return f, fmt.Errorf("decode %s: %w", path, err)
	}

	if p := strings.TrimSpace(f.Logs.File); p != "" && !filepath.IsAbs(p) {
		f.Logs.File = filepath.Clean(filepath.Join(filepath.Dir(path), p))
	}
	f.fillDefaults()

	if _, err := f.BridgeConfig(); err != nil {
		return f, err
	}
	return f, nil
}

func (f *File) fillDefaults() {
	d := shim.DefaultConfig()
	if f.Shim.Bind == "" {
		f.Shim.Bind = d.BindAddress
	}
	if f.Shim.PDP10Port == 0 {
		f.Shim.PDP10Port = d.PDP10ListenPort
	}
	if f.Shim.IMPPort == 0 {
		f.Shim.IMPPort = d.IMPListenPort
	}
	if f.Shim.PDP10Host == "" {
		f.Shim.PDP10Host = d.PDP10Host
	}
	if f.Shim.PDP10TargetPort == 0 {
		f.Shim.PDP10TargetPort = d.PDP10TargetPort
	}
	if f.Shim.IMPHost == "" {
		f.Shim.IMPHost = d.IMPHost
	}
	if f.Shim.IMPTargetPort == 0 {
		f.Shim.IMPTargetPort = d.IMPTargetPort
	}
	if f.Shim.StatsInterval == 0 {
		f.Shim.StatsInterval = d.StatsInterval
	}

	b := bridge.DefaultConfig()
	if f.Bridge.PDP10Host == "" {
		f.Bridge.PDP10Host = fmt.Sprintf("0x%04X", b.PDP10.Host)
	}
	if f.Bridge.PDP10Subnet == "" {
		f.Bridge.PDP10Subnet = fmt.Sprintf("0x%02X", b.PDP10.Subnet)
	}
	if f.Bridge.Bind == "" {
		f.Bridge.Bind = b.BindAddress
	}
	if f.Bridge.ListenPort == 0 {
		f.Bridge.ListenPort = b.ListenPort
	}
	if f.Bridge.ArpanetGateway == "" {
		f.Bridge.ArpanetGateway = b.ArpanetGateway
	}

	if f.Logs.Level == "" {
		f.Logs.Level = DefaultLogLevel
	}
	if f.Logs.MaxSizeMB <= 0 {
		f.Logs.MaxSizeMB = DefaultMaxSizeMB
	}
	if f.Logs.MaxAgeDays <= 0 {
		f.Logs.MaxAgeDays = DefaultMaxAgeDays
	}
	if f.Logs.MaxBackups <= 0 {
		f.Logs.MaxBackups = DefaultMaxBackups
	}
}

// ShimConfig converts the shim section.
func (f File) ShimConfig() shim.Config {
	return shim.Config{
		BindAddress:     f.Shim.Bind,
		PDP10ListenPort: f.Shim.PDP10Port,
		IMPListenPort:   f.Shim.IMPPort,
		PDP10Host:       f.Shim.PDP10Host,
		PDP10TargetPort: f.Shim.PDP10TargetPort,
		IMPHost:         f.Shim.IMPHost,
		IMPTargetPort:   f.Shim.IMPTargetPort,
		StatsInterval:   f.Shim.StatsInterval,
	}
}

// BridgeConfig converts the bridge section. It fails if the host or subnet
// is not a 16-bit number.
func (f File) BridgeConfig() (bridge.Config, error) {
	host, err := ParseWord(f.Bridge.PDP10Host)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("bridge.pdp10Host: %w", err)
	}
	subnet, err := ParseWord(f.Bridge.PDP10Subnet)
	if err != nil {
		return bridge.Config{}, fmt.Errorf("bridge.pdp10Subnet: %w", err)
	}
	return bridge.Config{
		PDP10:          chaos.Address{Host: host, Subnet: subnet},
		BindAddress:    f.Bridge.Bind,
		ListenPort:     f.Bridge.ListenPort,
		ArpanetGateway: f.Bridge.ArpanetGateway,
		GatewayPort:    f.Bridge.GatewayPort,
		Forward:        f.Bridge.Forward,
		StatsInterval:  f.Bridge.StatsInterval,
	}, nil
}

// LogFileOptions converts the logs section. Path is empty when no file
// sink is configured.
func (f File) LogFileOptions() util.LogFileOptions {
	return util.LogFileOptions{
		Path:       f.Logs.File,
		MaxSizeMB:  f.Logs.MaxSizeMB,
		MaxAgeDays: f.Logs.MaxAgeDays,
		MaxBackups: f.Logs.MaxBackups,
		Compress:   f.Logs.Compress,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ApplyLogs sets the log level and, when a file is configured, installs the
// rotating sink. The returned closer is always non-nil.
func (f File) ApplyLogs() (io.Closer, error) {
	if err := util.SetLevel(f.Logs.Level); err != nil {
		return nil, err
	}
	if f.Logs.File == "" {
		return nopCloser{}, nil
	}
	return util.SetLogFile(f.LogFileOptions())
}

// ParseWord parses a 16-bit value written in decimal, 0x hex or 0o octal.
func ParseWord(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid 16-bit value %q", s)
	}
	return uint16(v), nil
}
