package shim

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Defaults match the Phase 2 container topology.
const (
	DefaultBindAddress     = "0.0.0.0"
	DefaultPDP10ListenPort = 2001
	DefaultIMPListenPort   = 2000
	DefaultPDP10Host       = "172.20.0.40"
	DefaultPDP10TargetPort = 2000
	DefaultIMPHost         = "172.20.0.30"
	DefaultIMPTargetPort   = 2000
	DefaultStatsInterval   = 10 * time.Second
)

// Config is the shim's startup configuration.
type Config struct {
	BindAddress     string
	PDP10ListenPort int // receives raw payloads from the PDP-10
	IMPListenPort   int // receives H316 envelopes from IMP2

	PDP10Host       string
	PDP10TargetPort int
	IMPHost         string
	IMPTargetPort   int

	// StatsInterval is the period of the counter log line. Zero selects
	// DefaultStatsInterval; negative disables the line.
	StatsInterval time.Duration
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		BindAddress:     DefaultBindAddress,
		PDP10ListenPort: DefaultPDP10ListenPort,
		IMPListenPort:   DefaultIMPListenPort,
		PDP10Host:       DefaultPDP10Host,
		PDP10TargetPort: DefaultPDP10TargetPort,
		IMPHost:         DefaultIMPHost,
		IMPTargetPort:   DefaultIMPTargetPort,
		StatsInterval:   DefaultStatsInterval,
	}
}

// Validate checks port ranges and that the two listen ports differ.
func (c Config) Validate() error {
	ports := []struct {
		name string
		port int
	}{
		{"pdp10-port", c.PDP10ListenPort},
		{"imp-port", c.IMPListenPort},
		{"pdp10-target-port", c.PDP10TargetPort},
		{"imp-target-port", c.IMPTargetPort},
	}
	for _, p := range ports {
		if p.port < 0 || p.port > 65535 {
			return fmt.Errorf("invalid %s %d (must be 0~65535)", p.name, p.port)
		}
	}
	if c.PDP10ListenPort != 0 && c.PDP10ListenPort == c.IMPListenPort {
		return fmt.Errorf("pdp10-port and imp-port must differ (both %d)", c.PDP10ListenPort)
	}
	if c.PDP10TargetPort == 0 || c.IMPTargetPort == 0 {
		return fmt.Errorf("target ports must be non-zero")
	}
	return nil
}

func (c Config) pdp10Listen() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.PDP10ListenPort))
}

func (c Config) impListen() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.IMPListenPort))
}
