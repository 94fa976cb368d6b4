package bridge

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/brfid/brfid.github.io-sub000/internal/chaos"
)

// Defaults for the ITS host the bridge answers for.
const (
	DefaultPDP10Host      uint16 = 0x7700
	DefaultPDP10Subnet    uint16 = 0x01
	DefaultBindAddress           = "0.0.0.0"
	DefaultArpanetGateway        = "172.20.0.30"
)

// ReceiveTimeout bounds each blocking read so the loop can notice shutdown.
const ReceiveTimeout = 1 * time.Second

// Config is the bridge's startup configuration.
type Config struct {
	PDP10       chaos.Address // the host this bridge speaks for
	BindAddress string
	ListenPort  int

	// ArpanetGateway receives packets for other destinations when Forward
	// is set; otherwise they are only logged. GatewayPort zero means the
	// bridge's own listen port.
	ArpanetGateway string
	GatewayPort    int
	Forward        bool

	// StatsInterval enables a periodic counter log line when positive.
	StatsInterval time.Duration
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		PDP10:          chaos.Address{Host: DefaultPDP10Host, Subnet: DefaultPDP10Subnet},
		BindAddress:    DefaultBindAddress,
		ListenPort:     chaos.Port,
		ArpanetGateway: DefaultArpanetGateway,
	}
}

// Validate checks port ranges.
func (c Config) Validate() error {
	if c.ListenPort < 0 || c.ListenPort > 65535 {
		return fmt.Errorf("invalid listen-port %d (must be 0~65535)", c.ListenPort)
	}
	if c.GatewayPort < 0 || c.GatewayPort > 65535 {
		return fmt.Errorf("invalid gateway port %d (must be 0~65535)", c.GatewayPort)
	}
	if c.Forward && c.ArpanetGateway == "" {
		return fmt.Errorf("forwarding enabled without an arpanet-gateway")
	}
	return nil
}

func (c Config) listen() string {
	return net.JoinHostPort(c.BindAddress, strconv.Itoa(c.ListenPort))
}
