// chaosbridge answers Chaosnet RFC, DAT and CLS datagrams on behalf of an
// ITS host, for peers that speak Chaosnet over UDP.
//
// Flags may also come from the bridge and logs sections of a -config YAML
// file; flags given on the command line take precedence.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"

	"github.com/brfid/brfid.github.io-sub000/internal/bridge"
	"github.com/brfid/brfid.github.io-sub000/internal/chaos"
	"github.com/brfid/brfid.github.io-sub000/internal/config"
	"github.com/brfid/brfid.github.io-sub000/internal/monitor"
	"github.com/brfid/brfid.github.io-sub000/internal/util"
)

var version = "dev"

func main() {
	// Root context, cancelled on Ctrl+C or SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := flag.String("config", "", "Optional YAML config file")
	pdp10Host := flag.String("pdp10-host", fmt.Sprintf("0x%04X", bridge.DefaultPDP10Host), "Chaosnet host address of the PDP-10 (hex or decimal)")
	pdp10Subnet := flag.String("pdp10-subnet", fmt.Sprintf("0x%02X", bridge.DefaultPDP10Subnet), "Chaosnet subnet of the PDP-10 (hex or decimal)")
	listenPort := flag.Int("listen-port", chaos.Port, "UDP port to listen on")
	bind := flag.String("bind", bridge.DefaultBindAddress, "Bind address")
	gateway := flag.String("arpanet-gateway", bridge.DefaultArpanetGateway, "Gateway for packets addressed to other hosts")
	gatewayPort := flag.Int("gateway-port", 0, "Gateway UDP port (0 uses the listen port)")
	forward := flag.Bool("forward", false, "Forward packets for other hosts to the gateway instead of only logging them")
	statsInterval := flag.Duration("stats-interval", 0, "Counter log period, 0 to disable")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	logFile := flag.String("log-file", "", "Also write logs to this rotating file")
	monitorAddr := flag.String("monitor", "", "Serve counters over HTTP and WebSocket on this address")
	flag.Parse()

	file := config.Default()
	if *configPath != "" {
		var err error
		if file, err = config.Load(*configPath); err != nil {
			util.LogError("failed to load config: %v", err)
			os.Exit(1)
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "pdp10-host":
			file.Bridge.PDP10Host = *pdp10Host
		case "pdp10-subnet":
			file.Bridge.PDP10Subnet = *pdp10Subnet
		case "listen-port":
			file.Bridge.ListenPort = *listenPort
		case "bind":
			file.Bridge.Bind = *bind
		case "arpanet-gateway":
			file.Bridge.ArpanetGateway = *gateway
		case "gateway-port":
			file.Bridge.GatewayPort = *gatewayPort
		case "forward":
			file.Bridge.Forward = *forward
		case "stats-interval":
			file.Bridge.StatsInterval = *statsInterval
		case "log-file":
			file.Logs.File = *logFile
		case "monitor":
			file.Monitor.Listen = *monitorAddr
		}
	})
	if *debugMode {
		file.Logs.Level = "DEBUG"
	}

	logs, err := file.ApplyLogs()
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
	defer logs.Close()

	cfg, err := file.BridgeConfig()
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	pterm.Info.Println(fmt.Sprintf("Chaosnet bridge v%s", version))

	if err := run(ctx, cfg, file.Monitor); err != nil {
		util.LogError("%v", err)
		logs.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg bridge.Config, mon config.MonitorSection) error {
	b, err := bridge.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to start bridge: %w", err)
	}

	if mon.Listen != "" {
		srv := monitor.NewServer(bridge.Name, b, mon.Interval)
		addr, err := srv.Start(mon.Listen)
		if err != nil {
			return err
		}
		defer srv.Close()
		util.LogInfo("monitor serving on http://%s", addr)
	}

	runErr := b.Run(ctx)
	if runErr == nil {
		util.LogInfo("interrupted, bridge stopped")
	}

	pterm.Println()
	if err := util.PrintSnapshot("Chaosnet bridge statistics", b.Counters()); err != nil {
		util.LogWarning("failed to print statistics: %v", err)
	}

	if runErr != nil {
		return fmt.Errorf("bridge stopped: %w", runErr)
	}
	return nil
}
