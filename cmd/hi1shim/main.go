// hi1shim relays between a PDP-10 KS10 IMP interface that speaks raw UDP
// payloads and an IMP2 HI1 port that expects H316-framed envelopes.
//
// Every flag may also come from the shim and logs sections of a -config YAML
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

	"github.com/brfid/brfid.github.io-sub000/internal/config"
	"github.com/brfid/brfid.github.io-sub000/internal/monitor"
	"github.com/brfid/brfid.github.io-sub000/internal/shim"
	"github.com/brfid/brfid.github.io-sub000/internal/util"
)

var version = "dev"

func main() {
	// Root context, cancelled on Ctrl+C or SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := flag.String("config", "", "Optional YAML config file")
	bind := flag.String("bind", shim.DefaultBindAddress, "Bind address for both listen sockets")
	pdp10Port := flag.Int("pdp10-port", shim.DefaultPDP10ListenPort, "UDP port receiving raw payloads from the PDP-10")
	impPort := flag.Int("imp-port", shim.DefaultIMPListenPort, "UDP port receiving H316 envelopes from IMP2")
	pdp10Host := flag.String("pdp10-host", shim.DefaultPDP10Host, "PDP-10 host to deliver unwrapped payloads to")
	pdp10TargetPort := flag.Int("pdp10-target-port", shim.DefaultPDP10TargetPort, "PDP-10 UDP port")
	impHost := flag.String("imp-host", shim.DefaultIMPHost, "IMP2 host to deliver envelopes to")
	impTargetPort := flag.Int("imp-target-port", shim.DefaultIMPTargetPort, "IMP2 UDP port")
	statsInterval := flag.Duration("stats-interval", shim.DefaultStatsInterval, "Counter log period, negative to disable")
	logLevel := flag.String("log-level", config.DefaultLogLevel, "Log level: DEBUG, INFO, WARNING or ERROR")
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
		case "bind":
			file.Shim.Bind = *bind
		case "pdp10-port":
			file.Shim.PDP10Port = *pdp10Port
		case "imp-port":
			file.Shim.IMPPort = *impPort
		case "pdp10-host":
			file.Shim.PDP10Host = *pdp10Host
		case "pdp10-target-port":
			file.Shim.PDP10TargetPort = *pdp10TargetPort
		case "imp-host":
			file.Shim.IMPHost = *impHost
		case "imp-target-port":
			file.Shim.IMPTargetPort = *impTargetPort
		case "stats-interval":
			file.Shim.StatsInterval = *statsInterval
		case "log-level":
			file.Logs.Level = *logLevel
		case "log-file":
			file.Logs.File = *logFile
		case "monitor":
			file.Monitor.Listen = *monitorAddr
		}
	})

	logs, err := file.ApplyLogs()
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}
	defer logs.Close()

	pterm.Info.Println(fmt.Sprintf("HI1 shim v%s", version))

	if err := run(ctx, file); err != nil {
		util.LogError("%v", err)
		logs.Close()
		os.Exit(1)
	}
	util.LogInfo("shutdown complete")
}

func run(ctx context.Context, file config.File) error {
	s, err := shim.New(ctx, file.ShimConfig())
	if err != nil {
		return fmt.Errorf("failed to start shim: %w", err)
	}

	if file.Monitor.Listen != "" {
		mon := monitor.NewServer(shim.Name, s, file.Monitor.Interval)
		addr, err := mon.Start(file.Monitor.Listen)
		if err != nil {
			return err
		}
		defer mon.Close()
		util.LogInfo("monitor serving on http://%s", addr)
	}

	if err := s.Run(ctx); err != nil {
		return fmt.Errorf("shim stopped: %w", err)
	}
	util.LogInfo("interrupted, shim stopped")
	return nil
}
