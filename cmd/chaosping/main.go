// chaosping checks that a Chaosnet responder answers: it sends an RFC and
// expects an OPN, then optionally exchanges DAT/ACK and CLS/CLS.
//
// The outcome is printed and, with -output, written as JSON. The exit code
// is 0 only when every exchange passed.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/pterm/pterm"

	"github.com/brfid/brfid.github.io-sub000/internal/chaos"
	"github.com/brfid/brfid.github.io-sub000/internal/config"
	"github.com/brfid/brfid.github.io-sub000/internal/util"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shimHost := flag.String("shim-host", "172.20.0.50", "Chaosnet responder host")
	shimPort := flag.Int("shim-port", chaos.Port, "Chaosnet responder UDP port")
	srcHost := flag.String("src-host", "0x0001", "Chaosnet source host of the probe (hex or decimal)")
	srcSubnet := flag.String("src-subnet", "0x01", "Chaosnet source subnet of the probe")
	pdp10Host := flag.String("pdp10-host", "0x7700", "Chaosnet host to contact")
	pdp10Subnet := flag.String("pdp10-subnet", "0x01", "Chaosnet subnet to contact")
	timeout := flag.Duration("timeout", DefaultTimeout, "Time to wait for each reply")
	data := flag.String("data", "", "After OPN, send this as DAT and then close with CLS")
	output := flag.String("output", "", "Write the JSON result to this file")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	var opts Options
	var err error
	words := []struct {
		dst  *uint16
		flag string
		raw  string
	}{
		{&opts.Src.Host, "src-host", *srcHost},
		{&opts.Src.Subnet, "src-subnet", *srcSubnet},
		{&opts.Dst.Host, "pdp10-host", *pdp10Host},
		{&opts.Dst.Subnet, "pdp10-subnet", *pdp10Subnet},
	}
	for _, w := range words {
		if *w.dst, err = config.ParseWord(w.raw); err != nil {
			util.LogError("-%s: %v", w.flag, err)
			os.Exit(1)
		}
	}
	opts.Host = *shimHost
	opts.Port = *shimPort
	opts.Timeout = *timeout
	opts.Data = []byte(*data)
	opts.RunID = uuid.NewString()

	pterm.DefaultSection.Println("Chaosnet connectivity check")
	util.LogInfo("responder %s:%d, target %s", opts.Host, opts.Port, opts.Dst)

	res := Ping(ctx, opts)
	for _, s := range res.Steps {
		if s.Status == StatusPass {
			pterm.Success.Printfln("%s -> %s in %dms from %s", s.Sent, s.Received, s.ResponseTimeMS, s.From)
		} else {
			pterm.Error.Printfln("%s: %s (%s)", s.Sent, s.Status, s.Message)
		}
	}

	if *output != "" {
		if err := res.WriteJSON(*output); err != nil {
			util.LogError("failed to write result: %v", err)
			os.Exit(1)
		}
		util.LogInfo("result written to %s", *output)
	}

	if res.Status != StatusPass {
		os.Exit(1)
	}
}
