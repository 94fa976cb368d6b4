// hi1probe captures HI1 framing evidence from the IMP2 and PDP-10 logs and
// writes a Markdown artifact (plus an optional PDF copy).
//
// By default both logs are read from the running containers with
// `docker logs`; -imp2-log and -pdp10-log read saved log files instead.
// The probe never starts or stops containers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"

	"github.com/brfid/brfid.github.io-sub000/internal/probe"
	"github.com/brfid/brfid.github.io-sub000/internal/util"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	now := time.Now().UTC()

	imp2Tail := flag.Int("imp2-tail", probe.DefaultIMP2Tail, "IMP2 log lines to inspect")
	pdp10Tail := flag.Int("pdp10-tail", probe.DefaultPDP10Tail, "PDP-10 log lines to inspect")
	sampleLimit := flag.Int("sample-limit", probe.DefaultSampleLimit, "Maximum sample lines per section")
	imp2Log := flag.String("imp2-log", "", "Read IMP2 log from this file instead of the container")
	pdp10Log := flag.String("pdp10-log", "", "Read PDP-10 log from this file instead of the container")
	imp2Container := flag.String("imp2-container", probe.DefaultIMP2Container, "IMP2 container name")
	pdp10Container := flag.String("pdp10-container", probe.DefaultPDP10Container, "PDP-10 container name")
	output := flag.String("output", probe.DefaultArtifactPath(now), "Markdown artifact path")
	pdfOutput := flag.String("pdf", "", "Also write a PDF copy of the artifact to this path")
	debugMode := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	if *debugMode {
		util.EnableDebug()
	}

	opts := probe.Options{
		IMP2:        source(*imp2Log, *imp2Container),
		PDP10:       source(*pdp10Log, *pdp10Container),
		IMP2Tail:    *imp2Tail,
		PDP10Tail:   *pdp10Tail,
		SampleLimit: *sampleLimit,
		Output:      *output,
		PDFOutput:   *pdfOutput,
		CaptureID:   uuid.NewString(),
		Now:         func() time.Time { return now },
	}
	if err := opts.Validate(); err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	pterm.DefaultSection.Println("HI1 framing probe")
	util.LogInfo("capture %s: imp2=%s pdp10=%s", opts.CaptureID, opts.IMP2.Name(), opts.PDP10.Name())

	res, err := probe.Run(ctx, opts)
	if err != nil {
		util.LogError("%v", err)
		os.Exit(1)
	}

	for _, w := range res.Warnings {
		util.LogWarning("%s", w)
	}

	ev := res.Report.Evidence
	util.LogInfo("bad-magic events: %d (%d distinct), HI1 samples: %d, PDP-10 markers: %d",
		ev.BadMagicTotal(), len(ev.BadMagic), len(ev.HI1Samples), len(ev.PDP10Markers))

	pterm.Success.Println(fmt.Sprintf("wrote %s", res.Output))
	if res.PDF != "" {
		pterm.Success.Println(fmt.Sprintf("wrote %s", res.PDF))
	}
}

func source(path, container string) probe.Source {
	if path != "" {
		return probe.FileSource{Path: path}
	}
	return probe.DockerSource{Container: container}
}
