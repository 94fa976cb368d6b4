package probe

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Options configures one probe capture.
type Options struct {
	IMP2  Source
	PDP10 Source

	IMP2Tail    int
	PDP10Tail   int
	SampleLimit int

	Output    string // Markdown artifact path
	PDFOutput string // optional PDF companion; empty to skip

	CaptureID string
	Now       func() time.Time
}

// Validate checks that every tuning knob is positive.
func (o Options) Validate() error {
	if o.IMP2 == nil || o.PDP10 == nil {
		return errors.New("both log sources are required")
	}
	knobs := []struct {
		name  string
		value int
	}{
		{"imp2-tail", o.IMP2Tail},
		{"pdp10-tail", o.PDP10Tail},
		{"sample-limit", o.SampleLimit},
	}
	for _, k := range knobs {
		if k.value <= 0 {
			return fmt.Errorf("%s must be > 0 (got %d)", k.name, k.value)
		}
	}
	if o.Output == "" {
		return errors.New("output path is required")
	}
	return nil
}

// Result describes a written artifact.
type Result struct {
	Report   Report
	Output   string
	PDF      string
	Warnings []string // log sources that could not be read
}

// Run reads both log tails, extracts the evidence and writes the artifact.
// An unreadable log source is recorded as a capture note rather than an
// error; only failing to write the artifact is fatal.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	res := &Result{Output: opts.Output}

	imp2Log, err := opts.IMP2.Tail(ctx, opts.IMP2Tail)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("IMP2 log unavailable (%s): %v", opts.IMP2.Name(), err))
	}
	pdp10Log, err := opts.PDP10.Tail(ctx, opts.PDP10Tail)
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("PDP-10 log unavailable (%s): %v", opts.PDP10.Name(), err))
	}

	notes := []string{}
	if opts.CaptureID != "" {
		notes = append(notes, "Capture ID: "+opts.CaptureID)
	}
	notes = append(notes,
		fmt.Sprintf("IMP2 log tail: %d", opts.IMP2Tail),
		fmt.Sprintf("PDP-10 log tail: %d", opts.PDP10Tail),
		fmt.Sprintf("Sample limit: %d", opts.SampleLimit),
	)
	notes = append(notes, res.Warnings...)

	res.Report = Report{
		Generated: now(),
		Notes:     notes,
		Evidence:  Extract(imp2Log, pdp10Log, opts.SampleLimit),
	}

	if err := res.Report.WriteMarkdown(opts.Output); err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}
	if opts.PDFOutput != "" {
		if err := res.Report.WritePDF(opts.PDFOutput); err != nil {
			return nil, fmt.Errorf("write pdf artifact: %w", err)
		}
		res.PDF = opts.PDFOutput
	}
	return res, nil
}
