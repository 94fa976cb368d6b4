package probe

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brfid/brfid.github.io-sub000/internal/h316"
)

const (
	interpretationBadMagic = "IMP2 HI1 is receiving ingress packets but rejecting framing at the parser boundary " +
		"(`bad magic`, expected `%08x`). This keeps focus on native header-contract compatibility work."
	interpretationKnown = "Observed magic patterns include values previously correlated with Ethernet/ARP-style " +
		"payloads on the KS-10 path. Prioritize native host-link/header-contract validation " +
		"before considering any fallback framing adapter."
	interpretationNone = "No bad-magic evidence in this capture window; re-run during active PDP-10 IMP traffic " +
		"or increase log tail depth."
)

// Report is the rendered input of an artifact.
type Report struct {
	Generated time.Time
	Notes     []string // extra "- note" lines under the header
	Evidence  Evidence
}

// Interpretation returns the paragraphs of the interpretation section.
func (r Report) Interpretation() []string {
	if len(r.Evidence.BadMagic) == 0 {
		return []string{interpretationNone}
	}
	paras := []string{fmt.Sprintf(interpretationBadMagic, h316.Magic)}
	if r.Evidence.HasKnownPattern() {
		paras = append(paras, interpretationKnown)
	}
	return paras
}

// Markdown renders the evidence artifact.
func (r Report) Markdown() string {
	var lines []string
	add := func(l ...string) { lines = append(lines, l...) }

	add("# HI1 Native-First Framing Evidence", "")
	add("- Generated: " + r.Generated.UTC().Format(time.RFC3339))
	add("- Source: `" + DefaultIMP2Container + "` and `" + DefaultPDP10Container + "` container logs")
	add("- Mode: non-orchestrating (no compose up/down)")
	for _, note := range r.Notes {
		add("- " + note)
	}
	add("")

	add("## Bad-Magic Summary", "")
	if len(r.Evidence.BadMagic) > 0 {
		add("| magic | count |", "|---|---:|")
		for _, m := range r.Evidence.BadMagic {
			add(fmt.Sprintf("| `%s` | %d |", m.Magic, m.Count))
		}
	} else {
		add("No `bad magic` markers detected in inspected IMP2 logs.")
	}
	add("")

	add("## IMP2 HI1 Sample Lines", "")
	if len(r.Evidence.HI1Samples) > 0 {
		add("```text")
		add(r.Evidence.HI1Samples...)
		add("```")
	} else {
		add("No HI1 UDP lines captured in inspected log window.")
	}
	add("")

	add("## PDP-10 Runtime Markers", "")
	if len(r.Evidence.PDP10Markers) > 0 {
		add("```text")
		add(r.Evidence.PDP10Markers...)
		add("```")
	} else {
		add("No key IMP runtime markers found in inspected PDP-10 log window.")
	}
	add("")

	add("## Interpretation", "")
	for i, p := range r.Interpretation() {
		if i > 0 {
			add("")
		}
		add(p)
	}
	add("")

	return strings.Join(lines, "\n") + "\n"
}

// WriteMarkdown writes the artifact, creating parent directories.
func (r Report) WriteMarkdown(path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(r.Markdown()), 0o644)
}

// DefaultArtifactPath returns build/arpanet/analysis/hi1-framing-matrix-<ts>.md.
func DefaultArtifactPath(now time.Time) string {
	ts := now.UTC().Format("20060102-150405Z")
	return filepath.Join("build", "arpanet", "analysis", "hi1-framing-matrix-"+ts+".md")
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	return nil
}
