// Package probe summarizes HI1 framing mismatches from IMP2 and PDP-10 log
// tails into an evidence artifact. It only reads logs; it never starts or
// stops containers.
package probe

import (
	"regexp"
	"sort"
	"strings"
)

// Default knobs and container names.
const (
	DefaultIMP2Tail    = 2000
	DefaultPDP10Tail   = 500
	DefaultSampleLimit = 20

	DefaultIMP2Container  = "arpanet-imp2"
	DefaultPDP10Container = "arpanet-pdp10"
)

var (
	badMagicRE = regexp.MustCompile(`bad magic number \(magic=([0-9a-fA-F]+)\)`)
	hi1RE      = regexp.MustCompile(`(?i)HI1 UDP:.*`)
)

// pdp10Markers are the lower-case substrings that flag PDP-10 IMP runtime lines.
var pdp10Markers = []string{
	"imp network interface",
	"attach imp",
	"imp dhcp",
	"opened os device",
	"dskdmp",
}

// knownBadMagics were previously correlated with Ethernet/ARP-style payloads
// reaching HI1 on the KS-10 path.
var knownBadMagics = []string{"feffffff", "00000219", "ffffffff"}

// MagicCount is one row of the bad-magic summary.
type MagicCount struct {
	Magic string // lower-case hex as logged
	Count int
}

// Evidence is what Extract pulls out of the two log tails.
type Evidence struct {
	BadMagic     []MagicCount // sorted by count desc, then magic
	HI1Samples   []string
	PDP10Markers []string
}

// BadMagicTotal returns the number of bad-magic lines seen.
func (e Evidence) BadMagicTotal() int {
	total := 0
	for _, m := range e.BadMagic {
		total += m.Count
	}
	return total
}

// HasKnownPattern reports whether any previously correlated magic appeared.
func (e Evidence) HasKnownPattern() bool {
	for _, m := range e.BadMagic {
		for _, known := range knownBadMagics {
			if m.Magic == known {
				return true
			}
		}
	}
	return false
}

// Extract scans the IMP2 and PDP-10 log text. Sample lists are capped at
// sampleLimit entries each.
func Extract(imp2Log, pdp10Log string, sampleLimit int) Evidence {
	var ev Evidence

	counts := map[string]int{}
	for _, m := range badMagicRE.FindAllStringSubmatch(imp2Log, -1) {
		counts[strings.ToLower(m[1])]++
	}
	for magic, n := range counts {
		ev.BadMagic = append(ev.BadMagic, MagicCount{Magic: magic, Count: n})
	}
	sort.Slice(ev.BadMagic, func(i, j int) bool {
		a, b := ev.BadMagic[i], ev.BadMagic[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Magic < b.Magic
	})

	for _, line := range splitLines(imp2Log) {
		if len(ev.HI1Samples) >= sampleLimit {
			break
		}
		if hi1RE.MatchString(line) {
			ev.HI1Samples = append(ev.HI1Samples, line)
		}
	}

	for _, line := range splitLines(pdp10Log) {
		if len(ev.PDP10Markers) >= sampleLimit {
			break
		}
		if hasMarker(line) {
			ev.PDP10Markers = append(ev.PDP10Markers, line)
		}
	}

	return ev
}

func hasMarker(line string) bool {
	lower := strings.ToLower(line)
	for _, marker := range pdp10Markers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
}
