package util

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
)

// Sample is one named counter value.
type Sample struct {
	Name  string
	Value uint64
}

// Snapshot is an ordered set of counter values taken at one instant.
type Snapshot []Sample

// Get returns the value of the named counter, or 0 if absent.
func (s Snapshot) Get(name string) uint64 {
	for _, c := range s {
		if c.Name == name {
			return c.Value
		}
	}
	return 0
}

// String renders the snapshot as "name=value" pairs in order.
func (s Snapshot) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = c.Name + "=" + strconv.FormatUint(c.Value, 10)
	}
	return strings.Join(parts, " ")
}

// MarshalJSON encodes the snapshot as an object keyed by counter name,
// preserving counter order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('{')
	for i, c := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		name, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		b.Write(name)
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(c.Value, 10))
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// CounterSource is implemented by anything that can report its counters.
type CounterSource interface {
	Counters() Snapshot
}

// StartCounterReporter launches a goroutine that logs a counter line for src
// every interval. It stops when ctx is cancelled. A non-positive interval
// disables reporting.
func StartCounterReporter(ctx context.Context, interval time.Duration, src CounterSource) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				LogInfo("counters %s", src.Counters())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// PrintSnapshot renders the snapshot as a table on stdout.
func PrintSnapshot(title string, s Snapshot) error {
	data := pterm.TableData{{"counter", "value"}}
	for _, c := range s {
		data = append(data, []string{c.Name, strconv.FormatUint(c.Value, 10)})
	}
	pterm.DefaultSection.Println(title)
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
