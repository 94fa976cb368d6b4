package util

import (
	"testing"

	"github.com/pterm/pterm"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		name    string
		want    pterm.LogLevel
		wantErr bool
	}{
		{"INFO", pterm.LogLevelInfo, false},
		{"debug", pterm.LogLevelDebug, false},
		{"Warning", pterm.LogLevelWarn, false},
		{"WARN", pterm.LogLevelWarn, false},
		{" ERROR ", pterm.LogLevelError, false},
		{"TRACE", 0, true},
		{"", 0, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseLevel(tc.name)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.name)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	prev := pterm.DefaultLogger.Level
	defer func() { pterm.DefaultLogger.Level = prev }()

	if err := SetLevel("DEBUG"); err != nil {
		t.Fatal(err)
	}
	if pterm.DefaultLogger.Level != pterm.LogLevelDebug {
		t.Fatalf("level = %v", pterm.DefaultLogger.Level)
	}
	if err := SetLevel("bogus"); err == nil {
		t.Fatal("expected error")
	}
	if pterm.DefaultLogger.Level != pterm.LogLevelDebug {
		t.Fatal("failed SetLevel changed the level")
	}
}
