// Package util provides the logging sink and counter reporting shared by the
// relay daemons.
package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"gopkg.in/natefinch/lumberjack.v2"
)

func init() {
	pterm.DefaultLogger.ShowTime = true
	pterm.DefaultLogger.TimeFormat = "02 Jan 15:04:05"
	pterm.DefaultLogger.MaxWidth = 1000
}

// Leveled logging functions backed by the pterm default logger.
// All output goes to stderr unless SetLogFile redirects it.

func LogDebug(format string, args ...interface{}) {
	pterm.DefaultLogger.Debug(fmt.Sprintf(format, args...))
}

func LogInfo(format string, args ...interface{}) {
	pterm.DefaultLogger.Info(fmt.Sprintf(format, args...))
}

func LogWarning(format string, args ...interface{}) {
	pterm.DefaultLogger.Warn(fmt.Sprintf(format, args...))
}

func LogError(format string, args ...interface{}) {
	pterm.DefaultLogger.Error(fmt.Sprintf(format, args...))
}

// EnableDebug configures the logger to show debug messages.
func EnableDebug() {
	pterm.DefaultLogger.Level = pterm.LogLevelDebug
}

var levels = map[string]pterm.LogLevel{
	"DEBUG":   pterm.LogLevelDebug,
	"INFO":    pterm.LogLevelInfo,
	"WARNING": pterm.LogLevelWarn,
	"WARN":    pterm.LogLevelWarn,
	"ERROR":   pterm.LogLevelError,
}

// ParseLevel maps a level name (case-insensitive) onto a pterm level.
func ParseLevel(name string) (pterm.LogLevel, error) {
	lvl, ok := levels[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown log level %q (want DEBUG, INFO, WARNING or ERROR)", name)
	}
	return lvl, nil
}

// SetLevel sets the minimum level that reaches the sink.
func SetLevel(name string) error {
	lvl, err := ParseLevel(name)
	if err != nil {
		return err
	}
	pterm.DefaultLogger.Level = lvl
	return nil
}

// LogFileOptions configures the rotating file sink.
type LogFileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

// SetLogFile tees log output to a rotating file next to stderr. Colour codes
// are disabled so the file stays plain text. The returned closer flushes the
// rotator.
func SetLogFile(opts LogFileOptions) (io.Closer, error) {
	if dir := filepath.Dir(opts.Path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
	}
	rotator := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxAge:     opts.MaxAgeDays,
		MaxBackups: opts.MaxBackups,
		Compress:   opts.Compress,
	}
	pterm.DisableColor()
	pterm.DefaultLogger.Writer = io.MultiWriter(os.Stderr, rotator)
	return rotator, nil
}
