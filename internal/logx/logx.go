// Package logx builds the process zerolog.Logger from configuration.
package logx

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects level, format and an optional rotating log file.
type Options struct {
	Level  string
	Format string // json or console
	File   string
	Out    io.Writer // defaults to os.Stderr
	// Rotation limits for File; zero values fall back to the defaults below.
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

const (
	defaultMaxSizeMB  = 50
	defaultMaxBackups = 3
	defaultMaxAgeDays = 7
)

// ParseLevel maps a level string to a zerolog level; unknown strings map to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "err":
		return zerolog.ErrorLevel
	case "off", "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// New builds a logger. When File is set, output is teed to a lumberjack
// rotating file in JSON regardless of Format. The returned closer releases the file.
func New(o Options) (zerolog.Logger, io.Closer) {
	out := o.Out
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(o.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	var closer io.Closer = nopCloser{}
	if o.File != "" {
		lj := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    orDefault(o.MaxSizeMB, defaultMaxSizeMB),
			MaxBackups: orDefault(o.MaxBackups, defaultMaxBackups),
			MaxAge:     orDefault(o.MaxAgeDays, defaultMaxAgeDays),
		}
		out = zerolog.MultiLevelWriter(out, lj)
		closer = lj
	}
	l := zerolog.New(out).Level(ParseLevel(o.Level)).With().Timestamp().Logger()
	return l, closer
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
