// Package logger configures the process-wide zerolog logger: console, an
// optional rotating file and optional forwarding to Axiom.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "juyozufu"

// Options defines logger initialization parameters.
type Options struct {
	// Console receives log lines; defaults to stderr so command reports on
	// stdout stay clean.
	Console io.Writer
	Level   string
	Pretty  bool
	File    FileOptions
	Axiom   AxiomOptions
}

// FileOptions enables a rotating JSON log file when Path is set.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomOptions enables forwarding when Token is set.
type AxiomOptions struct {
	Token   string
	OrgID   string
	Dataset string
	Flush   time.Duration
}

var shipper *axiomShipper

// Init replaces the global logger. Calling it again closes the previous Axiom
// shipper first.
func Init(opts Options) error {
	Close()

	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	var writers []io.Writer
	if opts.Pretty {
		writers = append(writers, zerolog.ConsoleWriter{Out: console, TimeFormat: time.Kitchen})
	} else {
		writers = append(writers, console)
	}

	if f := opts.File; f.Path != "" {
		if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
			return fmt.Errorf("create logs dir: %w", err)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   f.Path,
			MaxSize:    f.MaxSizeMB,
			MaxBackups: f.MaxBackups,
			MaxAge:     f.MaxAgeDays,
			Compress:   f.Compress,
		})
	}

	if opts.Axiom.Token != "" {
		s, err := newAxiomShipper(opts.Axiom)
		if err != nil {
			fmt.Fprintf(console, "axiom forwarding disabled: %v\n", err)
		} else {
			shipper = s
			writers = append(writers, s)
		}
	}

	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(lvl).
		With().Timestamp().Str("service", serviceName).
		Logger()
	return nil
}

// Close flushes and stops the Axiom shipper, if any.
func Close() {
	if shipper != nil {
		shipper.Close()
		shipper = nil
	}
}

// Component returns a child of the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
