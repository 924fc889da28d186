// Package logging sets up zerolog for alquad: a human-readable console
// writer for the terminal and one JSON log file per session for
// troubleshooting.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// sessionPrefix names the per-session log files.
const sessionPrefix = "alquad_"

// Config configures the logger behavior.
type Config struct {
	Level   zerolog.Level // Minimum console level
	Dir     string        // Session log directory; empty disables file logging
	Keep    int           // Session files to retain, including the new one
	Console io.Writer     // Defaults to os.Stderr
	NoColor bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	return &Config{
		Level: zerolog.InfoLevel,
		Keep:  5,
	}
}

// VerboseConfig returns a configuration for troubleshooting.
func VerboseConfig() *Config {
	cfg := DefaultConfig()
	cfg.Level = zerolog.DebugLevel
	return cfg
}

// Session is a configured logger and its log file.
type Session struct {
	Logger   zerolog.Logger
	FilePath string
	file     *os.File
}

// New builds a session logger. The file, when enabled, always records
// debug and above regardless of the console level.
func New(cfg *Config) (*Session, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	console := cfg.Console
	if console == nil {
		console = os.Stderr
	}

	writers := []io.Writer{levelFilter{
		w:   zerolog.ConsoleWriter{Out: console, NoColor: cfg.NoColor, TimeFormat: time.Kitchen},
		min: cfg.Level,
	}}
	minLevel := cfg.Level

	s := &Session{}
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		if cfg.Keep > 0 {
			if err := pruneSessions(cfg.Dir, cfg.Keep-1); err != nil {
				return nil, err
			}
		}

		timestamp := time.Now().Format("2006-01-02_15-04-05")
		s.FilePath = filepath.Join(cfg.Dir, sessionPrefix+timestamp+".log")
		f, err := os.OpenFile(s.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		s.file = f
		writers = append(writers, levelFilter{w: f, min: zerolog.DebugLevel})
		if zerolog.DebugLevel < minLevel {
			minLevel = zerolog.DebugLevel
		}
	}

	s.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(minLevel).With().Timestamp().Logger()
	return s, nil
}

// Close flushes and closes the session log file.
func (s *Session) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	return s.file.Close()
}

// SetGlobal installs l as the package-level zerolog logger.
func SetGlobal(l zerolog.Logger) {
	log.Logger = l
}

// ParseLevel converts a string to a level. Unknown strings map to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// levelFilter drops events below min for one writer of a multi-writer.
type levelFilter struct {
	w   io.Writer
	min zerolog.Level
}

func (f levelFilter) Write(p []byte) (int, error) {
	return f.w.Write(p)
}

func (f levelFilter) WriteLevel(l zerolog.Level, p []byte) (int, error) {
	if l < f.min {
		return len(p), nil
	}
	return f.w.Write(p)
}

// pruneSessions removes the oldest session files so at most keep remain.
func pruneSessions(dir string, keep int) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read log directory: %w", err)
	}

	var sessions []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), sessionPrefix) && strings.HasSuffix(e.Name(), ".log") {
			sessions = append(sessions, e.Name())
		}
	}
	if len(sessions) <= keep {
		return nil
	}

	// Timestamped names sort chronologically.
	sort.Strings(sessions)
	for _, name := range sessions[:len(sessions)-keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("remove old log %s: %w", name, err)
		}
	}
	return nil
}
