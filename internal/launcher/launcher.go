// Package launcher hands resolved paths and URLs to the operating system's
// default application.
package launcher

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultTimeout bounds how long the OS opener may take to return.
const DefaultTimeout = 10 * time.Second

// Runner executes a prepared command. Tests replace it.
type Runner func(cmd *exec.Cmd) error

// Launcher opens targets with the platform opener.
type Launcher struct {
	goos    string
	timeout time.Duration
	run     Runner
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithRunner replaces command execution.
func WithRunner(r Runner) Option {
	return func(l *Launcher) { l.run = r }
}

// WithGOOS overrides the detected operating system.
func WithGOOS(goos string) Option {
	return func(l *Launcher) { l.goos = goos }
}

// New creates a launcher for the current platform.
func New(opts ...Option) *Launcher {
	l := &Launcher{
		goos:    runtime.GOOS,
		timeout: DefaultTimeout,
		run:     func(cmd *exec.Cmd) error { return cmd.Run() },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open opens a file, folder or executable. Failures are logged, not returned.
func (l *Launcher) Open(ctx context.Context, path string) bool {
	if err := l.open(ctx, path); err != nil {
		log.Error().Err(err).Str("path", path).Msg("open failed")
		return false
	}
	log.Info().Str("path", path).Msg("opened")
	return true
}

// OpenURL opens url in the default browser.
func (l *Launcher) OpenURL(ctx context.Context, url string) bool {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		log.Error().Str("url", url).Msg("refusing to open non-http url")
		return false
	}
	if err := l.open(ctx, url); err != nil {
		log.Error().Err(err).Str("url", url).Msg("open url failed")
		return false
	}
	log.Info().Str("url", url).Msg("opened url")
	return true
}

// Command builds the opener invocation for target.
func (l *Launcher) Command(ctx context.Context, target string) (*exec.Cmd, error) {
	// Reject targets that look like command-line flags
	if strings.HasPrefix(target, "-") {
		return nil, fmt.Errorf("invalid target: cannot start with dash")
	}
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("invalid target: empty string")
	}

	switch l.goos {
	case "darwin":
		return exec.CommandContext(ctx, "open", "--", target), nil
	case "linux", "freebsd", "openbsd", "netbsd":
		// xdg-open has no "--"; the dash check above covers it
		return exec.CommandContext(ctx, "xdg-open", target), nil
	case "windows":
		// Passed straight to the handler; cmd /c start would re-parse & and ^ in the path
		return exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", target), nil
	default:
		return nil, fmt.Errorf("open not supported on %s", l.goos)
	}
}

func (l *Launcher) open(ctx context.Context, target string) error {
	execCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	cmd, err := l.Command(execCtx, target)
	if err != nil {
		return err
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := l.run(cmd); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("open failed: %w (%s)", err, msg)
		}
		return fmt.Errorf("open failed: %w", err)
	}
	return nil
}
