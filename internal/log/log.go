package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/mattn/go-isatty"
)

// ParseLevel maps a -log-level value to a slog level. ok is false for "none"
// and for anything unrecognised, meaning logging is off.
func ParseLevel(s string) (level slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelError, false
	}
}

// NewHandler builds the handler for w. A terminal gets the text format; files
// and pipes get JSON records.
func NewHandler(w io.Writer, level string) slog.Handler {
	lvl, ok := ParseLevel(level)
	if !ok {
		return slog.DiscardHandler
	}

	opts := &slog.HandlerOptions{
		AddSource: false,
		Level:     lvl,
	}
	if isTerminal(w) {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// File is a log destination that can be reopened in place, so an external
// rotation can move the file away and signal the process.
type File struct {
	path string
	fh   *os.File
	sigs chan os.Signal
	mu   sync.Mutex
}

// OpenFile opens path for appending, creating parent directories.
func OpenFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for '%s': %w", path, err)
	}
	f := &File{path: path}
	if err := f.Reopen(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fh.Write(p)
}

// Reopen closes the current handle and opens the path again.
func (f *File) Reopen() error {
	fh, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file '%s': %w", f.path, err)
	}

	f.mu.Lock()
	old := f.fh
	f.fh = fh
	f.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	return nil
}

// WatchSIGHUP reopens the file whenever the process receives SIGHUP:
//
//	mv lox.log lox.log.1 && kill -HUP <pid>
func (f *File) WatchSIGHUP() {
	f.sigs = make(chan os.Signal, 1)
	signal.Notify(f.sigs, syscall.SIGHUP)
	go func(sigs chan os.Signal) {
		for range sigs {
			if err := f.Reopen(); err != nil {
				fmt.Fprintf(os.Stderr, "%v\n", err)
			}
		}
	}(f.sigs)
}

func (f *File) Close() error {
	if f.sigs != nil {
		signal.Stop(f.sigs)
		close(f.sigs)
		f.sigs = nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fh.Close()
}

// Setup installs the default slog logger writing to path, or to stderr when
// path is empty or cannot be opened. The returned closer releases the file.
func Setup(level, path string) io.Closer {
	if path == "" {
		slog.SetDefault(slog.New(NewHandler(os.Stderr, level)))
		return nopCloser{}
	}

	f, err := OpenFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v; falling back to stderr\n", err)
		slog.SetDefault(slog.New(NewHandler(os.Stderr, level)))
		return nopCloser{}
	}

	f.WatchSIGHUP()
	slog.SetDefault(slog.New(NewHandler(f, level)))
	return f
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
