package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"lox/internal/runner"
	"lox/internal/util"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
)

const PROMPT = "> "

// Session is what the loop needs besides its input and output. Every line
// runs on the same Runner, so globals persist for the whole session.
type Session struct {
	Runner      *runner.Runner
	Prompt      string
	HistoryFile string
}

// lineReader is a source of input lines. io.EOF ends the session.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	AddHistory(line string)
	Close() error
}

// errAborted means the user abandoned the current line with Ctrl-C.
var errAborted = errors.New("line aborted")

// Start reads and runs lines until EOF, :quit, or ctx is cancelled. A terminal
// on in gets line editing and history; anything else is read line by line
// with the prompt written to out.
func Start(ctx context.Context, in io.Reader, out io.Writer, s Session) error {
	if s.Prompt == "" {
		s.Prompt = PROMPT
	}

	var reader lineReader
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		reader = newTerminalReader(util.ExpandHome(s.HistoryFile))
	} else {
		reader = &scannerReader{scanner: bufio.NewScanner(in), out: out}
	}
	defer reader.Close()

	for ctx.Err() == nil {
		line, err := readLine(ctx, reader, s.Prompt)
		if ctx.Err() != nil {
			break
		}
		if errors.Is(err, errAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if done := handleCommand(out, trimmed); done {
				return nil
			}
			continue
		}

		reader.AddHistory(line)
		result := s.Runner.RunLine(ctx, line)
		slog.Debug("repl line", slog.String("status", result.Status.String()))
	}
	return ctx.Err()
}

type readResult struct {
	line string
	err  error
}

// readLine waits for the next line or for ctx to be cancelled, whichever
// comes first. A read still pending on cancellation is abandoned.
func readLine(ctx context.Context, reader lineReader, prompt string) (string, error) {
	result := make(chan readResult, 1)
	go func() {
		line, err := reader.ReadLine(prompt)
		result <- readResult{line, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-result:
		return r.line, r.err
	}
}

// handleCommand runs a :command and reports whether the session should end.
func handleCommand(out io.Writer, line string) bool {
	switch strings.Fields(line)[0] {
	case ":quit", ":q", ":exit":
		return true
	case ":help", ":h":
		fmt.Fprintln(out, "Enter Lox statements, one line at a time.")
		fmt.Fprintln(out, "  :help   show this message")
		fmt.Fprintln(out, "  :quit   leave the REPL (Ctrl-D also works)")
	default:
		fmt.Fprintf(out, "unknown command %s, try :help\n", line)
	}
	return false
}

type scannerReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *scannerReader) ReadLine(prompt string) (string, error) {
	fmt.Fprint(r.out, prompt)
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scannerReader) AddHistory(string) {}
func (r *scannerReader) Close() error      { return nil }

type terminalReader struct {
	state       *liner.State
	historyFile string
}

func newTerminalReader(historyFile string) *terminalReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = state.ReadHistory(f)
			_ = f.Close()
		}
	}
	return &terminalReader{state: state, historyFile: historyFile}
}

func (r *terminalReader) ReadLine(prompt string) (string, error) {
	line, err := r.state.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", errAborted
	}
	return line, err
}

func (r *terminalReader) AddHistory(line string) {
	r.state.AppendHistory(line)
}

// Close saves the history and restores the terminal.
func (r *terminalReader) Close() error {
	if r.historyFile != "" {
		if f, err := os.Create(r.historyFile); err == nil {
			_, _ = r.state.WriteHistory(f)
			_ = f.Close()
		} else {
			slog.Warn("failed to save history", slog.String("file", r.historyFile), slog.Any("error", err))
		}
	}
	return r.state.Close()
}
