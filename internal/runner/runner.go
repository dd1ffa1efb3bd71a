// Package runner drives one unit of source through scanning, parsing and
// evaluation, and turns the outcome into a status and exit code.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"lox/internal/ast"
	"lox/internal/diag"
	"lox/internal/evaluator"
	"lox/internal/journal"
	"lox/internal/lexer"
	"lox/internal/object"
	"lox/internal/parser"
	"lox/internal/util"
	"os"
	"runtime/pprof"
	"time"

	"github.com/pkg/errors"
)

// CPUProfileEnv names the environment variable that enables CPU profiling of
// script runs: LOX_CPU_PROFILE=<path>.
const CPUProfileEnv = "LOX_CPU_PROFILE"

const (
	ExitOK       = 0
	ExitUsage    = 64
	ExitDataErr  = 65
	ExitNoInput  = 66
	ExitSoftware = 70
)

type Status int

const (
	StatusOK Status = iota
	StatusCompileError
	StatusRuntimeError
	StatusInternalError
)

var statusNames = [...]string{"ok", "compile-error", "runtime-error", "internal-error"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

type Result struct {
	Status      Status
	Diagnostics []diag.Diagnostic
	Duration    time.Duration
	// Err is set for StatusInternalError.
	Err error
}

func (r Result) ExitCode() int {
	switch r.Status {
	case StatusOK:
		return ExitOK
	case StatusCompileError:
		return ExitDataErr
	default:
		return ExitSoftware
	}
}

// Messages renders every diagnostic, plus the defect if there was one.
func (r Result) Messages() []string {
	messages := make([]string, 0, len(r.Diagnostics)+1)
	for _, d := range r.Diagnostics {
		messages = append(messages, d.String())
	}
	if r.Err != nil {
		messages = append(messages, "internal error: "+r.Err.Error())
	}
	return messages
}

// Runner owns one evaluator, so globals defined by one Run are visible to the
// next. It is not safe for concurrent use.
type Runner struct {
	cfg       util.Configuration
	stderr    io.Writer
	reporter  *diag.Reporter
	evaluator *evaluator.Evaluator
	journal   *journal.Journal
}

// New creates a runner printing program output to stdout and diagnostics to
// stderr.
func New(cfg util.Configuration, stdout, stderr io.Writer) *Runner {
	return &Runner{
		cfg:      cfg,
		stderr:   stderr,
		reporter: diag.NewReporter(stderr),
		evaluator: evaluator.New(
			evaluator.WithOutput(stdout),
			evaluator.WithMaxCallDepth(cfg.Interpreter.MaxCallDepth),
		),
	}
}

// SetJournal records every subsequent run in j. A nil j turns recording off.
func (r *Runner) SetJournal(j *journal.Journal) {
	r.journal = j
}

// RunFile reads and runs a script. The error is only for an unreadable file.
func (r *Runner) RunFile(ctx context.Context, path string) (Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read '%s': %w", path, err)
	}

	if stop := startCPUProfile(os.Getenv(CPUProfileEnv)); stop != nil {
		defer stop()
	}
	return r.run(ctx, journal.ModeFile, path, string(src)), nil
}

// Run runs src as a script named name.
func (r *Runner) Run(ctx context.Context, name, src string) Result {
	return r.run(ctx, journal.ModeFile, name, src)
}

// RunLine runs one line typed at the interactive prompt.
func (r *Runner) RunLine(ctx context.Context, line string) Result {
	return r.run(ctx, journal.ModeRepl, "<stdin>", line)
}

func (r *Runner) run(ctx context.Context, mode, name, src string) (result Result) {
	start := time.Now()
	r.reporter.Reset()

	defer func() {
		if p := recover(); p != nil {
			result = r.internalError(errors.Errorf("panic: %v", p))
		}
		result.Diagnostics = r.reporter.Diagnostics()
		result.Duration = time.Since(start)

		slog.Debug("run complete",
			slog.String("name", name),
			slog.String("status", result.Status.String()),
			slog.Duration("duration", result.Duration))
		r.record(ctx, mode, name, start, result)
	}()

	tokens := lexer.New(src, r.reporter).ScanTokens()
	slog.Debug("scanned", slog.String("name", name), slog.Int("tokens", len(tokens)))

	statements := parser.New(tokens, r.reporter).Parse()
	if r.reporter.HadError() {
		return Result{Status: StatusCompileError}
	}

	r.dumpAST(mode, name, statements)

	err := r.evaluator.Interpret(ctx, statements)
	if err == nil {
		return Result{Status: StatusOK}
	}

	var rtErr *object.RuntimeError
	if errors.As(err, &rtErr) {
		r.reporter.RuntimeError(rtErr)
		return Result{Status: StatusRuntimeError}
	}
	return r.internalError(err)
}

// internalError reports a defect: something that is neither a lexical, syntax
// nor runtime error of the Lox program.
func (r *Runner) internalError(err error) Result {
	err = errors.WithStack(err)
	slog.Debug("internal error", slog.String("trace", fmt.Sprintf("%+v", err)))
	slog.Error("internal error", slog.Any("error", err))
	fmt.Fprintf(r.stderr, "internal error: %v\n", err)
	return Result{Status: StatusInternalError, Err: err}
}

func (r *Runner) dumpAST(mode, name string, statements []ast.Statement) {
	program := &ast.Program{Statements: statements}

	if r.cfg.DebugTxtAST {
		fmt.Fprintln(r.stderr, parser.RenderASTAsText(program))
	}
	if r.cfg.DebugJsonAST && mode == journal.ModeFile {
		if err := parser.WriteASTToJSON(program, name+".ast.json"); err != nil {
			slog.Warn("failed to write AST", slog.String("name", name), slog.Any("error", err))
		}
	}
}

// record journals the run. Failures are logged and never affect the result.
func (r *Runner) record(ctx context.Context, mode, name string, start time.Time, result Result) {
	if r.journal == nil {
		return
	}
	_, err := r.journal.Record(ctx, journal.Run{
		Mode:        mode,
		Source:      name,
		StartedAt:   start,
		Duration:    result.Duration,
		ExitCode:    result.ExitCode(),
		Diagnostics: result.Messages(),
	})
	if err != nil {
		slog.Warn("failed to journal run", slog.String("name", name), slog.Any("error", err))
	}
}

// startCPUProfile starts profiling into path and returns the function that
// stops it, or nil when path is empty or profiling could not start.
func startCPUProfile(path string) func() {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		slog.Warn("could not create CPU profile", slog.String("path", path), slog.Any("error", err))
		return nil
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		slog.Warn("could not start CPU profile", slog.Any("error", err))
		_ = f.Close()
		return nil
	}
	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}
}
