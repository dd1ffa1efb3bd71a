package runner

import (
	"bytes"
	"context"
	"errors"
	"lox/internal/journal"
	"lox/internal/util"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

// scenario is one end-to-end case from testdata. Source runs as a script;
// Lines run one by one as REPL input on the same runner, and Exit is the exit
// code of the last line.
type scenario struct {
	Name         string   `yaml:"name"`
	Source       string   `yaml:"source"`
	Lines        []string `yaml:"lines"`
	Stdout       string   `yaml:"stdout"`
	Stderr       string   `yaml:"stderr"`
	Exit         int      `yaml:"exit"`
	MaxCallDepth int      `yaml:"max_call_depth"`
}

func loadScenarios(t *testing.T) map[string][]scenario {
	t.Helper()
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	if err != nil || len(files) == 0 {
		t.Fatalf("no scenario files found: %v", err)
	}

	all := map[string][]scenario{}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			t.Fatalf("read %s: %v", file, err)
		}
		var scenarios []scenario
		if err := yaml.Unmarshal(data, &scenarios); err != nil {
			t.Fatalf("decode %s: %v", file, err)
		}
		all[filepath.Base(file)] = scenarios
	}
	return all
}

func TestScenarios(t *testing.T) {
	for file, scenarios := range loadScenarios(t) {
		for _, sc := range scenarios {
			t.Run(file+"/"+sc.Name, func(t *testing.T) {
				cfg := util.DefaultConfiguration()
				if sc.MaxCallDepth > 0 {
					cfg.Interpreter.MaxCallDepth = sc.MaxCallDepth
				}

				var stdout, stderr bytes.Buffer
				r := New(cfg, &stdout, &stderr)

				var result Result
				if len(sc.Lines) > 0 {
					for _, line := range sc.Lines {
						result = r.RunLine(context.Background(), line)
					}
				} else {
					result = r.Run(context.Background(), sc.Name, sc.Source)
				}

				if stdout.String() != sc.Stdout {
					t.Errorf("stdout expected=%q, got=%q", sc.Stdout, stdout.String())
				}
				if stderr.String() != sc.Stderr {
					t.Errorf("stderr expected=%q, got=%q", sc.Stderr, stderr.String())
				}
				if result.ExitCode() != sc.Exit {
					t.Errorf("exit code expected=%d, got=%d (%s)", sc.Exit, result.ExitCode(), result.Status)
				}
			})
		}
	}
}

func TestResultExitCode(t *testing.T) {
	tests := []struct {
		status   Status
		expected int
	}{
		{StatusOK, 0},
		{StatusCompileError, 65},
		{StatusRuntimeError, 70},
		{StatusInternalError, 70},
	}

	for _, tt := range tests {
		if got := (Result{Status: tt.status}).ExitCode(); got != tt.expected {
			t.Errorf("%s: expected exit %d, got %d", tt.status, tt.expected, got)
		}
	}
}

func TestResultCarriesDiagnostics(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := New(util.DefaultConfiguration(), &stdout, &stderr)

	result := r.Run(context.Background(), "bad.lox", "var 1;\nprint 2")
	if result.Status != StatusCompileError {
		t.Fatalf("expected compile error, got %s", result.Status)
	}

	expected := []string{
		"[line 1] Error at '1': Expect variable name.",
		"[line 2] Error at end: Expect ';' after value.",
	}
	messages := result.Messages()
	if strings.Join(messages, "|") != strings.Join(expected, "|") {
		t.Errorf("expected %q, got %q", expected, messages)
	}

	// the next run starts with a clean slate
	result = r.Run(context.Background(), "good.lox", "print 1;")
	if result.Status != StatusOK || len(result.Diagnostics) != 0 {
		t.Errorf("expected a clean run, got %s with %v", result.Status, result.Diagnostics)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestOutputFailureIsAnInternalError(t *testing.T) {
	var stderr bytes.Buffer
	r := New(util.DefaultConfiguration(), failingWriter{}, &stderr)

	result := r.Run(context.Background(), "out.lox", "print 1;")
	if result.Status != StatusInternalError || result.ExitCode() != 70 {
		t.Fatalf("expected internal error, got %s", result.Status)
	}
	if result.Err == nil || !strings.Contains(result.Err.Error(), "disk full") {
		t.Errorf("expected the write failure to be carried, got %v", result.Err)
	}
	if !strings.HasPrefix(stderr.String(), "internal error: ") {
		t.Errorf("expected a distinct internal error message, got %q", stderr.String())
	}
}

type panickingWriter struct{}

func (panickingWriter) Write(p []byte) (int, error) {
	panic("writer exploded")
}

func TestPanicIsAnInternalError(t *testing.T) {
	var stderr bytes.Buffer
	r := New(util.DefaultConfiguration(), panickingWriter{}, &stderr)

	result := r.Run(context.Background(), "boom.lox", "{ var a = 1; print a; }")
	if result.Status != StatusInternalError || result.ExitCode() != 70 {
		t.Fatalf("expected internal error, got %s", result.Status)
	}
	if result.Err == nil || !strings.Contains(result.Err.Error(), "panic: writer exploded") {
		t.Errorf("expected the panic to be carried, got %v", result.Err)
	}
	if !strings.HasPrefix(stderr.String(), "internal error: panic: writer exploded") {
		t.Errorf("expected a distinct internal error message, got %q", stderr.String())
	}
	messages := result.Messages()
	if len(messages) != 1 || !strings.HasPrefix(messages[0], "internal error: panic:") {
		t.Errorf("expected the defect in the messages, got %q", messages)
	}
}

// explodingWriter panics on Write while armed.
type explodingWriter struct {
	bytes.Buffer
	armed bool
}

func (w *explodingWriter) Write(p []byte) (int, error) {
	if w.armed {
		panic("writer exploded")
	}
	return w.Buffer.Write(p)
}

func TestPanicLeavesRunnerUsable(t *testing.T) {
	var stderr bytes.Buffer
	stdout := &explodingWriter{}
	r := New(util.DefaultConfiguration(), stdout, &stderr)

	r.Run(context.Background(), "setup.lox", "var a = 1;")

	stdout.armed = true
	if result := r.Run(context.Background(), "boom.lox", "{ var b = 2; print b; }"); result.Status != StatusInternalError {
		t.Fatalf("expected internal error, got %s", result.Status)
	}
	stdout.armed = false

	// the block scope was popped during the panic, globals survived
	if result := r.Run(context.Background(), "after.lox", "print a;"); result.Status != StatusOK {
		t.Fatalf("expected a clean run, got %s with %q", result.Status, result.Messages())
	}
	if result := r.Run(context.Background(), "leak.lox", "print b;"); result.Status != StatusRuntimeError {
		t.Errorf("block variable leaked into globals, got %s", result.Status)
	}
	if stdout.String() != "1\n" {
		t.Errorf("unexpected stdout %q", stdout.String())
	}
}

func TestCancelStopsRunningScript(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := New(util.DefaultConfiguration(), &stdout, &stderr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	go func() { done <- r.Run(ctx, "spin.lox", "print \"start\";\nwhile (true) {}") }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case result := <-done:
		if result.Status != StatusRuntimeError || result.ExitCode() != 70 {
			t.Errorf("expected a runtime error, got %s", result.Status)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("the script kept running after cancel")
	}

	if stdout.String() != "start\n" {
		t.Errorf("unexpected stdout %q", stdout.String())
	}
	if stderr.String() != "Interrupted.\n[line 2]\n" {
		t.Errorf("unexpected stderr %q", stderr.String())
	}
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.lox")
	if err := os.WriteFile(path, []byte(`print "hello";`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := util.DefaultConfiguration()
	cfg.DebugJsonAST = true
	cfg.DebugTxtAST = true

	var stdout, stderr bytes.Buffer
	r := New(cfg, &stdout, &stderr)

	result, err := r.RunFile(context.Background(), path)
	if err != nil {
		t.Fatalf("RunFile: %v", err)
	}
	if result.Status != StatusOK || stdout.String() != "hello\n" {
		t.Errorf("unexpected result %s, stdout %q", result.Status, stdout.String())
	}
	if stderr.String() != "(print hello)\n" {
		t.Errorf("expected the printed AST on stderr, got %q", stderr.String())
	}
	if _, err := os.Stat(path + ".ast.json"); err != nil {
		t.Errorf("expected a JSON AST next to the script: %v", err)
	}

	if _, err := r.RunFile(context.Background(), filepath.Join(dir, "missing.lox")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestRunsAreJournaled(t *testing.T) {
	ctx := context.Background()
	j, err := journal.Open(ctx, "sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("journal.Open: %v", err)
	}
	defer j.Close()

	var stdout, stderr bytes.Buffer
	r := New(util.DefaultConfiguration(), &stdout, &stderr)
	r.SetJournal(j)

	r.Run(ctx, "script.lox", "print 1;")
	r.RunLine(ctx, "print nope;")

	runs, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}

	line, script := runs[0], runs[1]
	if script.Mode != journal.ModeFile || script.Source != "script.lox" || script.ExitCode != 0 {
		t.Errorf("unexpected script run %+v", script)
	}
	if line.Mode != journal.ModeRepl || line.Source != "<stdin>" || line.ExitCode != 70 {
		t.Errorf("unexpected repl run %+v", line)
	}
	if len(line.Diagnostics) != 1 || line.Diagnostics[0] != "Undefined variable 'nope'.\n[line 1]" {
		t.Errorf("unexpected diagnostics %q", line.Diagnostics)
	}
}
