// Package diag collects and renders the diagnostics produced while running a
// unit of source. A Reporter replaces the process-wide "had error" flags: every
// runner owns one, so independent interpreters never share error state.
package diag

import (
	"fmt"
	"io"
	"log/slog"
	"lox/internal/object"
	"lox/internal/token"
)

type Kind int

const (
	Lexical Kind = iota
	Syntax
	Runtime
)

var kindNames = [...]string{"lexical", "syntax", "runtime"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Diagnostic struct {
	Kind    Kind
	Line    int
	Where   string // "", " at end" or " at '<lexeme>'"
	Message string
}

// String renders the diagnostic in the format tooling expects.
func (d Diagnostic) String() string {
	if d.Kind == Runtime {
		return fmt.Sprintf("%s\n[line %d]", d.Message, d.Line)
	}
	return fmt.Sprintf("[line %d] Error%s: %s", d.Line, d.Where, d.Message)
}

type Reporter struct {
	out         io.Writer
	diagnostics []Diagnostic
}

func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Error reports a lexical error that has no token to anchor it.
func (r *Reporter) Error(line int, message string) {
	r.report(Diagnostic{Kind: Lexical, Line: line, Message: message})
}

// ErrorAt reports a syntax error at the offending token.
func (r *Reporter) ErrorAt(tok token.Token, message string) {
	where := fmt.Sprintf(" at '%s'", tok.Lexeme)
	if tok.Type == token.EOF {
		where = " at end"
	}
	r.report(Diagnostic{Kind: Syntax, Line: tok.Line, Where: where, Message: message})
}

func (r *Reporter) RuntimeError(err *object.RuntimeError) {
	r.report(Diagnostic{Kind: Runtime, Line: err.Token.Line, Message: err.Message})
}

func (r *Reporter) report(d Diagnostic) {
	slog.Debug("diagnostic",
		slog.String("kind", d.Kind.String()),
		slog.Int("line", d.Line),
		slog.String("message", d.Message))
	r.diagnostics = append(r.diagnostics, d)
	if r.out != nil {
		fmt.Fprintln(r.out, d.String())
	}
}

// HadError reports whether a lexical or syntax error was seen.
func (r *Reporter) HadError() bool {
	for _, d := range r.diagnostics {
		if d.Kind != Runtime {
			return true
		}
	}
	return false
}

func (r *Reporter) HadRuntimeError() bool {
	for _, d := range r.diagnostics {
		if d.Kind == Runtime {
			return true
		}
	}
	return false
}

func (r *Reporter) Diagnostics() []Diagnostic {
	return r.diagnostics
}

// Reset clears the collected diagnostics so the next unit of source starts clean.
func (r *Reporter) Reset() {
	r.diagnostics = nil
}
