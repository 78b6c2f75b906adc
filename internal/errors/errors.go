// Package errors renders EdgeRules diagnostics — lexer, parser, linker, or
// evaluator errors — with source-line and caret context. It never
// participates in the core evaluation pipeline itself (spec.md §1's core
// stays side-effect free), and no package in this module imports it:
// cmd/edgerules prints diagnostics with its own printDiagnostic.
package errors

import (
	"fmt"
	"strings"

	"github.com/edgerules/edgerules/internal/token"
)

// CompilerError is one diagnostic with enough context to print a
// source-line-and-caret view: which phase produced it (Kind), the
// human-readable message, where in the field-dependency tree it happened
// (Path, outermost to innermost per spec.md §7), and its source position.
type CompilerError struct {
	Kind    string
	Message string
	Path    []string
	Source  string
	File    string
	Pos     token.Position
}

// New builds a CompilerError from the parts the internal error kinds
// (lexer.Error, parser.Error, linker.Error, evaluator.Error) carry; a
// lexer.Error has only a message and position, so kind and path are
// supplied by the caller.
func New(kind, message string, path []string, pos token.Position, source, file string) *CompilerError {
	return &CompilerError{Kind: kind, Message: message, Path: path, Pos: pos, Source: source, File: file}
}

func (e *CompilerError) Error() string {
	return e.Format(false)
}

// Format renders the error with a one-line source context and a caret
// pointing at Pos.Column, optionally colorized (cmd/edgerules uses
// fatih/color to decide when).
func (e *CompilerError) Format(color bool) string {
	var sb strings.Builder

	loc := fmt.Sprintf("%d:%d", e.Pos.Line, e.Pos.Column)
	if e.File != "" {
		sb.WriteString(fmt.Sprintf("%s: error in %s:%s\n", e.Kind, e.File, loc))
	} else {
		sb.WriteString(fmt.Sprintf("%s: error at %s\n", e.Kind, loc))
	}

	if len(e.Path) > 0 {
		sb.WriteString("  at " + strings.Join(e.Path, ".") + "\n")
	}

	if line := e.sourceLine(e.Pos.Line); line != "" {
		lineNumStr := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(lineNumStr)
		sb.WriteString(line)
		sb.WriteString("\n")

		sb.WriteString(strings.Repeat(" ", len(lineNumStr)+e.Pos.Column-1))
		if color {
			sb.WriteString("\033[1;31m")
		}
		sb.WriteString("^")
		if color {
			sb.WriteString("\033[0m")
		}
		sb.WriteString("\n")
	}

	if color {
		sb.WriteString("\033[1m")
	}
	sb.WriteString(e.Message)
	if color {
		sb.WriteString("\033[0m")
	}

	return sb.String()
}

func (e *CompilerError) sourceLine(lineNum int) string {
	if e.Source == "" || lineNum < 1 {
		return ""
	}
	lines := strings.Split(e.Source, "\n")
	if lineNum > len(lines) {
		return ""
	}
	return lines[lineNum-1]
}

// FormatErrors renders one or more errors, numbering them when there is
// more than one (spec.md §7's "parse errors may be multiple").
func FormatErrors(errs []*CompilerError, color bool) string {
	if len(errs) == 0 {
		return ""
	}
	if len(errs) == 1 {
		return errs[0].Format(color)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s):\n\n", len(errs)))
	for i, e := range errs {
		sb.WriteString(fmt.Sprintf("[%d/%d] ", i+1, len(errs)))
		sb.WriteString(e.Format(color))
		if i < len(errs)-1 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
