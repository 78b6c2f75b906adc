// Package evaluator is the tree-walking interpreter over a linked
// internal/ast tree and the internal/runtime execution-context mirror it
// builds alongside it (spec.md §4.4).
package evaluator

import (
	"fmt"

	"github.com/edgerules/edgerules/internal/token"
)

// ErrorKind enumerates the runtime diagnostic taxonomy (spec.md §7).
type ErrorKind int

const (
	DivisionByZero ErrorKind = iota
	InvalidOperation
	ValueParsingError
	RuntimeFieldNotFound
	RuntimeCyclicReference
	TypeNotSupported
	RecursionLimitExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case DivisionByZero:
		return "DivisionByZero"
	case InvalidOperation:
		return "InvalidOperation"
	case ValueParsingError:
		return "ValueParsingError"
	case RuntimeFieldNotFound:
		return "RuntimeFieldNotFound"
	case RuntimeCyclicReference:
		return "RuntimeCyclicReference"
	case TypeNotSupported:
		return "TypeNotSupported"
	case RecursionLimitExceeded:
		return "RecursionLimitExceeded"
	default:
		return "Unknown"
	}
}

// Error is one runtime diagnostic, carrying the chain of field evaluations
// that led to the failing expression, outermost to innermost (spec.md §7).
type Error struct {
	Kind    ErrorKind
	Message string
	Pos     token.Position
	Path    []string
}

func (e *Error) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s at %s: %s", e.Kind, e.Pos, e.Message)
	}
	s := e.Path[0]
	for _, p := range e.Path[1:] {
		s += "." + p
	}
	return fmt.Sprintf("%s at %s (%s): %s", e.Kind, e.Pos, s, e.Message)
}

// issueKind maps a builtins.Issue's string kind to the matching ErrorKind,
// keeping internal/builtins free of any dependency on this package.
func issueKind(kind string) ErrorKind {
	switch kind {
	case "DivisionByZero":
		return DivisionByZero
	case "RuntimeFieldNotFound":
		return RuntimeFieldNotFound
	case "RuntimeCyclicReference":
		return RuntimeCyclicReference
	case "TypeNotSupported":
		return TypeNotSupported
	case "ValueParsingError":
		return ValueParsingError
	default:
		return InvalidOperation
	}
}
