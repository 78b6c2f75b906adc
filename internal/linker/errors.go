// Package linker resolves identifiers, infers expression types, and detects
// reference cycles over an internal/ast tree produced by internal/parser.
// It mutates the tree's Link[*types.Type] cells in place and never rewrites
// structure, so the same tree can be evaluated afterward by
// internal/evaluator (spec.md §3's "built once, linked once, evaluated
// many times" lifecycle).
package linker

import (
	"fmt"

	"github.com/edgerules/edgerules/internal/token"
)

// ErrorKind enumerates the linker's diagnostic taxonomy (spec.md §7/§4.3).
type ErrorKind int

const (
	FieldNotFound ErrorKind = iota
	TypesNotCompatible
	OperationNotSupported
	CyclicReference
	FunctionArityMismatch
	FunctionUnknown
	IndexNotNumeric
	FilterNotPredicate
	InternalIntegrityError
)

func (k ErrorKind) String() string {
	switch k {
	case FieldNotFound:
		return "FieldNotFound"
	case TypesNotCompatible:
		return "TypesNotCompatible"
	case OperationNotSupported:
		return "OperationNotSupported"
	case CyclicReference:
		return "CyclicReference"
	case FunctionArityMismatch:
		return "FunctionArityMismatch"
	case FunctionUnknown:
		return "FunctionUnknown"
	case IndexNotNumeric:
		return "IndexNotNumeric"
	case FilterNotPredicate:
		return "FilterNotPredicate"
	case InternalIntegrityError:
		return "InternalIntegrityError"
	default:
		return "Unknown"
	}
}

// Error is one link-phase diagnostic, carrying the field path from the
// root context down to the node that failed (outermost first).
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
	return fmt.Sprintf("%s at %s (%s): %s", e.Kind, e.Pos, joinPath(e.Path), e.Message)
}

func joinPath(path []string) string {
	s := path[0]
	for _, p := range path[1:] {
		s += "." + p
	}
	return s
}
