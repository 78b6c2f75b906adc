package runtime

import (
	"strings"

	"github.com/edgerules/edgerules/internal/ast"
)

// ExecutionContext is the runtime mirror of one ast.ContextObject: it
// memoizes each field's evaluated Value at most once per evaluation pass
// and tracks which fields are mid-evaluation on the current call stack, the
// secondary RuntimeCyclicReference guard spec.md §4.4 asks for in addition
// to the linker's static CyclicReference check.
type ExecutionContext struct {
	Static *ast.ContextObject
	Parent *ExecutionContext

	// FuncBoundary marks a context created for a user-function call
	// (internal/evaluator's evalUserCall). Its fields may only see its own
	// bound parameters and the lexical Parent chain — never whatever
	// filter/for-in scope happens to be active at the call site where its
	// result is eventually selected, since that selection can happen long
	// after the call itself returned.
	FuncBoundary bool

	memo       map[string]Value
	evaluating map[string]bool
	bindings   map[string]Value
}

// NewExecutionContext creates the runtime mirror of static, parented under
// parent (nil for the root).
func NewExecutionContext(static *ast.ContextObject, parent *ExecutionContext) *ExecutionContext {
	return &ExecutionContext{Static: static, Parent: parent}
}

// Bind introduces a transient local name — a function parameter — visible
// only within this execution context, shadowing same-named fields (spec.md's
// self-first resolution extends to these). For-in loop variables and the
// `it`/`...` filter element are not bound here; internal/evaluator keeps
// them on its own scope stack.
func (e *ExecutionContext) Bind(name string, v Value) {
	if e.bindings == nil {
		e.bindings = make(map[string]Value)
	}
	e.bindings[name] = v
}

// Lookup checks only this context's transient bindings, not its fields or
// ancestors — callers climb the Parent chain themselves when a binding
// isn't found here.
func (e *ExecutionContext) Lookup(name string) (Value, bool) {
	v, ok := e.bindings[name]
	return v, ok
}

func (e *ExecutionContext) MemoGet(name string) (Value, bool) {
	v, ok := e.memo[name]
	return v, ok
}

func (e *ExecutionContext) MemoSet(name string, v Value) {
	if e.memo == nil {
		e.memo = make(map[string]Value)
	}
	e.memo[name] = v
}

// MemoClear drops a cached field value. Nothing in the module calls it: the
// decision-service controller rebuilds its whole compiled model on every
// mutation instead.
func (e *ExecutionContext) MemoClear(name string) {
	delete(e.memo, name)
}

func (e *ExecutionContext) IsEvaluating(name string) bool {
	return e.evaluating[name]
}

func (e *ExecutionContext) EnterEvaluating(name string) {
	if e.evaluating == nil {
		e.evaluating = make(map[string]bool)
	}
	e.evaluating[name] = true
}

func (e *ExecutionContext) ExitEvaluating(name string) {
	delete(e.evaluating, name)
}

// Trace renders this context's memoized fields, in declaration order, for
// debugging (pkg/printer builds the richer to_trace view on top of this).
func (e *ExecutionContext) Trace() string {
	var b strings.Builder
	b.WriteString("{ ")
	first := true
	for _, f := range e.Static.Fields {
		v, ok := e.memo[f.Name]
		if !ok {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(v.String())
	}
	b.WriteString(" }")
	return b.String()
}
