// Package printer renders an evaluated execution context as an indented,
// human-readable trace (spec.md §6's `to_trace`), generalized from the
// teacher's pkg/printer indent-tracking builder pattern — there the
// builder walks an AST and emits source text, here it walks a memoized
// ExecutionContext tree and emits value text, but the shape (an indent
// level threaded through a recursive Print, one line per node) is the
// same.
package printer

import (
	"fmt"
	"strings"

	"github.com/edgerules/edgerules/internal/runtime"
)

const indentUnit = "  "

// printer accumulates output and tracks the current indent depth, the way
// the teacher's source printer does for nested statement blocks.
type printer struct {
	b      strings.Builder
	indent int
}

func (p *printer) writeIndent() {
	p.b.WriteString(strings.Repeat(indentUnit, p.indent))
}

func (p *printer) writeln(s string) {
	p.writeIndent()
	p.b.WriteString(s)
	p.b.WriteString("\n")
}

// Print renders ec as a multi-line, indented trace: one `name : value` line
// per memoized field, in declaration order, recursing into any field whose
// value is itself a Context. Fields never evaluated (no memo entry) are
// omitted, since to_trace is a snapshot of what evaluate_all actually
// computed, not of every field the program declares.
func Print(ec *runtime.ExecutionContext) string {
	p := &printer{}
	p.printContext(ec)
	return strings.TrimRight(p.b.String(), "\n")
}

func (p *printer) printContext(ec *runtime.ExecutionContext) {
	p.writeln("{")
	p.indent++

	names := memoizedFieldNames(ec)
	for _, name := range names {
		val, _ := ec.MemoGet(name)
		p.printField(name, val)
	}

	p.indent--
	p.writeln("}")
}

func (p *printer) printField(name string, val runtime.Value) {
	if child, ok := val.AsContext(); ok {
		p.writeIndent()
		p.b.WriteString(name)
		p.b.WriteString(" : ")
		p.b.WriteString("\n")
		p.printContext(child)
		return
	}
	if items, ok := val.AsList(); ok {
		p.writeln(fmt.Sprintf("%s : %s", name, renderList(items)))
		return
	}
	p.writeln(fmt.Sprintf("%s : %s", name, val.String()))
}

func renderList(items []runtime.Value) string {
	parts := make([]string, len(items))
	for i, v := range items {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// memoizedFieldNames returns ec.Static's field names in declaration order,
// filtered to those actually memoized, matching runtime.ExecutionContext's
// own Trace ordering rule.
func memoizedFieldNames(ec *runtime.ExecutionContext) []string {
	var names []string
	for _, f := range ec.Static.Fields {
		if _, ok := ec.MemoGet(f.Name); ok {
			names = append(names, f.Name)
		}
	}
	return names
}
