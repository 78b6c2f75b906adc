// Package ast defines the EdgeRules abstract syntax tree: expression node
// families, the context-object tree that is the program's central entity,
// and the Link[T] cell every node carries for its inferred type. The AST is
// built once by internal/parser, mutated in place by internal/linker, and
// is thereafter shared immutably between the linker and internal/evaluator
// (spec.md §3, "Lifecycle").
package ast

import (
	"github.com/edgerules/edgerules/internal/token"
	"github.com/edgerules/edgerules/internal/types"
)

// Node is the base interface implemented by every AST node.
type Node interface {
	Pos() token.Position
}

// Expression is any node that produces a value when evaluated.
type Expression interface {
	Node
	exprNode()
	// Type returns this node's Link cell, filled in by internal/linker.
	Type() *Link[*types.Type]
}

// exprBase is embedded by every concrete Expression to supply position
// tracking and the per-node Link[T] cell without repeating both on every
// node type.
type exprBase struct {
	Tok      token.Token
	typeLink Link[*types.Type]
}

func (b *exprBase) Pos() token.Position      { return b.Tok.Pos }
func (b *exprBase) exprNode()                {}
func (b *exprBase) Type() *Link[*types.Type] { return &b.typeLink }

// NumberLiteral is a numeric literal, e.g. 42 or 3.14.
type NumberLiteral struct {
	exprBase
	Value float64
}

// StringLiteral is a quoted string literal.
type StringLiteral struct {
	exprBase
	Value string
}

// BoolLiteral is `true` or `false`.
type BoolLiteral struct {
	exprBase
	Value bool
}

// Identifier is a single bare name resolved by scope-climbing: the
// filter-reserved `it`/`...` element placeholder, a for-in bound variable,
// a function parameter, or the first segment of what reads like a dotted
// path. Everything after the first segment of a dotted reference is a
// FieldSelect projecting off the value Identifier resolves to, so a
// dotted chain never needs its own scope-climbing logic beyond the first
// name (spec.md's self-first resolution applies only here).
type Identifier struct {
	exprBase
	Name string
}

// IsFilterElement reports whether this identifier is the reserved `it` or
// `...` element placeholder.
func (i *Identifier) IsFilterElement() bool {
	return i.Name == "it" || i.Name == "..."
}

// FieldSelect is `target.field`: a field projection off an arbitrary
// Context-typed expression, not just a bare identifier. This is what lets
// `sales3(m, s).result` and `calendar.shift` share one representation: the
// only thing scope-climbed is Identifier's bare name, everything after a
// dot is an ordinary member projection checked by internal/linker to
// require a Context-typed Target (spec.md's "selection target not a
// variable path" / "field selection after a filter requires an index
// first" both fall out of that one check).
type FieldSelect struct {
	exprBase
	Target Expression
	Field  string
}

// UnaryExpr is `-x` or `not x`.
type UnaryExpr struct {
	exprBase
	Op      string // "-" or "not"
	Operand Expression
}

// BinaryExpr is any infix arithmetic, comparison, or logical operation.
type BinaryExpr struct {
	exprBase
	Op    string
	Left  Expression
	Right Expression
}

// ArrayLiteral is `[e1, e2, ...]`.
type ArrayLiteral struct {
	exprBase
	Elements []Expression
}

// RangeExpr is the inclusive integer range `a..b`.
type RangeExpr struct {
	exprBase
	Start Expression
	End   Expression
}

// IndexOrFilterExpr is `target[selector]`. Whether it indexes or filters is
// determined structurally: if Selector (anywhere in its subtree) references
// the reserved `it`/`...` element placeholder it is a filter predicate,
// otherwise it is a plain numeric index (spec.md §4.2's "index vs filter"
// distinction, made syntactically so it never depends on an Any-typed
// selector's unresolved static type).
type IndexOrFilterExpr struct {
	exprBase
	Target   Expression
	Selector Expression
	IsFilter bool
}

// IfExpr is `if cond then a else b`.
type IfExpr struct {
	exprBase
	Cond Expression
	Then Expression
	Else Expression
}

// ForInExpr is `for x in iterable return body`.
type ForInExpr struct {
	exprBase
	Var      string
	Iterable Expression
	Body     Expression
}

// CallExpr is a built-in or user function invocation. Which it is gets
// decided by internal/linker and recorded in ResolvedUser.
type CallExpr struct {
	exprBase
	Name         string
	Args         []Expression
	ResolvedUser *FunctionDefinition // nil if this resolved to a built-in
}

// FunctionDefinition is `func name(params) : { ... }`. It is itself an
// Expression (a function value) so it can sit as a ContextObject field, the
// way spec.md treats named fields uniformly.
type FunctionDefinition struct {
	exprBase
	Name        string
	Params      []*Param
	Body        *ContextObject
	Annotations []*Annotation
}

// Param is one function parameter; TypeRef is parsed but, per spec.md Open
// Question (a), never enforced — unannotated parameters link as types.Any.
type Param struct {
	Name    string
	TypeRef string // "" if no annotation was written
}

// ErrorExpr is the embedded parse-error sentinel node (spec.md §4.2): the
// parser inserts one at the failure site and continues, instead of
// aborting, so multiple parse errors can be collected in one pass.
type ErrorExpr struct {
	exprBase
	Message string
}
