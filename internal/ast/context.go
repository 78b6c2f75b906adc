package ast

import (
	"github.com/edgerules/edgerules/internal/token"
)

// FieldLock is the per-field lock flag internal/linker uses for O(1) cycle
// detection (spec.md §4.3.3): linking a field sets LockHeld, entering the
// expression of an already-locked field means a cycle, and the lock is
// released on every exit path, success or error.
type FieldLock int

const (
	LockOpen FieldLock = iota
	LockHeld
	LockDone
)

// Field is one `name : expression` binding inside a ContextObject.
type Field struct {
	Tok         token.Token
	Name        string
	Value       Expression // may itself be a *ContextObject, a *FunctionDefinition, or any expression
	Annotations []*Annotation
	lock        FieldLock
}

// Annotation is `@Name` or `@Name("arg")`, attached to the definition that
// immediately follows it in source.
type Annotation struct {
	Name string
	Arg  string // "" if no argument was written
}

// TypeRef is a parsed (but, per spec.md, never enforced beyond parsing)
// type annotation: either a named type or an array of one.
type TypeRef struct {
	Named   string
	IsArray bool
}

// TypeDef is `type Name: { ... }` or `type Alias: Other[]`.
type TypeDef struct {
	Tok     token.Token
	Name    string
	Ref     *TypeRef        // set for `type Alias: Other[]`
	Inline  *ContextObject  // set for `type Name: { ... }`
}

// ContextObject is the central entity of the language: an ordered field
// map, optionally carrying function parameters (when it is a function
// body), a non-owning back-pointer to its parent context, annotations, and
// nested type declarations. It implements Expression so it can appear
// wherever a value-producing node can: as a field's value, an array
// element, or the program root.
//
// Invariants enforced by the builder (internal/parser): field names unique
// within one context (last append wins), and the parent chain forms a tree
// (each ContextObject is attached to exactly one parent, set once).
type ContextObject struct {
	exprBase

	Fields      []*Field
	fieldIndex  map[string]int
	Params      []*Param // non-nil only for function-definition bodies
	Parent      *ContextObject
	Annotations []*Annotation
	TypeDefs    []*TypeDef
}

// NewContextObject creates an empty context object positioned at tok. Its
// type is left unlinked: internal/linker discovers it is a context the same
// way it discovers every other expression's type, by visiting the node, so
// that visiting also walks into the object's own fields (see linkExpr's
// *ContextObject case). Pre-marking the type here would make the node look
// already-linked and skip that descent entirely.
func NewContextObject(tok token.Token) *ContextObject {
	c := &ContextObject{fieldIndex: make(map[string]int)}
	c.Tok = tok
	return c
}

// SetField appends name:value, or replaces the existing field of that name
// in place (last-append-wins, spec.md's ContextObject invariant) without
// disturbing the position of earlier fields in iteration order.
func (c *ContextObject) SetField(f *Field) {
	if idx, ok := c.fieldIndex[f.Name]; ok {
		c.Fields[idx] = f
		return
	}
	c.fieldIndex[f.Name] = len(c.Fields)
	c.Fields = append(c.Fields, f)
}

// Field looks up a direct (non-inherited) field by name.
func (c *ContextObject) Field(name string) (*Field, bool) {
	idx, ok := c.fieldIndex[name]
	if !ok {
		return nil, false
	}
	return c.Fields[idx], true
}

// AttachChild sets child's Parent to c. Every ContextObject value in the
// tree (fields, array elements, function bodies) must be attached exactly
// once, which is what keeps the parent chain a tree rather than a DAG.
func (c *ContextObject) AttachChild(child *ContextObject) {
	child.Parent = c
}

// Lock attempts to acquire the per-field cycle-detection lock for name.
// ok is false if the field was already locked (a cycle).
func (c *ContextObject) Lock(name string) (ok bool) {
	f, found := c.Field(name)
	if !found {
		return true
	}
	if f.lock == LockHeld {
		return false
	}
	f.lock = LockHeld
	return true
}

// Unlock releases name's lock, marking it done. Always safe to call on any
// exit path, matching spec.md §5's "always released on every exit path".
func (c *ContextObject) Unlock(name string) {
	if f, ok := c.Field(name); ok {
		f.lock = LockDone
	}
}

// Annotation returns the first annotation named name, if any.
func (c *ContextObject) Annotation(name string) (*Annotation, bool) {
	for _, a := range c.Annotations {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}
