package linker

import (
	"strconv"

	"github.com/edgerules/edgerules/internal/ast"
	"github.com/edgerules/edgerules/internal/builtins"
	"github.com/edgerules/edgerules/internal/token"
	"github.com/edgerules/edgerules/internal/types"
)

// binding is one lexical name introduced outside the context-object field
// graph: a filter's `it`/`...` element, or a for-in loop variable. These
// shadow context fields while in scope and are looked up before ever
// climbing the parent chain (spec.md §4.3's self-first resolution extends
// to these transient bindings too).
type binding struct {
	name string
	typ  *types.Type
}

// Linker resolves identifiers, infers types, and detects cycles over one
// AST tree. A Linker is single-use: call Link once per parsed program.
type Linker struct {
	registry *builtins.Registry
	errors   []*Error
	scopes   []binding
	path     []string

	// deps records reverse edges: for each (context, field) pair that was
	// read, the (context, field) pairs whose expressions read it.
	// internal/decisionservice does not walk it; its Set/Remove rebuild the
	// whole compiled model instead.
	deps map[fieldKey][]fieldKey
	cur  fieldKey
}

type fieldKey struct {
	ctx  *ast.ContextObject
	name string
}

// New creates a Linker that resolves built-in calls against registry.
func New(registry *builtins.Registry) *Linker {
	return &Linker{registry: registry, deps: make(map[fieldKey][]fieldKey)}
}

// Errors returns every link error accumulated during Link.
func (l *Linker) Errors() []*Error { return l.errors }

// Dependencies exposes the reverse field read-graph recorded while linking,
// keyed by the (context, field name) that was read.
func (l *Linker) Dependencies() map[fieldKey][]fieldKey { return l.deps }

func (l *Linker) errAt(pos token.Position, kind ErrorKind, msg string) {
	pathCopy := append([]string(nil), l.path...)
	l.errors = append(l.errors, &Error{Kind: kind, Pos: pos, Message: msg, Path: pathCopy})
}

// Link resolves and type-checks every field of root, in declaration order.
// Referenced fields are linked on demand when first read and skipped later
// once their Link is set; nested contexts and function bodies have all of
// their fields linked when the node holding them is visited, so every
// field of the tree ends up linked.
func (l *Linker) Link(root *ast.ContextObject) {
	for _, f := range root.Fields {
		l.linkFieldValue(root, f)
	}
}

// linkFieldValue links f.Value if not already linked, returning its type.
// It is the one place per-field cycle detection happens (spec.md §4.3.3).
func (l *Linker) linkFieldValue(ctx *ast.ContextObject, f *ast.Field) *types.Type {
	if t, ok := f.Value.Type().Get(); ok {
		return t
	}
	if f.Value.Type().State() == ast.StateLinkError {
		return types.TUnlinked
	}
	if !ctx.Lock(f.Name) {
		l.errAt(f.Value.Pos(), CyclicReference, "cyclic reference through field '"+f.Name+"'")
		f.Value.Type().SetError(l.errors[len(l.errors)-1])
		return types.TUnlinked
	}
	defer ctx.Unlock(f.Name)

	prevCur := l.cur
	l.cur = fieldKey{ctx, f.Name}
	l.path = append(l.path, f.Name)

	t := l.linkExpr(ctx, f.Value)
	f.Value.Type().SetLinked(t)

	l.path = l.path[:len(l.path)-1]
	l.cur = prevCur
	return t
}

// recordDependency notes that the field currently being linked reads
// target, building the reverse-edge graph used for invalidation.
func (l *Linker) recordDependency(target fieldKey) {
	if l.cur.ctx == nil {
		return
	}
	l.deps[target] = append(l.deps[target], l.cur)
}

func (l *Linker) pushScope(name string, typ *types.Type) {
	l.scopes = append(l.scopes, binding{name, typ})
}

func (l *Linker) popScope() {
	l.scopes = l.scopes[:len(l.scopes)-1]
}

func (l *Linker) lookupScope(name string) (*types.Type, bool) {
	for i := len(l.scopes) - 1; i >= 0; i-- {
		if l.scopes[i].name == name {
			return l.scopes[i].typ, true
		}
	}
	return nil, false
}

// resolveField climbs ctx's parent chain, checking each context's
// function parameters then its fields, per spec.md's self-first order.
func (l *Linker) resolveField(ctx *ast.ContextObject, name string) (*types.Type, bool) {
	for cur := ctx; cur != nil; cur = cur.Parent {
		for _, p := range cur.Params {
			if p.Name == name {
				return paramType(p), true
			}
		}
		if f, ok := cur.Field(name); ok {
			l.recordDependency(fieldKey{cur, name})
			return l.linkFieldValue(cur, f), true
		}
	}
	return nil, false
}

func paramType(p *ast.Param) *types.Type {
	switch p.TypeRef {
	case "":
		return types.TAny
	case "Number":
		return types.TNumber
	case "String":
		return types.TString
	case "Boolean":
		return types.TBoolean
	case "Date":
		return types.TDate
	case "Time":
		return types.TTime
	case "Datetime":
		return types.TDatetime
	case "Duration":
		return types.TDuration
	default:
		return types.TAny
	}
}

// linkExpr infers expr's type, recursing into its children first. A
// diagnostic is appended to l.errors; the failing node's own Link cell is
// set Linked with the types.TUnlinked placeholder, not LinkError (only a
// cycle detected in linkFieldValue records SetError on a node).
func (l *Linker) linkExpr(ctx *ast.ContextObject, expr ast.Expression) *types.Type {
	if t, ok := expr.Type().Get(); ok {
		return t
	}

	var t *types.Type
	switch n := expr.(type) {
	case *ast.NumberLiteral:
		t = types.TNumber
	case *ast.StringLiteral:
		t = types.TString
	case *ast.BoolLiteral:
		t = types.TBoolean
	case *ast.ErrorExpr:
		t = types.TUnlinked
	case *ast.Identifier:
		t = l.linkIdentifier(ctx, n)
	case *ast.FieldSelect:
		t = l.linkFieldSelect(ctx, n)
	case *ast.UnaryExpr:
		t = l.linkUnary(ctx, n)
	case *ast.BinaryExpr:
		t = l.linkBinary(ctx, n)
	case *ast.ArrayLiteral:
		t = l.linkArray(ctx, n)
	case *ast.RangeExpr:
		t = l.linkRange(ctx, n)
	case *ast.IndexOrFilterExpr:
		t = l.linkIndexOrFilter(ctx, n)
	case *ast.IfExpr:
		t = l.linkIf(ctx, n)
	case *ast.ForInExpr:
		t = l.linkForIn(ctx, n)
	case *ast.CallExpr:
		t = l.linkCall(ctx, n)
	case *ast.FunctionDefinition:
		t = l.linkFunctionDef(ctx, n)
	case *ast.ContextObject:
		n.Parent = ctx
		for _, f := range n.Fields {
			l.linkFieldValue(n, f)
		}
		t = types.TContext
	default:
		l.errAt(expr.Pos(), InternalIntegrityError, "unhandled expression node in linker")
		t = types.TUnlinked
	}

	if t == nil {
		t = types.TUnlinked
	}
	expr.Type().SetLinked(t)
	return t
}

func (l *Linker) linkIdentifier(ctx *ast.ContextObject, id *ast.Identifier) *types.Type {
	if t, ok := l.lookupScope(id.Name); ok {
		return t
	}
	if id.IsFilterElement() {
		l.errAt(id.Pos(), FieldNotFound, "'"+id.Name+"' referenced outside a filter")
		return types.TUnlinked
	}
	if t, ok := l.resolveField(ctx, id.Name); ok {
		return t
	}
	l.errAt(id.Pos(), FieldNotFound, "field '"+id.Name+"' not found")
	return types.TUnlinked
}

func (l *Linker) linkFieldSelect(ctx *ast.ContextObject, fs *ast.FieldSelect) *types.Type {
	targetType := l.linkExpr(ctx, fs.Target)
	if targetType.Kind == types.Any || targetType.Kind == types.Unlinked {
		return types.TAny
	}
	if targetType.Kind != types.Context {
		l.errAt(fs.Pos(), TypesNotCompatible, "selection target is not a context")
		return types.TUnlinked
	}
	targetCtx, ok := l.resolveContextNode(ctx, fs.Target)
	if !ok {
		// Target is a context-typed expression whose concrete ContextObject
		// isn't known until evaluation (e.g. a for-in bound variable); the
		// field reference is deferred to runtime, which re-checks it there
		// (RuntimeFieldNotFound) against the concrete instance.
		return types.TAny
	}
	f, ok := targetCtx.Field(fs.Field)
	if !ok {
		l.errAt(fs.Pos(), FieldNotFound, "field '"+fs.Field+"' not found")
		return types.TUnlinked
	}
	return l.linkFieldValue(targetCtx, f)
}

// resolveContextNode follows the same structural path the evaluator will
// take at runtime, but statically: it finds the concrete *ast.ContextObject
// a context-typed expression denotes when that object is shared AST (a
// field holding a literal context, or a user-function's body, which is one
// fixed node regardless of how many times the function is called).
// Dynamically produced contexts (for-in/filter element bindings) return
// ok=false and are left for the evaluator to resolve per element.
func (l *Linker) resolveContextNode(ctx *ast.ContextObject, expr ast.Expression) (*ast.ContextObject, bool) {
	switch e := expr.(type) {
	case *ast.ContextObject:
		return e, true
	case *ast.Identifier:
		for cur := ctx; cur != nil; cur = cur.Parent {
			if f, ok := cur.Field(e.Name); ok {
				return valueAsContext(f.Value)
			}
		}
		return nil, false
	case *ast.FieldSelect:
		parent, ok := l.resolveContextNode(ctx, e.Target)
		if !ok {
			return nil, false
		}
		f, ok := parent.Field(e.Field)
		if !ok {
			return nil, false
		}
		return valueAsContext(f.Value)
	case *ast.CallExpr:
		if e.ResolvedUser != nil {
			return e.ResolvedUser.Body, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func valueAsContext(v ast.Expression) (*ast.ContextObject, bool) {
	c, ok := v.(*ast.ContextObject)
	return c, ok
}

func (l *Linker) linkUnary(ctx *ast.ContextObject, u *ast.UnaryExpr) *types.Type {
	operandType := l.linkExpr(ctx, u.Operand)
	switch u.Op {
	case "-":
		if !operandType.IsNumeric() {
			l.errAt(u.Pos(), OperationNotSupported, "unary '-' requires a numeric operand")
			return types.TUnlinked
		}
		return types.TNumber
	case "not":
		if operandType.Kind != types.Boolean && operandType.Kind != types.Any {
			l.errAt(u.Pos(), OperationNotSupported, "'not' requires a boolean operand")
			return types.TUnlinked
		}
		return types.TBoolean
	default:
		l.errAt(u.Pos(), InternalIntegrityError, "unknown unary operator "+u.Op)
		return types.TUnlinked
	}
}

func (l *Linker) linkBinary(ctx *ast.ContextObject, b *ast.BinaryExpr) *types.Type {
	left := l.linkExpr(ctx, b.Left)
	right := l.linkExpr(ctx, b.Right)

	switch b.Op {
	case "+", "-", "*", "/", "^":
		if !left.IsNumeric() || !right.IsNumeric() {
			l.errAt(b.Pos(), TypesNotCompatible, "arithmetic requires numeric operands")
			return types.TUnlinked
		}
		return types.TNumber
	case "and", "or", "xor":
		if !boolOrAny(left) || !boolOrAny(right) {
			l.errAt(b.Pos(), TypesNotCompatible, "'"+b.Op+"' requires boolean operands")
			return types.TUnlinked
		}
		return types.TBoolean
	case "=", "<>":
		if left.Kind != types.Any && right.Kind != types.Any && !left.Equal(right) {
			l.errAt(b.Pos(), TypesNotCompatible, "'"+b.Op+"' requires identical operand types")
			return types.TUnlinked
		}
		return types.TBoolean
	case "<", ">", "<=", ">=":
		if !left.IsNumeric() || !right.IsNumeric() {
			l.errAt(b.Pos(), TypesNotCompatible, "ordering comparison requires numeric operands")
			return types.TUnlinked
		}
		return types.TBoolean
	default:
		l.errAt(b.Pos(), InternalIntegrityError, "unknown binary operator "+b.Op)
		return types.TUnlinked
	}
}

func boolOrAny(t *types.Type) bool {
	return t.Kind == types.Boolean || t.Kind == types.Any
}

func (l *Linker) linkArray(ctx *ast.ContextObject, a *ast.ArrayLiteral) *types.Type {
	if len(a.Elements) == 0 {
		return types.ListOf(types.TAny)
	}
	elem := l.linkExpr(ctx, a.Elements[0])
	for _, e := range a.Elements[1:] {
		t := l.linkExpr(ctx, e)
		if elem.Kind == types.Any {
			elem = t
		} else if t.Kind != types.Any && !elem.Equal(t) {
			l.errAt(e.Pos(), TypesNotCompatible, "array elements must share one type")
		}
	}
	return types.ListOf(elem)
}

func (l *Linker) linkRange(ctx *ast.ContextObject, r *ast.RangeExpr) *types.Type {
	start := l.linkExpr(ctx, r.Start)
	end := l.linkExpr(ctx, r.End)
	if !start.IsNumeric() || !end.IsNumeric() {
		l.errAt(r.Pos(), TypesNotCompatible, "range bounds must be numeric")
		return types.TUnlinked
	}
	return types.TRange
}

// linkIndexOrFilter checks IsFilter (already determined structurally by
// internal/parser) against the selector's inferred type, per spec.md's
// IndexNotNumeric/FilterNotPredicate diagnostics.
func (l *Linker) linkIndexOrFilter(ctx *ast.ContextObject, n *ast.IndexOrFilterExpr) *types.Type {
	targetType := l.linkExpr(ctx, n.Target)
	elemType := types.TAny
	if targetType.Kind == types.List {
		elemType = targetType.Elem
	} else if targetType.Kind == types.Range {
		elemType = types.TNumber
	} else if targetType.Kind != types.Any {
		l.errAt(n.Pos(), TypesNotCompatible, "indexing/filtering requires a List or Range")
	}

	if n.IsFilter {
		l.pushScope("it", elemType)
		l.pushScope("...", elemType)
		selType := l.linkExpr(ctx, n.Selector)
		l.popScope()
		l.popScope()
		if selType.Kind != types.Boolean && selType.Kind != types.Any {
			l.errAt(n.Selector.Pos(), FilterNotPredicate, "filter selector must be boolean")
		}
		if targetType.Kind == types.Range {
			return types.ListOf(types.TNumber)
		}
		return types.ListOf(elemType)
	}

	selType := l.linkExpr(ctx, n.Selector)
	if !selType.IsNumeric() {
		l.errAt(n.Selector.Pos(), IndexNotNumeric, "index must be numeric")
	}
	return elemType
}

func (l *Linker) linkIf(ctx *ast.ContextObject, n *ast.IfExpr) *types.Type {
	condType := l.linkExpr(ctx, n.Cond)
	if condType.Kind != types.Boolean && condType.Kind != types.Any {
		l.errAt(n.Cond.Pos(), TypesNotCompatible, "'if' condition must be boolean")
	}
	thenType := l.linkExpr(ctx, n.Then)
	elseType := l.linkExpr(ctx, n.Else)
	if thenType.Kind == types.Any {
		return elseType
	}
	if elseType.Kind == types.Any {
		return thenType
	}
	if !thenType.Equal(elseType) {
		l.errAt(n.Pos(), TypesNotCompatible, "'if' branches must have the same type")
		return types.TUnlinked
	}
	return thenType
}

func (l *Linker) linkForIn(ctx *ast.ContextObject, n *ast.ForInExpr) *types.Type {
	iterType := l.linkExpr(ctx, n.Iterable)
	elemType := types.TAny
	switch iterType.Kind {
	case types.List:
		elemType = iterType.Elem
	case types.Range:
		elemType = types.TNumber
	case types.Any:
		elemType = types.TAny
	default:
		l.errAt(n.Iterable.Pos(), TypesNotCompatible, "'for' source must be a List or Range")
	}
	l.pushScope(n.Var, elemType)
	bodyType := l.linkExpr(ctx, n.Body)
	l.popScope()
	return types.ListOf(bodyType)
}

func (l *Linker) linkCall(ctx *ast.ContextObject, n *ast.CallExpr) *types.Type {
	argTypes := make([]*types.Type, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = l.linkExpr(ctx, a)
	}

	if fn, ok := l.resolveUserFunction(ctx, n.Name); ok {
		n.ResolvedUser = fn
		if len(fn.Params) != len(n.Args) {
			l.errAt(n.Pos(), FunctionArityMismatch, "function '"+n.Name+"' expects "+strconv.Itoa(len(fn.Params))+" argument(s)")
			return types.TUnlinked
		}
		// A user-function call evaluates to the whole body context (the
		// caller typically follows up with a FieldSelect on .result); link
		// the body now so its fields carry concrete types for that select.
		l.linkFunctionDef(ctx, fn)
		return types.TContext
	}

	sig, ok := l.registry.Lookup(n.Name)
	if !ok {
		l.errAt(n.Pos(), FunctionUnknown, "unknown function '"+n.Name+"'")
		return types.TUnlinked
	}
	if !sig.Variadic && len(sig.Params) != len(n.Args) {
		l.errAt(n.Pos(), FunctionArityMismatch, "built-in '"+n.Name+"' expects "+strconv.Itoa(len(sig.Params))+" argument(s)")
		return types.TUnlinked
	}
	return sig.Result
}

func (l *Linker) resolveUserFunction(ctx *ast.ContextObject, name string) (*ast.FunctionDefinition, bool) {
	for cur := ctx; cur != nil; cur = cur.Parent {
		if f, ok := cur.Field(name); ok {
			if fn, ok := f.Value.(*ast.FunctionDefinition); ok {
				return fn, true
			}
		}
	}
	return nil, false
}

// linkFunctionDef infers a function's result type by linking its body as a
// nested scope whose parameters shadow the enclosing context, returning the
// type of the body's conventional `result` field if present, else its last
// field (spec.md §4.3's "final field, or result field by convention").
func (l *Linker) linkFunctionDef(ctx *ast.ContextObject, fn *ast.FunctionDefinition) *types.Type {
	if t, ok := fn.Type().Get(); ok {
		return t
	}
	fn.Body.Parent = ctx
	for _, f := range fn.Body.Fields {
		l.linkFieldValue(fn.Body, f)
	}

	var resultType *types.Type
	if f, ok := fn.Body.Field("result"); ok {
		resultType = l.linkFieldValue(fn.Body, f)
	} else if len(fn.Body.Fields) > 0 {
		resultType = l.linkFieldValue(fn.Body, fn.Body.Fields[len(fn.Body.Fields)-1])
	} else {
		resultType = types.TContext
	}
	fn.Type().SetLinked(resultType)
	return resultType
}
