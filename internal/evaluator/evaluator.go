package evaluator

import (
	"math"

	"github.com/edgerules/edgerules/internal/ast"
	"github.com/edgerules/edgerules/internal/builtins"
	"github.com/edgerules/edgerules/internal/runtime"
	"github.com/edgerules/edgerules/internal/token"
)

// scopeBinding is a transient name introduced by a filter's `it`/`...`
// element or a for-in loop variable. Unlike function parameters (bound
// directly on the callee's ExecutionContext, see evalUserCall), these never
// outlive the single body expression they're bound for, so a simple
// push/pop stack on the Evaluator is enough — no risk of the binding being
// needed after the frame that introduced it returns.
type scopeBinding struct {
	name string
	val  runtime.Value
}

// Evaluator walks one linked AST tree against a runtime.ExecutionContext
// tree, producing values or the first runtime error encountered. One
// Evaluator instance is good for exactly one evaluation pass.
type Evaluator struct {
	registry *builtins.Registry
	stack    *runtime.CallStack
	scopes   []scopeBinding
}

// New creates an Evaluator dispatching built-in calls through registry and
// enforcing recursionLimit (0 selects runtime.DefaultRecursionLimit).
func New(registry *builtins.Registry, recursionLimit int) *Evaluator {
	return &Evaluator{registry: registry, stack: runtime.NewCallStack(recursionLimit)}
}

func (e *Evaluator) errAt(pos token.Position, kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Pos: pos, Message: msg}
}

func (e *Evaluator) pushScope(name string, v runtime.Value) { e.scopes = append(e.scopes, scopeBinding{name, v}) }
func (e *Evaluator) popScope()                               { e.scopes = e.scopes[:len(e.scopes)-1] }

func (e *Evaluator) lookupScope(name string) (runtime.Value, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if e.scopes[i].name == name {
			return e.scopes[i].val, true
		}
	}
	return runtime.Value{}, false
}

// EvalField is the evaluator's main entry point: evaluate (memoizing) the
// named field of ec, climbing from ec's own Static fields only — callers
// wanting scope-climbing resolution go through Eval on an Identifier node
// instead.
func (e *Evaluator) EvalField(ec *runtime.ExecutionContext, name string) (runtime.Value, *Error) {
	return e.evalFieldOn(ec, name)
}

// evalFieldOn evaluates and memoizes field name on ec specifically (no
// scope climbing — the caller has already located the owning context).
func (e *Evaluator) evalFieldOn(ec *runtime.ExecutionContext, name string) (runtime.Value, *Error) {
	if v, ok := ec.MemoGet(name); ok {
		return v, nil
	}
	f, ok := ec.Static.Field(name)
	if !ok {
		return runtime.Value{}, e.errAt(token.Position{}, RuntimeFieldNotFound, "field '"+name+"' not found")
	}
	if ec.IsEvaluating(name) {
		return runtime.Value{}, e.errAt(f.Value.Pos(), RuntimeCyclicReference, "cyclic reference through field '"+name+"'")
	}
	if !e.stack.Enter() {
		return runtime.Value{}, e.errAt(f.Value.Pos(), RecursionLimitExceeded, "recursion depth limit exceeded")
	}
	defer e.stack.Exit()
	ec.EnterEvaluating(name)
	var v runtime.Value
	var err *Error
	if ec.FuncBoundary {
		// A function body is a fresh lexical scope: only its own bound
		// parameters and its Parent chain are visible, never the caller's
		// transient it/.../for-in bindings that may still be on the stack
		// when this field is finally forced.
		saved := e.scopes
		e.scopes = nil
		v, err = e.Eval(ec, f.Value)
		e.scopes = saved
	} else {
		v, err = e.Eval(ec, f.Value)
	}
	ec.ExitEvaluating(name)
	if err != nil {
		// Each enclosing field evaluation prepends its own name, so the
		// path reads outermost to innermost.
		err.Path = append([]string{name}, err.Path...)
		return runtime.Value{}, err
	}
	ec.MemoSet(name, v)
	return v, nil
}

// Eval evaluates expr within ec, the tree-walking core (spec.md §4.4): one
// case per AST node kind.
func (e *Evaluator) Eval(ec *runtime.ExecutionContext, expr ast.Expression) (runtime.Value, *Error) {
	switch n := expr.(type) {
	case *ast.NumberLiteral:
		return runtime.Number(n.Value), nil
	case *ast.StringLiteral:
		return runtime.String(n.Value), nil
	case *ast.BoolLiteral:
		return runtime.Bool(n.Value), nil
	case *ast.Identifier:
		return e.evalIdentifier(ec, n)
	case *ast.FieldSelect:
		return e.evalFieldSelect(ec, n)
	case *ast.UnaryExpr:
		return e.evalUnary(ec, n)
	case *ast.BinaryExpr:
		return e.evalBinary(ec, n)
	case *ast.ArrayLiteral:
		return e.evalArray(ec, n)
	case *ast.RangeExpr:
		return e.evalRange(ec, n)
	case *ast.IndexOrFilterExpr:
		return e.evalIndexOrFilter(ec, n)
	case *ast.IfExpr:
		return e.evalIf(ec, n)
	case *ast.ForInExpr:
		return e.evalForIn(ec, n)
	case *ast.CallExpr:
		return e.evalCall(ec, n)
	case *ast.ContextObject:
		return runtime.Context(runtime.NewExecutionContext(n, ec)), nil
	case *ast.FunctionDefinition:
		bodyEc := runtime.NewExecutionContext(n.Body, ec)
		bodyEc.FuncBoundary = true
		return runtime.Context(bodyEc), nil
	case *ast.ErrorExpr:
		return runtime.Value{}, e.errAt(n.Pos(), InvalidOperation, n.Message)
	default:
		return runtime.Value{}, e.errAt(expr.Pos(), InvalidOperation, "unhandled expression node in evaluator")
	}
}

func (e *Evaluator) evalIdentifier(ec *runtime.ExecutionContext, id *ast.Identifier) (runtime.Value, *Error) {
	if v, ok := e.lookupScope(id.Name); ok {
		return v, nil
	}
	for cur := ec; cur != nil; cur = cur.Parent {
		if v, ok := cur.Lookup(id.Name); ok {
			return v, nil
		}
		if _, ok := cur.Static.Field(id.Name); ok {
			return e.evalFieldOn(cur, id.Name)
		}
	}
	return runtime.Value{}, e.errAt(id.Pos(), RuntimeFieldNotFound, "field '"+id.Name+"' not found")
}

func (e *Evaluator) evalFieldSelect(ec *runtime.ExecutionContext, fs *ast.FieldSelect) (runtime.Value, *Error) {
	target, err := e.Eval(ec, fs.Target)
	if err != nil {
		return runtime.Value{}, err
	}
	targetCtx, ok := target.AsContext()
	if !ok {
		if target.IsMissing() {
			return runtime.Missing, nil
		}
		return runtime.Value{}, e.errAt(fs.Pos(), TypeNotSupported, "selection target is not a context")
	}
	return e.evalFieldOn(targetCtx, fs.Field)
}

func (e *Evaluator) evalUnary(ec *runtime.ExecutionContext, u *ast.UnaryExpr) (runtime.Value, *Error) {
	v, err := e.Eval(ec, u.Operand)
	if err != nil {
		return runtime.Value{}, err
	}
	switch u.Op {
	case "-":
		if v.IsMissing() {
			return runtime.Missing, nil
		}
		n, ok := v.AsNumber()
		if !ok {
			return runtime.Value{}, e.errAt(u.Pos(), InvalidOperation, "unary '-' requires a numeric operand")
		}
		return runtime.Number(-n), nil
	case "not":
		b, ok := v.AsBool()
		if !ok {
			return runtime.Value{}, e.errAt(u.Pos(), InvalidOperation, "'not' requires a boolean operand")
		}
		return runtime.Bool(!b), nil
	default:
		return runtime.Value{}, e.errAt(u.Pos(), InvalidOperation, "unknown unary operator "+u.Op)
	}
}

func (e *Evaluator) evalBinary(ec *runtime.ExecutionContext, b *ast.BinaryExpr) (runtime.Value, *Error) {
	if b.Op == "and" || b.Op == "or" {
		return e.evalShortCircuit(ec, b)
	}

	left, err := e.Eval(ec, b.Left)
	if err != nil {
		return runtime.Value{}, err
	}
	right, err := e.Eval(ec, b.Right)
	if err != nil {
		return runtime.Value{}, err
	}

	switch b.Op {
	case "xor":
		lb, lok := left.AsBool()
		rb, rok := right.AsBool()
		if !lok || !rok {
			return runtime.Value{}, e.errAt(b.Pos(), InvalidOperation, "'xor' requires boolean operands")
		}
		return runtime.Bool(lb != rb), nil
	case "+", "-", "*", "/", "^":
		return e.evalArithmetic(b, left, right)
	case "=", "<>":
		eq := left.Equal(right)
		if b.Op == "<>" {
			eq = !eq
		}
		return runtime.Bool(eq), nil
	case "<", ">", "<=", ">=":
		if left.IsMissing() || right.IsMissing() {
			return runtime.Missing, nil
		}
		ln, lok := left.AsNumber()
		rn, rok := right.AsNumber()
		if !lok || !rok {
			return runtime.Value{}, e.errAt(b.Pos(), TypeNotSupported, "ordering comparison requires numeric operands")
		}
		return runtime.Bool(compare(b.Op, ln, rn)), nil
	default:
		return runtime.Value{}, e.errAt(b.Pos(), InvalidOperation, "unknown binary operator "+b.Op)
	}
}

func compare(op string, l, r float64) bool {
	switch op {
	case "<":
		return l < r
	case ">":
		return l > r
	case "<=":
		return l <= r
	case ">=":
		return l >= r
	default:
		return false
	}
}

func (e *Evaluator) evalShortCircuit(ec *runtime.ExecutionContext, b *ast.BinaryExpr) (runtime.Value, *Error) {
	left, err := e.Eval(ec, b.Left)
	if err != nil {
		return runtime.Value{}, err
	}
	lb, ok := left.AsBool()
	if !ok {
		return runtime.Value{}, e.errAt(b.Pos(), InvalidOperation, "'"+b.Op+"' requires boolean operands")
	}
	if b.Op == "and" && !lb {
		return runtime.Bool(false), nil
	}
	if b.Op == "or" && lb {
		return runtime.Bool(true), nil
	}
	right, err := e.Eval(ec, b.Right)
	if err != nil {
		return runtime.Value{}, err
	}
	rb, ok := right.AsBool()
	if !ok {
		return runtime.Value{}, e.errAt(b.Pos(), InvalidOperation, "'"+b.Op+"' requires boolean operands")
	}
	return runtime.Bool(rb), nil
}

func (e *Evaluator) evalArithmetic(b *ast.BinaryExpr, left, right runtime.Value) (runtime.Value, *Error) {
	if left.IsMissing() || right.IsMissing() {
		return runtime.Missing, nil
	}
	ln, lok := left.AsNumber()
	rn, rok := right.AsNumber()
	if !lok || !rok {
		return runtime.Value{}, e.errAt(b.Pos(), TypeNotSupported, "arithmetic requires numeric operands")
	}
	switch b.Op {
	case "+":
		return runtime.Number(ln + rn), nil
	case "-":
		return runtime.Number(ln - rn), nil
	case "*":
		return runtime.Number(ln * rn), nil
	case "/":
		if rn == 0 {
			return runtime.Value{}, e.errAt(b.Pos(), DivisionByZero, "division by zero")
		}
		res := ln / rn
		if math.IsInf(res, 0) || math.IsNaN(res) {
			return runtime.Value{}, e.errAt(b.Pos(), DivisionByZero, "division produced a non-finite result")
		}
		return runtime.Number(res), nil
	case "^":
		return runtime.Number(math.Pow(ln, rn)), nil
	default:
		return runtime.Value{}, e.errAt(b.Pos(), InvalidOperation, "unknown arithmetic operator "+b.Op)
	}
}

func (e *Evaluator) evalArray(ec *runtime.ExecutionContext, a *ast.ArrayLiteral) (runtime.Value, *Error) {
	items := make([]runtime.Value, len(a.Elements))
	for i, el := range a.Elements {
		v, err := e.Eval(ec, el)
		if err != nil {
			return runtime.Value{}, err
		}
		items[i] = v
	}
	return runtime.List(items), nil
}

func (e *Evaluator) evalRange(ec *runtime.ExecutionContext, r *ast.RangeExpr) (runtime.Value, *Error) {
	startV, err := e.Eval(ec, r.Start)
	if err != nil {
		return runtime.Value{}, err
	}
	endV, err := e.Eval(ec, r.End)
	if err != nil {
		return runtime.Value{}, err
	}
	start, ok1 := startV.AsNumber()
	end, ok2 := endV.AsNumber()
	if !ok1 || !ok2 {
		return runtime.Value{}, e.errAt(r.Pos(), ValueParsingError, "range bounds must be numeric")
	}
	if start != math.Trunc(start) || end != math.Trunc(end) {
		return runtime.Value{}, e.errAt(r.Pos(), ValueParsingError, "range bounds must be integers")
	}
	return runtime.Range(int(start), int(end)), nil
}

// evalIndexOrFilter implements total indexing (out-of-bounds -> Missing,
// never an error) and filtering with `it`/`...` bound to each element; a
// numeric predicate inside a filter-typed node is reinterpreted as a plain
// index, matching spec.md §4.4 exactly ("a numeric pred inside a filter is
// reinterpreted as an index").
func (e *Evaluator) evalIndexOrFilter(ec *runtime.ExecutionContext, n *ast.IndexOrFilterExpr) (runtime.Value, *Error) {
	targetV, err := e.Eval(ec, n.Target)
	if err != nil {
		return runtime.Value{}, err
	}
	list, ok := targetV.AsList()
	if !ok {
		if targetV.IsMissing() {
			return runtime.Missing, nil
		}
		return runtime.Value{}, e.errAt(n.Pos(), TypeNotSupported, "indexing/filtering requires a List or Range")
	}

	if !n.IsFilter {
		return e.evalIndex(ec, n, list)
	}

	var result []runtime.Value
	for _, item := range list {
		e.pushScope("it", item)
		e.pushScope("...", item)
		predV, perr := e.Eval(ec, n.Selector)
		e.popScope()
		e.popScope()
		if perr != nil {
			return runtime.Value{}, perr
		}
		if b, ok := predV.AsBool(); ok {
			if b {
				result = append(result, item)
			}
			continue
		}
		if num, ok := predV.AsNumber(); ok {
			idx := int(num)
			if idx >= 0 && idx < len(list) {
				result = append(result, list[idx])
			}
			continue
		}
		return runtime.Value{}, e.errAt(n.Selector.Pos(), TypeNotSupported, "filter selector must be boolean or numeric")
	}
	return runtime.List(result), nil
}

func (e *Evaluator) evalIndex(ec *runtime.ExecutionContext, n *ast.IndexOrFilterExpr, list []runtime.Value) (runtime.Value, *Error) {
	selV, err := e.Eval(ec, n.Selector)
	if err != nil {
		return runtime.Value{}, err
	}
	idxF, ok := selV.AsNumber()
	if !ok {
		return runtime.Value{}, e.errAt(n.Selector.Pos(), TypeNotSupported, "index must be numeric")
	}
	idx := int(idxF)
	if idx < 0 || idx >= len(list) {
		return runtime.Missing, nil
	}
	return list[idx], nil
}

func (e *Evaluator) evalIf(ec *runtime.ExecutionContext, n *ast.IfExpr) (runtime.Value, *Error) {
	condV, err := e.Eval(ec, n.Cond)
	if err != nil {
		return runtime.Value{}, err
	}
	cond, ok := condV.AsBool()
	if !ok {
		return runtime.Value{}, e.errAt(n.Cond.Pos(), TypeNotSupported, "'if' condition must be boolean")
	}
	if cond {
		return e.Eval(ec, n.Then)
	}
	return e.Eval(ec, n.Else)
}

func (e *Evaluator) evalForIn(ec *runtime.ExecutionContext, n *ast.ForInExpr) (runtime.Value, *Error) {
	iterV, err := e.Eval(ec, n.Iterable)
	if err != nil {
		return runtime.Value{}, err
	}
	list, ok := iterV.AsList()
	if !ok {
		return runtime.Value{}, e.errAt(n.Iterable.Pos(), TypeNotSupported, "'for' source must be a List or Range")
	}
	result := make([]runtime.Value, 0, len(list))
	for _, item := range list {
		e.pushScope(n.Var, item)
		v, berr := e.Eval(ec, n.Body)
		e.popScope()
		if berr != nil {
			return runtime.Value{}, berr
		}
		result = append(result, v)
	}
	return runtime.List(result), nil
}

func (e *Evaluator) evalCall(ec *runtime.ExecutionContext, call *ast.CallExpr) (runtime.Value, *Error) {
	if call.ResolvedUser != nil {
		return e.evalUserCall(ec, call)
	}
	sig, ok := e.registry.Lookup(call.Name)
	if !ok {
		return runtime.Value{}, e.errAt(call.Pos(), InvalidOperation, "unknown function '"+call.Name+"'")
	}
	args := make([]runtime.Value, len(call.Args))
	for i, a := range call.Args {
		v, err := e.Eval(ec, a)
		if err != nil {
			return runtime.Value{}, err
		}
		args[i] = v
	}
	v, issue := sig.Fn(args)
	if issue != nil {
		return runtime.Value{}, e.errAt(call.Pos(), issueKind(issue.Kind), issue.Message)
	}
	return v, nil
}

// evalUserCall binds argument values directly onto the callee's fresh
// ExecutionContext (runtime.ExecutionContext.Bind), not a transient scope
// frame, because the returned context value may have fields selected
// arbitrarily later in the evaluation — the parameter bindings must live as
// long as that context value does (spec.md §4.4's "create a child
// execution context whose fields include bound parameters").
func (e *Evaluator) evalUserCall(ec *runtime.ExecutionContext, call *ast.CallExpr) (runtime.Value, *Error) {
	if !e.stack.Enter() {
		return runtime.Value{}, e.errAt(call.Pos(), RecursionLimitExceeded, "recursion depth limit exceeded")
	}
	defer e.stack.Exit()

	fn := call.ResolvedUser
	bodyEc := runtime.NewExecutionContext(fn.Body, ec)
	bodyEc.FuncBoundary = true
	for i, p := range fn.Params {
		v, err := e.Eval(ec, call.Args[i])
		if err != nil {
			return runtime.Value{}, err
		}
		bodyEc.Bind(p.Name, v)
	}
	return runtime.Context(bodyEc), nil
}
