// Package edgerules is the public, language-neutral core API: five
// side-effect-free evaluation entry points over DSL source text
// (spec.md §6), plus the decision-service façade in decisionservice.go.
// It is the one place every internal error taxonomy (lexer/parser/linker/
// evaluator) is collapsed into a single host-facing Error.
package edgerules

import (
	"os"

	"github.com/samber/oops"

	"github.com/edgerules/edgerules/internal/ast"
	"github.com/edgerules/edgerules/internal/builtins"
	"github.com/edgerules/edgerules/internal/evaluator"
	"github.com/edgerules/edgerules/internal/lexer"
	"github.com/edgerules/edgerules/internal/linker"
	"github.com/edgerules/edgerules/internal/parser"
	"github.com/edgerules/edgerules/internal/runtime"
	"github.com/edgerules/edgerules/internal/token"
	"github.com/edgerules/edgerules/pkg/printer"
)

// Value is the evaluated result of any core entry point: a tagged union
// over EdgeRules's closed value set (internal/runtime.Value verbatim —
// the core package never needs its own copy of the value model).
type Value = runtime.Value

// Error is the structured, host-facing diagnostic every entry point
// returns on failure. It copies the kind, message and path of whichever
// internal taxonomy error (lexer, parser, linker, evaluator) actually
// failed, and its cause is a fresh samber/oops error built from those
// fields (not the internal error itself), so it carries a stack trace and
// an attribute-bearing context without a
// bespoke structured-error type (grounded on holomush's oops usage at its
// own service boundaries).
type Error struct {
	Kind    string
	Message string
	Path    []string
	cause   error
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the oops-wrapped cause for callers using errors.As/Is.
func (e *Error) Unwrap() error { return e.cause }

func wrapError(kind, message string, path []string) *Error {
	oopsErr := oops.Code(kind).With("path", path).Errorf("%s", message)
	return &Error{Kind: kind, Message: message, Path: path, cause: oopsErr}
}

// registry is read fresh on every call, rather than cached in a package
// var, so a host process that sets ENABLE_REGEX/ENABLE_BASE64 after
// pkg/edgerules is imported (e.g. cmd/edgerules translating a parsed CLI
// flag into the env var in a PersistentPreRunE, which necessarily runs
// after Go's package-level var initializers) still sees the change take
// effect (SPEC_FULL.md §6.7 — both the env var and the Go build tag must
// agree for a feature to register).
func registry() *builtins.Registry {
	return builtins.NewRegistry(builtins.Options{
		EnableRegex:  os.Getenv("ENABLE_REGEX") == "1" || os.Getenv("ENABLE_REGEX") == "true",
		EnableBase64: os.Getenv("ENABLE_BASE64") == "1" || os.Getenv("ENABLE_BASE64") == "true",
	})
}

// compileProgram lexes, parses, and links source as a full `{ ... }`
// context, returning the first diagnostic encountered across all three
// phases (public entry points surface only the first, per spec.md §7,
// even though each phase accumulates every error internally).
func compileProgram(source string) (*ast.ContextObject, *linker.Linker, *Error) {
	l := lexer.New(source)
	p := parser.New(l)
	root := p.ParseProgram()

	if errs := l.Errors(); len(errs) > 0 {
		return nil, nil, wrapError("LexError", errs[0].Message, nil)
	}
	if errs := p.Errors(); len(errs) > 0 {
		return nil, nil, wrapError(errs[0].Kind.String(), errs[0].Message, nil)
	}

	lk := linker.New(registry())
	lk.Link(root)
	if errs := lk.Errors(); len(errs) > 0 {
		return nil, nil, wrapError(errs[0].Kind.String(), errs[0].Message, errs[0].Path)
	}
	return root, lk, nil
}

// compileExpression lexes, parses, and links source as a bare expression by
// wrapping it in a synthetic single-field root — the parser's
// ParseExpression entry point doesn't itself produce a ContextObject to
// link against, and every other phase is built to operate over one.
func compileExpression(source string) (*runtime.ExecutionContext, *Error) {
	l := lexer.New(source)
	p := parser.New(l)
	expr := p.ParseExpression()

	if errs := l.Errors(); len(errs) > 0 {
		return nil, wrapError("LexError", errs[0].Message, nil)
	}
	if errs := p.Errors(); len(errs) > 0 {
		return nil, wrapError(errs[0].Kind.String(), errs[0].Message, nil)
	}

	root := ast.NewContextObject(token.New(token.LBRACE, "{", expr.Pos()))
	root.SetField(&ast.Field{Name: "_", Value: expr})

	lk := linker.New(registry())
	lk.Link(root)
	if errs := lk.Errors(); len(errs) > 0 {
		return nil, wrapError(errs[0].Kind.String(), errs[0].Message, errs[0].Path)
	}

	return runtime.NewExecutionContext(root, nil), nil
}

// EvaluateExpression evaluates a bare expression with no surrounding
// `{ ... }` context (spec.md §6's `evaluate_expression`).
func EvaluateExpression(source string) (Value, *Error) {
	ec, err := compileExpression(source)
	if err != nil {
		return Value{}, err
	}
	ev := evaluator.New(registry(), runtime.DefaultRecursionLimit)
	val, rtErr := ev.EvalField(ec, "_")
	if rtErr != nil {
		return Value{}, wrapError(rtErr.Kind.String(), rtErr.Message, rtErr.Path)
	}
	return val, nil
}

// EvaluateField parses source as a context, links it, and evaluates only
// the named top-level field (spec.md §6's `evaluate_field`).
func EvaluateField(source, field string) (Value, *Error) {
	root, _, err := compileProgram(source)
	if err != nil {
		return Value{}, err
	}
	if _, ok := root.Field(field); !ok {
		return Value{}, wrapError("FieldNotFound", "field '"+field+"' not found", nil)
	}
	ec := runtime.NewExecutionContext(root, nil)
	ev := evaluator.New(registry(), runtime.DefaultRecursionLimit)
	val, rtErr := ev.EvalField(ec, field)
	if rtErr != nil {
		return Value{}, wrapError(rtErr.Kind.String(), rtErr.Message, rtErr.Path)
	}
	return val, nil
}

// EvaluateAll parses, links, and evaluates every top-level field of source,
// returning the whole root context as a Value (spec.md §6's
// `evaluate_all`).
func EvaluateAll(source string) (Value, *Error) {
	root, _, err := compileProgram(source)
	if err != nil {
		return Value{}, err
	}
	ec := runtime.NewExecutionContext(root, nil)
	ev := evaluator.New(registry(), runtime.DefaultRecursionLimit)
	if err := evalAllFields(ev, ec); err != nil {
		return Value{}, err
	}
	return runtime.Context(ec), nil
}

// evalAllFields evaluates every field of ec and, whenever a field's value is
// itself a nested context literal, recurses into it — a plain top-level
// loop only ever touches one context's worth of fields, and to_trace's
// whole point is a snapshot of every value the program computes, nested
// contexts included. Function-valued fields are skipped entirely, neither
// evaluated nor recursed into: a function body's fields reference an
// unbound parameter until a caller actually invokes it, so walking into one
// here would fail on every field that touches its parameter.
func evalAllFields(ev *evaluator.Evaluator, ec *runtime.ExecutionContext) *Error {
	for _, f := range ec.Static.Fields {
		if _, isFunc := f.Value.(*ast.FunctionDefinition); isFunc {
			continue
		}
		val, rtErr := ev.EvalField(ec, f.Name)
		if rtErr != nil {
			return wrapError(rtErr.Kind.String(), rtErr.Message, rtErr.Path)
		}
		if child, ok := val.AsContext(); ok {
			if err := evalAllFields(ev, child); err != nil {
				return err
			}
		}
	}
	return nil
}

// EvaluateMethod locates the top-level function named name, binds request
// to its first parameter, and evaluates its conventional result field
// (spec.md §6's `evaluate_method`).
func EvaluateMethod(source, name string, request Value) (Value, *Error) {
	root, _, err := compileProgram(source)
	if err != nil {
		return Value{}, err
	}
	f, ok := root.Field(name)
	if !ok {
		return Value{}, wrapError("FunctionUnknown", "function '"+name+"' not found", nil)
	}
	fn, ok := f.Value.(*ast.FunctionDefinition)
	if !ok {
		return Value{}, wrapError("FunctionUnknown", "field '"+name+"' is not a function", nil)
	}
	if len(fn.Params) == 0 {
		return Value{}, wrapError("FunctionArityMismatch", "function '"+name+"' has no parameter to bind the request to", nil)
	}

	rootEc := runtime.NewExecutionContext(root, nil)
	callEc := runtime.NewExecutionContext(fn.Body, rootEc)
	callEc.Bind(fn.Params[0].Name, request)

	resultField, ok := conventionalField(fn.Body)
	if !ok {
		return Value{}, wrapError("InternalIntegrityError", "function '"+name+"' has an empty body", nil)
	}

	ev := evaluator.New(registry(), runtime.DefaultRecursionLimit)
	val, rtErr := ev.EvalField(callEc, resultField)
	if rtErr != nil {
		return Value{}, wrapError(rtErr.Kind.String(), rtErr.Message, rtErr.Path)
	}
	return val, nil
}

// ToTrace evaluates every field of source and pretty-prints the resulting
// context, memoized field by memoized field (spec.md §6's `to_trace`).
func ToTrace(source string) (string, *Error) {
	val, err := EvaluateAll(source)
	if err != nil {
		return "", err
	}
	ec, _ := val.AsContext()
	return printer.Print(ec), nil
}

func conventionalField(body *ast.ContextObject) (string, bool) {
	if _, ok := body.Field("result"); ok {
		return "result", true
	}
	if len(body.Fields) > 0 {
		return body.Fields[len(body.Fields)-1].Name, true
	}
	return "", false
}
