// Package decisionservice implements the stateful decision-service façade
// (spec.md §4.6): create a model, mutate it by path, and execute its
// functions against a request value. It is the one place the source-text
// pipeline (lexer/parser/linker/evaluator) is driven from host data rather
// than from a program a caller wrote by hand.
package decisionservice

import (
	cryptorand "crypto/rand"
	"fmt"
	"math/big"
	mathrand "math/rand"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/edgerules/edgerules/internal/ast"
	"github.com/edgerules/edgerules/internal/builtins"
	"github.com/edgerules/edgerules/internal/evaluator"
	"github.com/edgerules/edgerules/internal/lexer"
	"github.com/edgerules/edgerules/internal/linker"
	"github.com/edgerules/edgerules/internal/model"
	"github.com/edgerules/edgerules/internal/parser"
	"github.com/edgerules/edgerules/internal/runtime"
)

// Service is a stateful controller wrapping one portable model, its
// compiled form, and the root execution context derived from it.
//
// Set/Remove take the effort/complexity tradeoff documented in DESIGN.md:
// rather than walking the linker's recorded field-dependency graph to clear
// only the affected memo entries (spec.md's literal wording), every
// mutation rebuilds the compiled form from scratch — mutate the portable
// JSON, re-render it to DSL source, re-lex/parse/link, start with a fresh
// (empty-memo) execution context tree. Correctness is identical either way
// since a fresh context has nothing memoized to invalidate; what's given up
// is avoiding redundant re-evaluation of fields untouched by the mutation.
// The dependency graph is still produced and reachable off Linker should a
// future caller want the finer-grained version.
type Service struct {
	doc      *model.Document
	registry *builtins.Registry

	root   *ast.ContextObject
	linker *linker.Linker
	rootEc *runtime.ExecutionContext

	entropy *ulid.MonotonicEntropy
}

// Create parses and validates modelJSON as a portable model, compiles it,
// and returns a ready-to-use Service.
func Create(modelJSON []byte, registry *builtins.Registry) (*Service, error) {
	doc, err := model.Parse(modelJSON)
	if err != nil {
		return nil, err
	}
	s := &Service{doc: doc, registry: registry, entropy: newEntropy()}
	if err := s.rebuild(); err != nil {
		return nil, err
	}
	return s, nil
}

func newEntropy() *ulid.MonotonicEntropy {
	seed, err := cryptorand.Int(cryptorand.Reader, big.NewInt(1<<62))
	if err != nil {
		seed = big.NewInt(time.Now().UnixNano())
	}
	return ulid.Monotonic(mathrand.New(mathrand.NewSource(seed.Int64())), 0)
}

// rebuild re-derives the compiled form from s.doc in its entirety — the
// full-rebuild strategy described on Service.
func (s *Service) rebuild() error {
	src, err := model.ToSource(s.doc)
	if err != nil {
		return fmt.Errorf("decisionservice: %w", err)
	}

	l := lexer.New(src)
	p := parser.New(l)
	root := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		return fmt.Errorf("decisionservice: parse error: %s", errs[0].Message)
	}

	lk := linker.New(s.registry)
	lk.Link(root)
	if errs := lk.Errors(); len(errs) > 0 {
		return fmt.Errorf("decisionservice: link error: %s", errs[0].Message)
	}

	s.root = root
	s.linker = lk
	s.rootEc = runtime.NewExecutionContext(root, nil)
	return nil
}

// Set replaces or inserts the value at a gjson/sjson-style dotted path
// (spec.md's `set(path, value)`) and recompiles the model.
func (s *Service) Set(path string, value any) error {
	raw, err := s.doc.Marshal()
	if err != nil {
		return fmt.Errorf("decisionservice: %w", err)
	}
	updated, err := sjson.SetBytes(raw, path, value)
	if err != nil {
		return fmt.Errorf("decisionservice: set %q: %w", path, err)
	}
	doc, err := model.Parse(updated)
	if err != nil {
		return err
	}
	s.doc = doc
	return s.rebuild()
}

// Get returns a portable snapshot of the subtree at path (spec.md's
// `get(path)`): the model's own JSON-shaped value, not an evaluated
// result — evaluation only happens through Execute.
func (s *Service) Get(path string) (any, error) {
	raw, err := s.doc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("decisionservice: %w", err)
	}
	res := gjson.GetBytes(raw, path)
	if !res.Exists() {
		return nil, fmt.Errorf("decisionservice: path %q not found", path)
	}
	return res.Value(), nil
}

// Remove drops the field at path (spec.md's `remove(path)`) and recompiles.
func (s *Service) Remove(path string) error {
	raw, err := s.doc.Marshal()
	if err != nil {
		return fmt.Errorf("decisionservice: %w", err)
	}
	updated, err := sjson.DeleteBytes(raw, path)
	if err != nil {
		return fmt.Errorf("decisionservice: remove %q: %w", path, err)
	}
	doc, err := model.Parse(updated)
	if err != nil {
		return err
	}
	s.doc = doc
	return s.rebuild()
}

// Model returns the full portable model as canonical JSON (spec.md's
// `get_decision_service_model`).
func (s *Service) Model() ([]byte, error) {
	return s.doc.Marshal()
}

// Execute binds request to function's first parameter, evaluates the
// body's conventional result field, and returns the portable value
// (spec.md's `execute(function_name, request)`). Every call is tagged
// with a monotonic ULID so a host can correlate a failing call across its
// own logs, even though nothing here actually logs anything itself.
func (s *Service) Execute(function string, request any) (any, error) {
	id := ulid.MustNew(ulid.Now(), s.entropy)

	f, ok := s.root.Field(function)
	if !ok {
		return nil, fmt.Errorf("decisionservice[%s]: function %q not found", id, function)
	}
	fn, ok := f.Value.(*ast.FunctionDefinition)
	if !ok {
		return nil, fmt.Errorf("decisionservice[%s]: field %q is not a function", id, function)
	}
	if len(fn.Params) == 0 {
		return nil, fmt.Errorf("decisionservice[%s]: function %q has no parameter to bind the request to", id, function)
	}

	reqVal, err := model.AnyToValue(request)
	if err != nil {
		return nil, fmt.Errorf("decisionservice[%s]: %w", id, err)
	}

	callEc := runtime.NewExecutionContext(fn.Body, s.rootEc)
	callEc.Bind(fn.Params[0].Name, reqVal)

	resultField, ok := conventionalField(fn.Body)
	if !ok {
		return nil, fmt.Errorf("decisionservice[%s]: function %q has an empty body", id, function)
	}

	ev := evaluator.New(s.registry, runtime.DefaultRecursionLimit)
	val, evalErr := ev.EvalField(callEc, resultField)
	if evalErr != nil {
		return nil, fmt.Errorf("decisionservice[%s]: %s", id, evalErr.Message)
	}
	return model.ValueToAny(val)
}

// conventionalField names the field a function call's value resolves to:
// `result` if present, otherwise the body's last field, matching
// internal/linker's linkFunctionDef.
func conventionalField(body *ast.ContextObject) (string, bool) {
	if _, ok := body.Field("result"); ok {
		return "result", true
	}
	if len(body.Fields) > 0 {
		return body.Fields[len(body.Fields)-1].Name, true
	}
	return "", false
}
