package model

import (
	"fmt"

	"github.com/edgerules/edgerules/internal/ast"
	"github.com/edgerules/edgerules/internal/runtime"
	"github.com/edgerules/edgerules/internal/token"
	"github.com/edgerules/edgerules/internal/types"
)

// AnyToValue converts a host-supplied, JSON-shaped request value (as used
// by DecisionService.Execute's `request` parameter) into a runtime.Value.
// Unlike ToSource's field strings, a request's strings are literal data,
// never DSL source — the two conversions deliberately differ because a
// request is already-evaluated data flowing in, not program text.
func AnyToValue(v any) (runtime.Value, error) {
	switch t := v.(type) {
	case nil:
		return runtime.Missing, nil
	case float64:
		return runtime.Number(t), nil
	case int:
		return runtime.Number(float64(t)), nil
	case string:
		return runtime.String(t), nil
	case bool:
		return runtime.Bool(t), nil
	case []any:
		items := make([]runtime.Value, len(t))
		for i, el := range t {
			val, err := AnyToValue(el)
			if err != nil {
				return runtime.Value{}, err
			}
			items[i] = val
		}
		return runtime.List(items), nil
	case map[string]any:
		ec, err := literalContext(t)
		if err != nil {
			return runtime.Value{}, err
		}
		return runtime.Context(ec), nil
	default:
		return runtime.Value{}, fmt.Errorf("model: unsupported request value of type %T", v)
	}
}

// literalContext builds an ExecutionContext whose fields are pre-memoized
// with already-converted literal values, so selecting a field never needs
// to evaluate an AST node at all — the static ContextObject exists only so
// Field lookups succeed structurally. The placeholder expression in each
// field is never evaluated: MemoGet short-circuits evalFieldOn before it
// would be reached.
func literalContext(m map[string]any) (*runtime.ExecutionContext, error) {
	static := ast.NewContextObject(token.Token{})
	ec := runtime.NewExecutionContext(static, nil)
	for k, v := range m {
		val, err := AnyToValue(v)
		if err != nil {
			return nil, err
		}
		placeholder := &ast.NumberLiteral{}
		placeholder.Type().SetLinked(types.TAny)
		static.SetField(&ast.Field{Name: k, Value: placeholder})
		ec.MemoSet(k, val)
	}
	return ec, nil
}

// ValueToAny converts an evaluated runtime.Value back into a JSON-shaped
// host value (DecisionService.Execute's return).
func ValueToAny(v runtime.Value) (any, error) {
	switch v.Kind() {
	case types.Number:
		n, _ := v.AsNumber()
		return n, nil
	case types.String:
		s, _ := v.AsString()
		return s, nil
	case types.Boolean:
		b, _ := v.AsBool()
		return b, nil
	case types.Date:
		t, _ := v.AsTime()
		return t.Format("2006-01-02"), nil
	case types.Time:
		t, _ := v.AsTime()
		return t.Format("15:04:05"), nil
	case types.Datetime:
		t, _ := v.AsTime()
		return t.Format("2006-01-02T15:04:05Z07:00"), nil
	case types.Duration:
		d, _ := v.AsDuration()
		return d.String(), nil
	case types.List:
		list, _ := v.AsList()
		out := make([]any, len(list))
		for i, item := range list {
			conv, err := ValueToAny(item)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case types.Missing, types.NotApplicable, types.NotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("model: cannot export a Context value directly; evaluate its fields first")
	}
}
