// Package builtins implements EdgeRules's built-in function library
// (spec.md §4.5) and the registration-table pattern internal/linker and
// internal/evaluator both consume it through, generalized from go-dws's
// internal/interp/builtins/registry.go.
package builtins

import (
	"math"
	"time"

	"github.com/edgerules/edgerules/internal/runtime"
	"github.com/edgerules/edgerules/internal/types"
)

// Issue is a built-in's own evaluation failure, kept independent of
// internal/evaluator's RuntimeError so this package never imports its
// caller; the evaluator translates Issue.Kind into the matching
// RuntimeError kind at the one call site that invokes a built-in.
type Issue struct {
	Kind    string
	Message string
}

func (i *Issue) Error() string { return i.Message }

func issue(kind, msg string) *Issue { return &Issue{Kind: kind, Message: msg} }

// Signature describes one built-in's arity and static return type; the
// linker consults Params/Variadic/Result for type inference, the evaluator
// calls Fn for execution.
type Signature struct {
	Name     string
	Params   []*types.Type
	Result   *types.Type
	Variadic bool
	Fn       func(args []runtime.Value) (runtime.Value, *Issue)
}

// Registry is the name-keyed table of built-ins available to a linked
// program. Feature-gated functions are added by Options at construction.
type Registry struct {
	sigs map[string]*Signature
}

// Options toggles the optional, feature-gated built-ins (spec.md §6.7);
// both the env flag and the corresponding Go build tag must agree for a
// feature to actually be registered — see internal/builtins/regex.go and
// base64.go.
type Options struct {
	EnableRegex  bool
	EnableBase64 bool
}

// NewRegistry builds the registry of required built-ins plus any
// feature-gated ones enabled by opts and compiled in.
func NewRegistry(opts Options) *Registry {
	r := &Registry{sigs: make(map[string]*Signature)}
	for _, s := range coreSignatures() {
		r.register(s)
	}
	if opts.EnableRegex {
		for _, s := range regexSignatures() {
			r.register(s)
		}
	}
	if opts.EnableBase64 {
		for _, s := range base64Signatures() {
			r.register(s)
		}
	}
	return r
}

func (r *Registry) register(s *Signature) { r.sigs[s.Name] = s }

// Lookup returns the signature registered under name, if any.
func (r *Registry) Lookup(name string) (*Signature, bool) {
	s, ok := r.sigs[name]
	return s, ok
}

func coreSignatures() []*Signature {
	numList := types.ListOf(types.TNumber)
	return []*Signature{
		{Name: "sum", Params: []*types.Type{numList}, Result: types.TNumber, Fn: biSum},
		{Name: "max", Params: []*types.Type{numList}, Result: types.TNumber, Fn: biMax},
		{Name: "min", Params: []*types.Type{numList}, Result: types.TNumber, Fn: biMin},
		{Name: "count", Params: []*types.Type{types.ListOf(types.TAny)}, Result: types.TNumber, Fn: biCount},
		{Name: "find", Params: []*types.Type{types.ListOf(types.TAny), types.TAny}, Result: types.TNumber, Fn: biFind},
		{Name: "floor", Params: []*types.Type{types.TNumber}, Result: types.TNumber, Fn: unaryMath(math.Floor)},
		{Name: "ceiling", Params: []*types.Type{types.TNumber}, Result: types.TNumber, Fn: unaryMath(math.Ceil)},
		{Name: "abs", Params: []*types.Type{types.TNumber}, Result: types.TNumber, Fn: unaryMath(math.Abs)},
		{Name: "date", Params: []*types.Type{types.TNumber, types.TNumber, types.TNumber}, Result: types.TDate, Fn: biDate},
		{Name: "datetime", Params: []*types.Type{types.TNumber, types.TNumber, types.TNumber, types.TNumber, types.TNumber, types.TNumber}, Result: types.TDatetime, Fn: biDatetime},
		{Name: "duration", Params: []*types.Type{types.TNumber, types.TString}, Result: types.TDuration, Fn: biDuration},
		{Name: "calendarDiff", Params: []*types.Type{types.TDate, types.TDate, types.TString}, Result: types.TNumber, Fn: biCalendarDiff},
	}
}

func unaryMath(f func(float64) float64) func([]runtime.Value) (runtime.Value, *Issue) {
	return func(args []runtime.Value) (runtime.Value, *Issue) {
		n, ok := args[0].AsNumber()
		if !ok {
			if args[0].IsMissing() {
				return runtime.Missing, nil
			}
			return runtime.Value{}, issue("TypeNotSupported", "expected a Number argument")
		}
		return runtime.Number(f(n)), nil
	}
}

func biSum(args []runtime.Value) (runtime.Value, *Issue) {
	list, ok := args[0].AsList()
	if !ok {
		return runtime.Value{}, issue("TypeNotSupported", "sum expects a List")
	}
	total := 0.0
	for _, v := range list {
		n, ok := v.AsNumber()
		if !ok {
			if v.IsMissing() {
				return runtime.Missing, nil
			}
			return runtime.Value{}, issue("TypeNotSupported", "sum expects a List of Number")
		}
		total += n
	}
	return runtime.Number(total), nil
}

func biMax(args []runtime.Value) (runtime.Value, *Issue) {
	return extremum(args, func(a, b float64) bool { return a > b })
}

func biMin(args []runtime.Value) (runtime.Value, *Issue) {
	return extremum(args, func(a, b float64) bool { return a < b })
}

func extremum(args []runtime.Value, better func(a, b float64) bool) (runtime.Value, *Issue) {
	list, ok := args[0].AsList()
	if !ok {
		return runtime.Value{}, issue("TypeNotSupported", "expects a List")
	}
	if len(list) == 0 {
		return runtime.Missing, nil
	}
	best, ok := list[0].AsNumber()
	if !ok {
		return runtime.Value{}, issue("TypeNotSupported", "expects a List of Number")
	}
	for _, v := range list[1:] {
		n, ok := v.AsNumber()
		if !ok {
			return runtime.Value{}, issue("TypeNotSupported", "expects a List of Number")
		}
		if better(n, best) {
			best = n
		}
	}
	return runtime.Number(best), nil
}

func biCount(args []runtime.Value) (runtime.Value, *Issue) {
	list, ok := args[0].AsList()
	if !ok {
		return runtime.Value{}, issue("TypeNotSupported", "count expects a List")
	}
	return runtime.Number(float64(len(list))), nil
}

// biFind returns the index of the first element equal to args[1], or
// Missing if absent — the same "out-of-bounds is not an error" policy
// spec.md §4.4 gives plain indexing.
func biFind(args []runtime.Value) (runtime.Value, *Issue) {
	list, ok := args[0].AsList()
	if !ok {
		return runtime.Value{}, issue("TypeNotSupported", "find expects a List")
	}
	for i, v := range list {
		if v.Equal(args[1]) {
			return runtime.Number(float64(i)), nil
		}
	}
	return runtime.Missing, nil
}

func biDate(args []runtime.Value) (runtime.Value, *Issue) {
	y, oky := args[0].AsNumber()
	m, okm := args[1].AsNumber()
	d, okd := args[2].AsNumber()
	if !oky || !okm || !okd {
		return runtime.Value{}, issue("ValueParsingError", "date expects three numeric arguments")
	}
	return runtime.Date(time.Date(int(y), time.Month(int(m)), int(d), 0, 0, 0, 0, time.UTC)), nil
}

func biDatetime(args []runtime.Value) (runtime.Value, *Issue) {
	parts := make([]int, 6)
	for i := range parts {
		n, ok := args[i].AsNumber()
		if !ok {
			return runtime.Value{}, issue("ValueParsingError", "datetime expects six numeric arguments")
		}
		parts[i] = int(n)
	}
	t := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, time.UTC)
	return runtime.Datetime(t), nil
}

func biDuration(args []runtime.Value) (runtime.Value, *Issue) {
	n, okn := args[0].AsNumber()
	unit, oku := args[1].AsString()
	if !okn || !oku {
		return runtime.Value{}, issue("ValueParsingError", "duration expects (Number, String)")
	}
	d, err := durationFromUnit(n, unit)
	if err != nil {
		return runtime.Value{}, issue("ValueParsingError", err.Error())
	}
	return runtime.Duration(d), nil
}

func biCalendarDiff(args []runtime.Value) (runtime.Value, *Issue) {
	a, oka := args[0].AsTime()
	b, okb := args[1].AsTime()
	unit, oku := args[2].AsString()
	if !oka || !okb || !oku {
		return runtime.Value{}, issue("ValueParsingError", "calendarDiff expects (Date, Date, String)")
	}
	diff := b.Sub(a)
	scaled, err := scaleDurationToUnit(diff, unit)
	if err != nil {
		return runtime.Value{}, issue("ValueParsingError", err.Error())
	}
	return runtime.Number(scaled), nil
}
