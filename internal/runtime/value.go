// Package runtime implements EdgeRules's value model and the execution
// context tree the evaluator reads and writes. It mirrors internal/types
// one-for-one (spec.md §3, "type variants mirror values") but carries
// actual data rather than a descriptor.
package runtime

import (
	"fmt"
	"time"

	"github.com/edgerules/edgerules/internal/types"
)

// Value is a tagged union over EdgeRules's closed value set. The zero Value
// carries kind Unlinked and is never a valid result on its own — callers
// always pair a non-nil *Error with it on failure paths and otherwise use
// the constructors below rather than struct literals.
type Value struct {
	kind types.Kind
	num  float64
	str  string
	b    bool
	t    time.Time
	dur  time.Duration
	list []Value
	ctx  *ExecutionContext
}

func (v Value) Kind() types.Kind { return v.kind }

func Number(n float64) Value  { return Value{kind: types.Number, num: n} }
func String(s string) Value   { return Value{kind: types.String, str: s} }
func Bool(b bool) Value       { return Value{kind: types.Boolean, b: b} }
func Date(t time.Time) Value  { return Value{kind: types.Date, t: t} }
func Time(t time.Time) Value  { return Value{kind: types.Time, t: t} }
func Datetime(t time.Time) Value { return Value{kind: types.Datetime, t: t} }
func Duration(d time.Duration) Value { return Value{kind: types.Duration, dur: d} }
func List(items []Value) Value { return Value{kind: types.List, list: items} }
func Context(c *ExecutionContext) Value { return Value{kind: types.Context, ctx: c} }

var (
	Missing       = Value{kind: types.Missing}
	NotApplicable = Value{kind: types.NotApplicable}
	NotFound      = Value{kind: types.NotFound}
)

// Range materializes `a..b` eagerly as a List(Number); spec.md treats it as
// a value variant distinct from List only at the type level; at the value
// level an inclusive integer range is just its member list (a > b is
// empty), which keeps indexing/filter/for-in uniform for both.
func Range(lo, hi int) Value {
	if hi < lo {
		return List(nil)
	}
	items := make([]Value, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		items = append(items, Number(float64(i)))
	}
	return List(items)
}

func (v Value) AsNumber() (float64, bool) {
	if v.kind == types.Number {
		return v.num, true
	}
	if v.kind == types.NotApplicable {
		return 0, true
	}
	return 0, false
}

func (v Value) AsString() (string, bool) {
	if v.kind == types.String {
		return v.str, true
	}
	return "", false
}

func (v Value) AsBool() (bool, bool) {
	if v.kind == types.Boolean {
		return v.b, true
	}
	return false, false
}

func (v Value) AsTime() (time.Time, bool) {
	switch v.kind {
	case types.Date, types.Time, types.Datetime:
		return v.t, true
	}
	return time.Time{}, false
}

func (v Value) AsDuration() (time.Duration, bool) {
	if v.kind == types.Duration {
		return v.dur, true
	}
	return 0, false
}

func (v Value) AsList() ([]Value, bool) {
	if v.kind == types.List {
		return v.list, true
	}
	return nil, false
}

func (v Value) AsContext() (*ExecutionContext, bool) {
	if v.kind == types.Context {
		return v.ctx, true
	}
	return nil, false
}

func (v Value) IsMissing() bool { return v.kind == types.Missing }

// Equal implements EdgeRules's `=`/`<>` comparison: identical kind and
// identical data, element by element for List; a Context equals only the
// very same execution context.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case types.Number:
		return v.num == other.num
	case types.String:
		return v.str == other.str
	case types.Boolean:
		return v.b == other.b
	case types.Date, types.Time, types.Datetime:
		return v.t.Equal(other.t)
	case types.Duration:
		return v.dur == other.dur
	case types.List:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case types.Missing, types.NotApplicable, types.NotFound:
		return true
	default:
		return v.ctx == other.ctx
	}
}

// String renders a value the way to_trace and the CLI print it.
func (v Value) String() string {
	switch v.kind {
	case types.Number:
		return trimFloat(v.num)
	case types.String:
		return v.str
	case types.Boolean:
		if v.b {
			return "true"
		}
		return "false"
	case types.Date:
		return v.t.Format("2006-01-02")
	case types.Time:
		return v.t.Format("15:04:05")
	case types.Datetime:
		return v.t.Format(time.RFC3339)
	case types.Duration:
		return v.dur.String()
	case types.List:
		s := "["
		for i, item := range v.list {
			if i > 0 {
				s += ", "
			}
			s += item.String()
		}
		return s + "]"
	case types.Context:
		return v.ctx.Trace()
	case types.Missing:
		return "Missing"
	case types.NotApplicable:
		return "NotApplicable"
	case types.NotFound:
		return "NotFound"
	default:
		return "?"
	}
}

func trimFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}
