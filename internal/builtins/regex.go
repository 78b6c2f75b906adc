//go:build regex

package builtins

import (
	"regexp"

	"github.com/edgerules/edgerules/internal/runtime"
	"github.com/edgerules/edgerules/internal/types"
)

// regexSignatures backs `regexReplace`/`regexSplit` with the standard
// library's regexp package — no ecosystem engine in the retrieved example
// pack improves on it for this scope (SPEC_FULL.md §4.5), so this is one of
// the deliberate stdlib choices recorded in DESIGN.md rather than a gap.
func regexSignatures() []*Signature {
	return []*Signature{
		{
			Name:   "regexReplace",
			Params: []*types.Type{types.TString, types.TString, types.TString},
			Result: types.TString,
			Fn:     biRegexReplace,
		},
		{
			Name:   "regexSplit",
			Params: []*types.Type{types.TString, types.TString},
			Result: types.ListOf(types.TString),
			Fn:     biRegexSplit,
		},
	}
}

func biRegexReplace(args []runtime.Value) (runtime.Value, *Issue) {
	s, oks := args[0].AsString()
	pattern, okp := args[1].AsString()
	repl, okr := args[2].AsString()
	if !oks || !okp || !okr {
		return runtime.Value{}, issue("ValueParsingError", "regexReplace expects (String, String, String)")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return runtime.Value{}, issue("ValueParsingError", "invalid regex: "+err.Error())
	}
	return runtime.String(re.ReplaceAllString(s, repl)), nil
}

func biRegexSplit(args []runtime.Value) (runtime.Value, *Issue) {
	s, oks := args[0].AsString()
	pattern, okp := args[1].AsString()
	if !oks || !okp {
		return runtime.Value{}, issue("ValueParsingError", "regexSplit expects (String, String)")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return runtime.Value{}, issue("ValueParsingError", "invalid regex: "+err.Error())
	}
	parts := re.Split(s, -1)
	items := make([]runtime.Value, len(parts))
	for i, p := range parts {
		items[i] = runtime.String(p)
	}
	return runtime.List(items), nil
}
