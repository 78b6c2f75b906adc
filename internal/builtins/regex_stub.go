//go:build !regex

package builtins

// Without the `regex` build tag, regexReplace/regexSplit are compiled out
// entirely (spec.md §9, "keep feature-gated built-ins behind a build flag
// so the default WASM footprint remains small") — NewRegistry's
// Options.EnableRegex has no effect in this build regardless of the
// ENABLE_REGEX env var, since both gates must agree (SPEC_FULL.md §6.7).
func regexSignatures() []*Signature { return nil }
