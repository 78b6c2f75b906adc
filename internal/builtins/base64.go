//go:build base64

package builtins

import (
	"encoding/base64"

	"github.com/edgerules/edgerules/internal/runtime"
	"github.com/edgerules/edgerules/internal/types"
)

func base64Signatures() []*Signature {
	return []*Signature{
		{Name: "toBase64", Params: []*types.Type{types.TString}, Result: types.TString, Fn: biToBase64},
		{Name: "fromBase64", Params: []*types.Type{types.TString}, Result: types.TString, Fn: biFromBase64},
	}
}

func biToBase64(args []runtime.Value) (runtime.Value, *Issue) {
	s, ok := args[0].AsString()
	if !ok {
		return runtime.Value{}, issue("ValueParsingError", "toBase64 expects a String")
	}
	return runtime.String(base64.StdEncoding.EncodeToString([]byte(s))), nil
}

func biFromBase64(args []runtime.Value) (runtime.Value, *Issue) {
	s, ok := args[0].AsString()
	if !ok {
		return runtime.Value{}, issue("ValueParsingError", "fromBase64 expects a String")
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return runtime.Value{}, issue("ValueParsingError", "invalid base64: "+err.Error())
	}
	return runtime.String(string(decoded)), nil
}
