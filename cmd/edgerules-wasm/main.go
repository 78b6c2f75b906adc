//go:build js && wasm

// Package main is the WebAssembly entry point for the EdgeRules evaluator.
// It exposes pkg/edgerules's entry points to JavaScript under
// window.EdgeRules and handles the WASM lifecycle.
//
// Build with:
//   GOOS=js GOARCH=wasm go build -o edgerules.wasm ./cmd/edgerules-wasm
//
// Usage from JavaScript:
//   <script src="wasm_exec.js"></script>
//   <script>
//     const go = new Go();
//     WebAssembly.instantiateStreaming(fetch("edgerules.wasm"), go.importObject)
//       .then((result) => {
//         go.run(result.instance);
//         // EdgeRules API is now available as window.EdgeRules
//       });
//   </script>
package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/edgerules/edgerules/internal/model"
	"github.com/edgerules/edgerules/pkg/edgerules"
)

func main() {
	done := make(chan struct{})

	registerAPI()

	js.Global().Get("console").Call("log", "EdgeRules WASM module initialized")

	<-done
}

func registerAPI() {
	api := js.Global().Get("Object").New()
	api.Set("evaluateExpression", js.FuncOf(evaluateExpression))
	api.Set("evaluateField", js.FuncOf(evaluateField))
	api.Set("evaluateAll", js.FuncOf(evaluateAll))
	api.Set("evaluateMethod", js.FuncOf(evaluateMethod))
	api.Set("toTrace", js.FuncOf(toTrace))
	api.Set("createDecisionService", js.FuncOf(createDecisionService))
	api.Set("setModel", js.FuncOf(setModel))
	api.Set("getModel", js.FuncOf(getModel))
	api.Set("removeModel", js.FuncOf(removeModel))
	api.Set("getDecisionServiceModel", js.FuncOf(getDecisionServiceModel))
	api.Set("execute", js.FuncOf(execute))
	js.Global().Set("EdgeRules", api)
}

// services holds decision-service handles keyed by an opaque integer id
// handed back to JavaScript, since syscall/js can't carry a Go pointer
// across the boundary directly.
var services = map[int]*edgerules.DecisionService{}
var nextServiceID = 0

func errResult(err *edgerules.Error) map[string]any {
	return map[string]any{"ok": false, "error": map[string]any{
		"kind": err.Kind, "message": err.Message, "path": err.Path,
	}}
}

func okResult(value any) map[string]any {
	return map[string]any{"ok": true, "value": value}
}

func toJSValue(v map[string]any) js.Value {
	encoded, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf(map[string]any{"ok": false, "error": err.Error()})
	}
	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return js.ValueOf(map[string]any{"ok": false, "error": err.Error()})
	}
	return js.ValueOf(decoded)
}

func evaluateExpression(this js.Value, args []js.Value) any {
	val, err := edgerules.EvaluateExpression(args[0].String())
	if err != nil {
		return toJSValue(errResult(err))
	}
	out, convErr := model.ValueToAny(val)
	if convErr != nil {
		return toJSValue(errResult(&edgerules.Error{Kind: "ExportError", Message: convErr.Error()}))
	}
	return toJSValue(okResult(out))
}

func evaluateField(this js.Value, args []js.Value) any {
	val, err := edgerules.EvaluateField(args[0].String(), args[1].String())
	if err != nil {
		return toJSValue(errResult(err))
	}
	out, convErr := model.ValueToAny(val)
	if convErr != nil {
		return toJSValue(errResult(&edgerules.Error{Kind: "ExportError", Message: convErr.Error()}))
	}
	return toJSValue(okResult(out))
}

func evaluateAll(this js.Value, args []js.Value) any {
	val, err := edgerules.EvaluateAll(args[0].String())
	if err != nil {
		return toJSValue(errResult(err))
	}
	out, convErr := model.ValueToAny(val)
	if convErr != nil {
		return toJSValue(errResult(&edgerules.Error{Kind: "ExportError", Message: convErr.Error()}))
	}
	return toJSValue(okResult(out))
}

func evaluateMethod(this js.Value, args []js.Value) any {
	var request any
	if err := json.Unmarshal([]byte(args[2].String()), &request); err != nil {
		return toJSValue(errResult(&edgerules.Error{Kind: "RequestParseError", Message: err.Error()}))
	}
	reqVal, convErr := model.AnyToValue(request)
	if convErr != nil {
		return toJSValue(errResult(&edgerules.Error{Kind: "RequestParseError", Message: convErr.Error()}))
	}
	val, err := edgerules.EvaluateMethod(args[0].String(), args[1].String(), reqVal)
	if err != nil {
		return toJSValue(errResult(err))
	}
	out, convErr := model.ValueToAny(val)
	if convErr != nil {
		return toJSValue(errResult(&edgerules.Error{Kind: "ExportError", Message: convErr.Error()}))
	}
	return toJSValue(okResult(out))
}

func toTrace(this js.Value, args []js.Value) any {
	trace, err := edgerules.ToTrace(args[0].String())
	if err != nil {
		return toJSValue(errResult(err))
	}
	return toJSValue(okResult(trace))
}

func createDecisionService(this js.Value, args []js.Value) any {
	svc, err := edgerules.CreateDecisionService([]byte(args[0].String()))
	if err != nil {
		return toJSValue(errResult(err))
	}
	id := nextServiceID
	nextServiceID++
	services[id] = svc
	return toJSValue(okResult(id))
}

func lookupService(args []js.Value) (*edgerules.DecisionService, map[string]any) {
	id := args[0].Int()
	svc, ok := services[id]
	if !ok {
		return nil, errResult(&edgerules.Error{Kind: "UnknownService", Message: "no decision service with that handle"})
	}
	return svc, nil
}

func setModel(this js.Value, args []js.Value) any {
	svc, errMap := lookupService(args)
	if svc == nil {
		return toJSValue(errMap)
	}
	var value any
	if err := json.Unmarshal([]byte(args[2].String()), &value); err != nil {
		return toJSValue(errResult(&edgerules.Error{Kind: "RequestParseError", Message: err.Error()}))
	}
	if err := svc.SetModel(args[1].String(), value); err != nil {
		return toJSValue(errResult(err))
	}
	return toJSValue(okResult(nil))
}

func getModel(this js.Value, args []js.Value) any {
	svc, errMap := lookupService(args)
	if svc == nil {
		return toJSValue(errMap)
	}
	val, err := svc.GetModel(args[1].String())
	if err != nil {
		return toJSValue(errResult(err))
	}
	return toJSValue(okResult(val))
}

func removeModel(this js.Value, args []js.Value) any {
	svc, errMap := lookupService(args)
	if svc == nil {
		return toJSValue(errMap)
	}
	if err := svc.RemoveModel(args[1].String()); err != nil {
		return toJSValue(errResult(err))
	}
	return toJSValue(okResult(nil))
}

func getDecisionServiceModel(this js.Value, args []js.Value) any {
	svc, errMap := lookupService(args)
	if svc == nil {
		return toJSValue(errMap)
	}
	data, err := svc.GetDecisionServiceModel()
	if err != nil {
		return toJSValue(errResult(err))
	}
	var decoded any
	if jsonErr := json.Unmarshal(data, &decoded); jsonErr != nil {
		return toJSValue(errResult(&edgerules.Error{Kind: "ExportError", Message: jsonErr.Error()}))
	}
	return toJSValue(okResult(decoded))
}

func execute(this js.Value, args []js.Value) any {
	svc, errMap := lookupService(args)
	if svc == nil {
		return toJSValue(errMap)
	}
	var request any
	if err := json.Unmarshal([]byte(args[2].String()), &request); err != nil {
		return toJSValue(errResult(&edgerules.Error{Kind: "RequestParseError", Message: err.Error()}))
	}
	result, err := svc.Execute(args[1].String(), request)
	if err != nil {
		return toJSValue(errResult(err))
	}
	return toJSValue(okResult(result))
}
