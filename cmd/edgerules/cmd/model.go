package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/edgerules/edgerules/internal/model"
	"github.com/edgerules/edgerules/pkg/edgerules"
)

var modelPath string

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Inspect and mutate a decision-service model file",
}

var modelGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Print the value at a dotted path within the model",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelGet,
}

var modelSetCmd = &cobra.Command{
	Use:   "set <path> <json-value>",
	Short: "Set the value at a dotted path and rewrite the model file",
	Args:  cobra.ExactArgs(2),
	RunE:  runModelSet,
}

var modelRemoveCmd = &cobra.Command{
	Use:   "remove <path>",
	Short: "Remove the field at a dotted path and rewrite the model file",
	Args:  cobra.ExactArgs(1),
	RunE:  runModelRemove,
}

var modelExecuteCmd = &cobra.Command{
	Use:   "execute <function> <json-request>",
	Short: "Execute a top-level function against a request and print its result",
	Args:  cobra.ExactArgs(2),
	RunE:  runModelExecute,
}

func init() {
	modelCmd.PersistentFlags().StringVarP(&modelPath, "file", "f", "model.yaml", "path to the model file (YAML or JSON authoring)")
	modelCmd.AddCommand(modelGetCmd, modelSetCmd, modelRemoveCmd, modelExecuteCmd)
	rootCmd.AddCommand(modelCmd)
}

// loadService reads modelPath and boots an in-process decision service from
// it. The file is always parsed as YAML, which also accepts JSON, whatever
// its extension.
func loadService(cmd *cobra.Command) (*edgerules.DecisionService, error) {
	raw, err := os.ReadFile(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", modelPath, err)
	}

	doc, err := model.ParseYAML(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", modelPath, err)
	}
	canonical, err := doc.Marshal()
	if err != nil {
		return nil, err
	}

	svc, svcErr := edgerules.CreateDecisionService(canonical)
	if svcErr != nil {
		printDiagnostic(svcErr)
		return nil, fmt.Errorf("failed to create decision service")
	}
	return svc, nil
}

// persistService writes the service's current model back to modelPath,
// authoring YAML when the file extension calls for it, atomically via
// renameio so a crash mid-write never corrupts the file on disk.
func persistService(svc *edgerules.DecisionService) error {
	canonical, err := svc.GetDecisionServiceModel()
	if err != nil {
		printDiagnostic(err)
		return fmt.Errorf("failed to read back model")
	}

	var out []byte
	if isYAMLPath(modelPath) {
		var doc map[string]any
		if err := json.Unmarshal(canonical, &doc); err != nil {
			return err
		}
		out, err = yaml.Marshal(doc)
		if err != nil {
			return err
		}
	} else {
		out = canonical
	}

	pf, err := renameio.NewPendingFile(modelPath, renameio.WithPermissions(0o644), renameio.WithExistingPermissions())
	if err != nil {
		return fmt.Errorf("renameio.NewPendingFile: %w", err)
	}
	defer pf.Cleanup()
	if _, err := pf.Write(out); err != nil {
		return err
	}
	return pf.CloseAtomicallyReplace()
}

func isYAMLPath(path string) bool {
	for _, suffix := range []string{".yaml", ".yml"} {
		if len(path) >= len(suffix) && path[len(path)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

func runModelGet(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd)
	if err != nil {
		return err
	}
	val, getErr := svc.GetModel(args[0])
	if getErr != nil {
		printDiagnostic(getErr)
		return fmt.Errorf("get failed")
	}
	return printJSON(val)
}

func runModelSet(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd)
	if err != nil {
		return err
	}
	var value any
	if err := json.Unmarshal([]byte(args[1]), &value); err != nil {
		return fmt.Errorf("invalid JSON value: %w", err)
	}
	if setErr := svc.SetModel(args[0], value); setErr != nil {
		printDiagnostic(setErr)
		return fmt.Errorf("set failed")
	}
	return persistService(svc)
}

func runModelRemove(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd)
	if err != nil {
		return err
	}
	if rmErr := svc.RemoveModel(args[0]); rmErr != nil {
		printDiagnostic(rmErr)
		return fmt.Errorf("remove failed")
	}
	return persistService(svc)
}

func runModelExecute(cmd *cobra.Command, args []string) error {
	svc, err := loadService(cmd)
	if err != nil {
		return err
	}
	var request any
	if err := json.Unmarshal([]byte(args[1]), &request); err != nil {
		return fmt.Errorf("invalid JSON request: %w", err)
	}
	result, execErr := svc.Execute(args[0], request)
	if execErr != nil {
		printDiagnostic(execErr)
		return fmt.Errorf("execute failed")
	}
	return printJSON(result)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
