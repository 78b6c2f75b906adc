package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/edgerules/edgerules/pkg/edgerules"
)

var evalExpr string

func init() {
	rootCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline source instead of reading from a file")
	rootCmd.Args = cobra.MaximumNArgs(1)
	rootCmd.RunE = runProgram
}

// runProgram is the root command's own action, spec.md §6.5's
// `edgerules <source>`: evaluate every field and print the root result.
func runProgram(cmd *cobra.Command, args []string) error {
	source, _, err := readSource(evalExpr, args)
	if err != nil {
		return err
	}

	val, evalErr := edgerules.EvaluateAll(source)
	if evalErr != nil {
		printDiagnostic(evalErr)
		return fmt.Errorf("evaluation failed")
	}
	fmt.Println(val.String())
	return nil
}

// readSource resolves the program text from -e, a file argument, or stdin.
func readSource(inline string, args []string) (source, filename string, err error) {
	if inline != "" {
		return inline, "<eval>", nil
	}
	if len(args) == 1 {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		return string(content), args[0], nil
	}
	content, err := readAllStdin()
	if err != nil {
		return "", "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return content, "<stdin>", nil
}

func readAllStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// applyFeatureFlags translates the resolved config's feature gates into
// the ENABLE_REGEX/ENABLE_BASE64 env vars that pkg/edgerules's per-call
// registry() reads to build internal/builtins.Options (see edgerules.go's
// comment on why this has to be an env var rather than a direct parameter).
func applyFeatureFlags(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.EnableRegex {
		os.Setenv("ENABLE_REGEX", "true")
	}
	if cfg.EnableBase64 {
		os.Setenv("ENABLE_BASE64", "true")
	}
	return nil
}

// printDiagnostic prints a core *edgerules.Error the way cmd/dwscript's
// run command prints a CompilerError: bold, optionally colorized.
func printDiagnostic(err *edgerules.Error) {
	bold := color.New(color.Bold)
	bold.Fprintf(os.Stderr, "%s: %s\n", err.Kind, err.Message)
	if len(err.Path) > 0 {
		fmt.Fprintf(os.Stderr, "  at %v\n", err.Path)
	}
}
