package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgerules/edgerules/pkg/edgerules"
)

var traceEvalExpr string

var traceCmd = &cobra.Command{
	Use:   "trace [file]",
	Short: "Evaluate a program and print every memoized field, indented by context nesting",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTrace,
}

func init() {
	traceCmd.Flags().StringVarP(&traceEvalExpr, "eval", "e", "", "trace inline source instead of reading from a file")
	rootCmd.AddCommand(traceCmd)
}

func runTrace(cmd *cobra.Command, args []string) error {
	source, _, err := readSource(traceEvalExpr, args)
	if err != nil {
		return err
	}
	trace, evalErr := edgerules.ToTrace(source)
	if evalErr != nil {
		printDiagnostic(evalErr)
		return fmt.Errorf("trace failed")
	}
	fmt.Fprintln(os.Stdout, trace)
	return nil
}
