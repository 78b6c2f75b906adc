// Command edgerules is the CLI front end for pkg/edgerules: evaluating DSL
// source, printing execution traces, and driving the decision-service
// model mutation/execution operations from the shell (SPEC_FULL.md §6.5).
package main

import (
	"fmt"
	"os"

	"github.com/edgerules/edgerules/cmd/edgerules/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
