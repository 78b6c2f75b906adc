package cmd

import (
	"github.com/spf13/cobra"
)

var (
	// Version is set by build flags; BuildCommit/BuildDate are
	// informational only.
	Version     = "0.1.0-dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "edgerules",
	Aliases: []string{"er"},
	Short:   "Evaluate and serve EdgeRules decision models",
	Long: `edgerules evaluates programs written in the EdgeRules expression
language and drives the decision-service model operations (create, set,
get, remove, execute) against a portable JSON/YAML model.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return applyFeatureFlags(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("enable-regex", false, "enable regexReplace/regexSplit built-ins")
	rootCmd.PersistentFlags().Bool("enable-base64", false, "enable toBase64/fromBase64 built-ins")
	rootCmd.PersistentFlags().String("output-format", "text", "output format (accepted but not used; output is always text)")
}
