// modsim runs modular manipulation environments from a YAML
// description.
//
// Usage:
//
//	modsim run --config env.yaml             - Run episodes with random actions
//	modsim run --config env.yaml --frames f/ - Also dump PNG frames
//
// Global flags:
//
//	--seed <value> - Set RNG seed for reproducible action sampling
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagSeed uint64

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "modsim",
	Short: "Run modular manipulation environments",
	Long: `modsim builds a manipulation environment from a YAML description
and runs it.

Available commands:
  run - Run episodes with uniform random actions

Examples:
  modsim run --config env.yaml --episodes 10
  modsim run --config env.yaml --stats-db runs.db --frames ./frames`,
}

func init() {
	rootCmd.PersistentFlags().Uint64Var(&flagSeed, "seed", 1,
		"RNG seed for action sampling")
	rootCmd.AddCommand(runCmd)
}
