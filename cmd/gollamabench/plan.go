// cmd/gollamabench/plan.go
package gollamabench

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// planCmd implements 'plan', which prints the sweep that 'run' would
// execute without launching anything.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show the sweep size without running it",
	Long: `The 'plan' command prints the configured KV cache type pairs, the number
of parameter combinations per pair, and the estimated total run count.
Nothing is executed.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadSweepConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		perPair := cfg.CountCombinations()
		fmt.Printf("Combinations per cache pair: %d\n", perPair)
		fmt.Println("Cache pairs:")
		for _, pair := range cfg.KVCacheTypes {
			fmt.Printf("  %s\n", pair.Label())
		}
		fmt.Printf("Total runs: %d\n", cfg.TotalRuns())
		fmt.Printf("Output directory: %s\n", cfg.OutputDir)
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}
