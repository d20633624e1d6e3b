// cmd/gollamabench/root.go
package gollamabench

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// rootCmd is the base Cobra command for the gollamabench application.
// All subcommands are attached to this root to form the complete CLI.
var rootCmd = &cobra.Command{
	Use:   "gollamabench",
	Short: "Automated llama-bench parameter sweeps",
	Long: `gollamabench drives llama-bench across a combinatorial sweep of KV cache
quantization types, batch sizes, depths, and prompt/generation lengths,
with live progress display and per-configuration JSON result files.`,
}

// Execute runs the root Cobra command and all registered subcommands.
// It prints any returned error and exits the process with a non-zero
// status code on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("output-dir", "test-results", "directory for raw-data result files")
	pf.String("bench-bin", "llama-bench", "benchmark executable to invoke")
	pf.String("kv-types", "q8_0/q8_0", "comma-separated k/v cache type pairs, e.g. q8_0/q8_0,f16/f16")
	pf.String("batch-sizes", "8192", "comma-separated batch sizes (-b)")
	pf.String("ubatch-sizes", "2048", "comma-separated micro-batch sizes (-ub)")
	pf.String("depths", "0,512,1024,2048,4096,8192", "comma-separated context depths (-d)")
	pf.String("prompt-lengths", "128,256,512,1024,2048,4096,8192", "comma-separated prompt lengths (-p)")
	pf.String("gen-lengths", "128,256,512,1024,2048,4096,8192", "comma-separated generation lengths (-n)")
	pf.Bool("debug", false, "write debug.log and dump the effective config")

	// Bind every flag to viper so a gollamabench.yaml in the working
	// directory can override the defaults.
	viper.BindPFlags(pf)
}
