// cmd/gollamabench/run.go
package gollamabench

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/k0kubun/pp"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/gollamabench/cli"
	"github.com/mwiater/gollamabench/sweep"
)

var (
	skipConfirm bool
	plainOutput bool
)

// runCmd represents the 'run' command, which executes the full sweep
// against a model file.
var runCmd = &cobra.Command{
	Use:   "run <model-path>",
	Short: "Run the benchmark sweep against a model",
	Long: `The 'run' command launches llama-bench once per configured KV cache type
pair, streams its jsonl output into the live display, and writes one
raw-data JSON file per pair into the output directory.

Exit codes: 0 on completion (or interrupt at the confirmation prompt),
1 on a missing or invalid model path, 130 on interrupt during the sweep.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSweep(args[0])
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "start without the confirmation prompt")
	runCmd.Flags().BoolVar(&plainOutput, "plain", false, "line-per-result output instead of the live display")
}

// loadSweepConfig assembles the sweep configuration from flag defaults,
// an optional gollamabench.yaml in the working directory, and explicit
// flag overrides, in ascending precedence.
func loadSweepConfig() (sweep.Config, error) {
	viper.SetConfigName("gollamabench")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return sweep.Config{}, fmt.Errorf("could not read config file: %w", err)
		}
	}

	pairs, err := sweep.ParseCachePairs(viper.GetString("kv-types"))
	if err != nil {
		return sweep.Config{}, err
	}

	return sweep.Config{
		KVCacheTypes:  pairs,
		BatchSizes:    viper.GetString("batch-sizes"),
		UBatchSizes:   viper.GetString("ubatch-sizes"),
		Depths:        viper.GetString("depths"),
		PromptLengths: viper.GetString("prompt-lengths"),
		GenLengths:    viper.GetString("gen-lengths"),
		OutputDir:     viper.GetString("output-dir"),
		BenchBin:      viper.GetString("bench-bin"),
	}, nil
}

func runSweep(modelPath string) {
	cfg, err := loadSweepConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	debug := viper.GetBool("debug")
	if debug {
		pp.Println(cfg)
	}

	runner, err := sweep.NewRunner(modelPath, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Plan to run approximately %d tests.\n", cfg.TotalRuns())
	if !skipConfirm {
		confirmStart()
	}

	start := time.Now()
	var interrupted bool
	if plainOutput || !isatty.IsTerminal(os.Stdout.Fd()) {
		interrupted, err = cli.RunPlain(runner)
	} else {
		interrupted, err = cli.StartSweep(runner, debug)
	}
	if interrupted {
		fmt.Println("\nInterrupted.")
		os.Exit(130)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	elapsed := time.Since(start)
	fmt.Printf("Done. Time: %dm %ds\n", int(elapsed.Minutes()), int(elapsed.Seconds())%60)
	fmt.Printf("Results saved to: %s\n", cfg.OutputDir)
}

// confirmStart blocks until the user presses Enter. An interrupt at
// this prompt is a clean "never mind" and exits 0; only interrupts
// during the sweep itself exit 130.
func confirmStart() {
	fmt.Println("Press Enter to start...")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)

	entered := make(chan struct{})
	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		close(entered)
	}()

	select {
	case <-entered:
	case <-sig:
		fmt.Println()
		os.Exit(0)
	}
}
