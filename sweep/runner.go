// sweep/runner.go
// Package: sweep
package sweep

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Runner drives one sweep invocation: for each cache pair it launches
// the benchmark subprocess, streams and parses its stdout, feeds
// records to the Tracker, and persists whatever was collected. Pairs
// run strictly one at a time; the benchmark needs the hardware to
// itself for the measurements to mean anything.
type Runner struct {
	ModelPath string
	Config    Config

	// OnUpdate, when set, receives a fresh Snapshot after every parsed
	// record and every error notice. It is called from the sweep
	// goroutine.
	OnUpdate func(Snapshot)

	tracker *Tracker
}

// NewRunner validates the model path and prepares a runner with a
// tracker sized to the full sweep.
func NewRunner(modelPath string, cfg Config) (*Runner, error) {
	if modelPath == "" {
		return nil, errors.New("model path is required")
	}
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}
	return &Runner{
		ModelPath: modelPath,
		Config:    cfg,
		tracker:   NewTracker(cfg.TotalRuns()),
	}, nil
}

// Tracker exposes the runner's progress state for renderers.
func (r *Runner) Tracker() *Tracker {
	return r.tracker
}

// RunAll executes every configured cache pair in order. Per-pair
// failures are logged through the tracker and do not stop the sweep;
// the only early exit is context cancellation, whose error is
// returned.
func (r *Runner) RunAll(ctx context.Context) error {
	if err := os.MkdirAll(r.Config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", r.Config.OutputDir, err)
	}

	for _, pair := range r.Config.KVCacheTypes {
		if ctx.Err() != nil {
			break
		}
		r.runPair(ctx, pair)
	}
	return ctx.Err()
}

// BuildArgs assembles the llama-bench invocation for one cache pair.
// Flash attention is always on and every run is repeated 3 times; the
// multi-value lists are passed through verbatim so the tool performs
// the inner parameter iteration itself.
func (r *Runner) BuildArgs(pair CachePair) []string {
	return []string{
		"-fa", "1",
		"-r", "3",
		"-m", r.ModelPath,
		"-ctk", pair.K,
		"-ctv", pair.V,
		"-b", r.Config.BatchSizes,
		"-ub", r.Config.UBatchSizes,
		"-d", r.Config.Depths,
		"-p", r.Config.PromptLengths,
		"-n", r.Config.GenLengths,
		"-o", "jsonl",
	}
}

// OutputFilename is the deterministic per-pair result path: the same
// pair run twice on the same day overwrites its earlier file.
func (r *Runner) OutputFilename(pair CachePair) string {
	date := time.Now().Format("20060102")
	name := fmt.Sprintf("raw-data-%s-%s-%s.json", pair.K, pair.V, date)
	return filepath.Join(r.Config.OutputDir, name)
}

// runPair runs the benchmark once for a single cache pair. Whatever
// records were parsed before a failure or interrupt are still saved.
func (r *Runner) runPair(ctx context.Context, pair CachePair) {
	var collected []Record
	defer func() {
		r.saveResults(collected, r.OutputFilename(pair))
	}()

	cmd := exec.CommandContext(ctx, r.Config.BenchBin, r.BuildArgs(pair)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Cancel = func() error {
		// Ask the benchmark to wind down rather than killing it.
		return cmd.Process.Signal(os.Interrupt)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.logError(fmt.Sprintf("%s: %v", pair.Label(), err))
		return
	}
	if err := cmd.Start(); err != nil {
		r.logError(fmt.Sprintf("%s: %v", pair.Label(), err))
		return
	}

	// Read stdout line by line until EOF. Lines that don't parse are
	// log noise and dropped without comment.
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		rec, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		collected = append(collected, rec)
		r.tracker.RecordResult(rec, pair.Label())
		r.notify()
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		// Interrupted: keep the partials, skip the failure notice.
		return
	}
	if waitErr != nil {
		rc := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			rc = exitErr.ExitCode()
		}
		msg := fmt.Sprintf("%s: process failed (rc=%d)", pair.Label(), rc)
		if errText := strings.TrimSpace(stderr.String()); errText != "" {
			msg += ": " + errText
		}
		r.logError(msg)
	} else if len(collected) == 0 {
		r.logError("no results for " + pair.Label())
	}
}

// saveResults writes the collected records as a pretty-printed JSON
// array. A pair that produced nothing gets no file. Write failures are
// logged and the sweep moves on.
func (r *Runner) saveResults(records []Record, path string) {
	if len(records) == 0 {
		return
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		r.logError(fmt.Sprintf("failed to encode results for %s: %v", path, err))
		return
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		r.logError(fmt.Sprintf("failed to save results to %s: %v", path, err))
	}
}

func (r *Runner) logError(msg string) {
	r.tracker.LogError(msg)
	r.notify()
}

func (r *Runner) notify() {
	if r.OnUpdate != nil {
		r.OnUpdate(r.tracker.Snapshot())
	}
}
