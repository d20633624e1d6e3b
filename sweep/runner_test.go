// sweep/runner_test.go
package sweep

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeFakeBench writes an executable shell script that stands in for
// llama-bench and returns its path.
func writeFakeBench(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake benchmark scripts require a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "fake-bench")
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFakeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.gguf")
	if err := os.WriteFile(path, []byte("gguf"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(benchBin, outputDir string) Config {
	cfg := DefaultConfig()
	cfg.BenchBin = benchBin
	cfg.OutputDir = outputDir
	return cfg
}

func TestNewRunnerMissingModel(t *testing.T) {
	_, err := NewRunner(filepath.Join(t.TempDir(), "nope.gguf"), DefaultConfig())
	if err == nil {
		t.Fatal("NewRunner() with a missing model file should have failed")
	}

	_, err = NewRunner("", DefaultConfig())
	if err == nil {
		t.Fatal("NewRunner() with an empty model path should have failed")
	}
}

func TestBuildArgs(t *testing.T) {
	cfg := DefaultConfig()
	model := writeFakeModel(t)
	r, err := NewRunner(model, cfg)
	if err != nil {
		t.Fatal(err)
	}

	args := r.BuildArgs(CachePair{K: "q8_0", V: "q4_0"})
	want := []string{
		"-fa", "1",
		"-r", "3",
		"-m", model,
		"-ctk", "q8_0",
		"-ctv", "q4_0",
		"-b", "8192",
		"-ub", "2048",
		"-d", "0,512,1024,2048,4096,8192",
		"-p", "128,256,512,1024,2048,4096,8192",
		"-n", "128,256,512,1024,2048,4096,8192",
		"-o", "jsonl",
	}
	if len(args) != len(want) {
		t.Fatalf("BuildArgs() returned %d args, want %d: %v", len(args), len(want), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("args[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestOutputFilename(t *testing.T) {
	out := t.TempDir()
	r, err := NewRunner(writeFakeModel(t), testConfig("llama-bench", out))
	if err != nil {
		t.Fatal(err)
	}

	date := time.Now().Format("20060102")
	got := r.OutputFilename(CachePair{K: "q8_0", V: "q8_0"})
	want := filepath.Join(out, "raw-data-q8_0-q8_0-"+date+".json")
	if got != want {
		t.Errorf("OutputFilename() = %q, want %q", got, want)
	}
}

func TestRunAllCollectsAndPersists(t *testing.T) {
	bench := writeFakeBench(t, `
echo 'build: 4284 (deadbeef) with gcc'
echo '{"n_prompt": 128, "n_gen": 0, "n_depth": 0, "n_batch": 8192, "avg_ts": 55.2}'
echo 'not json at all'
echo '{"n_prompt": 0, "n_gen": 128, "n_depth": 512, "n_batch": 8192, "avg_ts": 30.0}'
echo '{"n_prompt": 512, "n_gen": 64, "n_depth": 0, "n_batch": 8192, "t_pp_ms": 1000, "t_tg_ms": 2000}'
exit 0
`)
	out := t.TempDir()
	r, err := NewRunner(writeFakeModel(t), testConfig(bench, out))
	if err != nil {
		t.Fatal(err)
	}

	var updates int
	r.OnUpdate = func(Snapshot) { updates++ }

	if err := r.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll() failed: %v", err)
	}

	snap := r.Tracker().Snapshot()
	if snap.Completed != 3 {
		t.Errorf("Completed = %d, want 3", snap.Completed)
	}
	if len(snap.Errors) != 0 {
		t.Errorf("unexpected errors: %v", snap.Errors)
	}
	if updates != 3 {
		t.Errorf("OnUpdate fired %d times, want 3", updates)
	}

	b, err := os.ReadFile(r.OutputFilename(CachePair{K: "q8_0", V: "q8_0"}))
	if err != nil {
		t.Fatalf("output file not written: %v", err)
	}
	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		t.Fatalf("output file is not a JSON array: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("persisted %d records, want 3", len(records))
	}
	if records[0].PromptTokens() != 128 || records[0].AvgTS != 55.2 {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[2].TTGMillis != 2000 {
		t.Errorf("records[2].TTGMillis = %v, want 2000", records[2].TTGMillis)
	}
}

func TestRunAllProcessFailure(t *testing.T) {
	bench := writeFakeBench(t, `
echo 'loading model...' >&2
echo 'fatal: out of memory' >&2
exit 2
`)
	out := t.TempDir()
	cfg := testConfig(bench, out)
	cfg.KVCacheTypes = []CachePair{
		{K: "q8_0", V: "q8_0"},
		{K: "f16", V: "f16"},
	}
	r, err := NewRunner(writeFakeModel(t), cfg)
	if err != nil {
		t.Fatal(err)
	}

	if err := r.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll() should not fail on a per-pair error: %v", err)
	}

	snap := r.Tracker().Snapshot()
	if len(snap.Errors) != 2 {
		t.Fatalf("expected one error per failed pair, got %v", snap.Errors)
	}
	if !strings.Contains(snap.Errors[0], "rc=2") {
		t.Errorf("error should carry the exit code: %q", snap.Errors[0])
	}
	if !strings.Contains(snap.Errors[0], "out of memory") {
		t.Errorf("error should carry stderr text: %q", snap.Errors[0])
	}
	if !strings.Contains(snap.Errors[1], "f16/f16") {
		t.Errorf("sweep should have proceeded to the second pair: %q", snap.Errors[1])
	}

	// No records collected, no file written.
	if _, err := os.Stat(r.OutputFilename(CachePair{K: "q8_0", V: "q8_0"})); !os.IsNotExist(err) {
		t.Error("output file should not exist for a run with zero records")
	}
}

func TestRunAllNoResults(t *testing.T) {
	bench := writeFakeBench(t, "exit 0\n")
	r, err := NewRunner(writeFakeModel(t), testConfig(bench, t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}

	if err := r.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll() failed: %v", err)
	}
	snap := r.Tracker().Snapshot()
	if len(snap.Errors) != 1 || !strings.Contains(snap.Errors[0], "no results") {
		t.Errorf("expected a 'no results' notice, got %v", snap.Errors)
	}
}

func TestRunAllPersistsPartialsOnFailure(t *testing.T) {
	bench := writeFakeBench(t, `
echo '{"n_prompt": 128, "n_gen": 0, "avg_ts": 55.2}'
echo '{"n_prompt": 256, "n_gen": 0, "avg_ts": 48.1}'
exit 1
`)
	r, err := NewRunner(writeFakeModel(t), testConfig(bench, t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}

	if err := r.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll() failed: %v", err)
	}

	snap := r.Tracker().Snapshot()
	if len(snap.Errors) != 1 || !strings.Contains(snap.Errors[0], "rc=1") {
		t.Fatalf("expected a process failure notice, got %v", snap.Errors)
	}

	// The two records produced before the crash must survive.
	b, err := os.ReadFile(r.OutputFilename(CachePair{K: "q8_0", V: "q8_0"}))
	if err != nil {
		t.Fatalf("partial results were not persisted: %v", err)
	}
	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("persisted %d records, want 2", len(records))
	}
}

func TestRunAllCanceledContext(t *testing.T) {
	bench := writeFakeBench(t, "exit 0\n")
	r, err := NewRunner(writeFakeModel(t), testConfig(bench, t.TempDir()))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.RunAll(ctx); err != context.Canceled {
		t.Errorf("RunAll() on a canceled context = %v, want context.Canceled", err)
	}
	if len(r.Tracker().Snapshot().Errors) != 0 {
		t.Errorf("cancellation should not log run errors: %v", r.Tracker().Snapshot().Errors)
	}
}
