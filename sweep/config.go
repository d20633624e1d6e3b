// sweep/config.go
// Package: sweep
package sweep

import (
	"fmt"
	"strings"
)

// CachePair is one (key-cache-type, value-cache-type) combination, the
// top-level sweep dimension. llama-bench does not accept multi-value
// syntax for -ctk/-ctv, so each pair gets its own process run.
type CachePair struct {
	K string `json:"k"`
	V string `json:"v"`
}

// Label returns the display form of the pair, e.g. "q8_0/q8_0".
func (p CachePair) Label() string {
	return p.K + "/" + p.V
}

// Config declares the parameter space for one sweep invocation. The
// multi-value fields are comma-joined lists passed verbatim to
// llama-bench, which performs the inner iteration itself.
type Config struct {
	// KVCacheTypes lists the cache quantization pairs to run, one
	// subprocess per pair.
	KVCacheTypes []CachePair `json:"kv_cache_types"`

	// Parameters that support llama-bench multi-value syntax.
	BatchSizes    string `json:"batch_sizes"`
	UBatchSizes   string `json:"ubatch_sizes"`
	Depths        string `json:"depths"`
	PromptLengths string `json:"prompt_lengths"`
	GenLengths    string `json:"gen_lengths"`

	// OutputDir receives one raw-data JSON file per cache pair.
	OutputDir string `json:"output_dir"`

	// BenchBin is the benchmark executable to invoke.
	BenchBin string `json:"bench_bin"`
}

// DefaultConfig returns the stock sweep: a q8_0 KV cache across the
// full batch/depth/length grid.
func DefaultConfig() Config {
	return Config{
		KVCacheTypes: []CachePair{
			{K: "q8_0", V: "q8_0"},
		},
		BatchSizes:    "8192",
		UBatchSizes:   "2048",
		Depths:        "0,512,1024,2048,4096,8192",
		PromptLengths: "128,256,512,1024,2048,4096,8192",
		GenLengths:    "128,256,512,1024,2048,4096,8192",
		OutputDir:     "test-results",
		BenchBin:      "llama-bench",
	}
}

// CountCombinations estimates the number of benchmark runs per cache
// pair: the product of the cardinalities of the five multi-value
// fields. It counts comma-separated tokens, it does not validate them.
// Returns 1 when the product is 0 so callers never divide or iterate
// over an empty sweep.
func (c Config) CountCombinations() int {
	total := countOpts(c.BatchSizes) *
		countOpts(c.UBatchSizes) *
		countOpts(c.Depths) *
		countOpts(c.PromptLengths) *
		countOpts(c.GenLengths)
	if total <= 0 {
		return 1
	}
	return total
}

// TotalRuns is CountCombinations scaled by the number of cache pairs.
func (c Config) TotalRuns() int {
	return c.CountCombinations() * len(c.KVCacheTypes)
}

// ParseCachePairs parses a comma-separated list of k/v cache type
// pairs, e.g. "q8_0/q8_0,f16/f16". A bare type applies to both the key
// and value cache.
func ParseCachePairs(s string) ([]CachePair, error) {
	var pairs []CachePair
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		k, v, found := strings.Cut(tok, "/")
		if !found {
			v = k
		}
		if k == "" || v == "" {
			return nil, fmt.Errorf("invalid cache type pair: %q", tok)
		}
		pairs = append(pairs, CachePair{K: k, V: v})
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no cache type pairs in %q", s)
	}
	return pairs, nil
}

func countOpts(s string) int {
	if s == "" {
		return 0
	}
	return len(strings.Split(s, ","))
}
