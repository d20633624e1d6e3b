// sweep/record.go
// Package: sweep
package sweep

import (
	"encoding/json"
	"strings"
)

// Record is one parsed line of llama-bench jsonl output: a single
// completed benchmark run. NPrompt is a pointer because its presence is
// the contract that distinguishes a result line from other JSON the
// tool may emit on stdout.
type Record struct {
	NPrompt *int `json:"n_prompt"`
	NGen    int  `json:"n_gen"`
	NDepth  int  `json:"n_depth"`
	NBatch  int  `json:"n_batch"`

	// AvgTS is the tool's pre-computed average tokens/sec, when it
	// reports one.
	AvgTS float64 `json:"avg_ts"`

	// Raw phase timings, used as a fallback when AvgTS is absent.
	TPPMillis float64 `json:"t_pp_ms"`
	TTGMillis float64 `json:"t_tg_ms"`
}

// PromptTokens returns the prompt token count, 0 if the field was null.
func (r Record) PromptTokens() int {
	if r.NPrompt == nil {
		return 0
	}
	return *r.NPrompt
}

// ParseLine converts one line of subprocess stdout into a Record.
// The boolean is false for empty lines, non-JSON noise, JSON that is
// not an object, and objects missing "n_prompt" — all of which are
// expected interleavings on llama-bench stdout, not errors.
func ParseLine(line string) (Record, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		return Record{}, false
	}
	if rec.NPrompt == nil {
		return Record{}, false
	}
	return rec, true
}
