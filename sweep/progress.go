// sweep/progress.go
// Package: sweep
package sweep

const historyCap = 10

// Row is one display entry built from a Record plus its derived
// speeds. Rows are display-only and never persisted.
type Row struct {
	KV       string
	Batch    int
	NPrompt  int
	NGen     int
	NDepth   int
	EncSpeed float64
	GenSpeed float64
}

// Snapshot is an immutable copy of tracker state handed to renderers.
type Snapshot struct {
	Completed int
	Total     int
	History   []Row
	Errors    []string
}

// Percent returns completion as a 0..1 fraction.
func (s Snapshot) Percent() float64 {
	if s.Total <= 0 {
		return 0
	}
	return float64(s.Completed) / float64(s.Total)
}

// Tracker accumulates sweep progress: a monotonically increasing
// completed count bounded by the expected total, the most recent
// results for display, and run-level error notices. It is owned by a
// single Runner for the lifetime of one sweep; renderers only ever see
// Snapshot copies.
type Tracker struct {
	total     int
	completed int
	history   []Row
	errors    []string
}

// NewTracker returns a tracker expecting total runs across all cache
// pairs.
func NewTracker(total int) *Tracker {
	return &Tracker{total: total}
}

// RecordResult appends a display row for one parsed record and
// advances the completed count. History is bounded: past capacity the
// oldest entry is evicted.
func (t *Tracker) RecordResult(rec Record, kvLabel string) {
	enc, gen := DeriveSpeeds(rec)
	t.history = append(t.history, Row{
		KV:       kvLabel,
		Batch:    rec.NBatch,
		NPrompt:  rec.PromptTokens(),
		NGen:     rec.NGen,
		NDepth:   rec.NDepth,
		EncSpeed: enc,
		GenSpeed: gen,
	})
	if len(t.history) > historyCap {
		t.history = t.history[len(t.history)-historyCap:]
	}
	if t.completed < t.total {
		t.completed++
	}
}

// LogError records a run-level error notice. Errors are surfaced by
// the renderer; they never abort the sweep.
func (t *Tracker) LogError(msg string) {
	t.errors = append(t.errors, msg)
}

// Snapshot returns a copy of the current state safe to hand across
// goroutine boundaries.
func (t *Tracker) Snapshot() Snapshot {
	return Snapshot{
		Completed: t.completed,
		Total:     t.total,
		History:   append([]Row(nil), t.history...),
		Errors:    append([]string(nil), t.errors...),
	}
}
