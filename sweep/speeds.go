// sweep/speeds.go
// Package: sweep
package sweep

// DeriveSpeeds computes (encode, generate) throughput in tokens/sec
// for a single record. llama-bench reports a combined avg_ts which
// means prompt-processing speed on prompt-only runs (n_gen == 0) and
// generation speed otherwise; only when avg_ts is absent do we fall
// back to deriving rates from the raw phase timings.
func DeriveSpeeds(rec Record) (encSpeed, genSpeed float64) {
	if rec.NGen == 0 {
		return rec.AvgTS, 0.0
	}
	if rec.AvgTS > 0 {
		return 0.0, rec.AvgTS
	}

	if rec.TPPMillis > 0 {
		encSpeed = float64(rec.PromptTokens()) / (rec.TPPMillis / 1000.0)
	}
	if rec.TTGMillis > 0 {
		genSpeed = float64(rec.NGen) / (rec.TTGMillis / 1000.0)
	}
	return encSpeed, genSpeed
}
