// cli/plain.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/mwiater/gollamabench/sweep"
)

// RunPlain executes the sweep without the live display, printing one
// line per completed run. Used when stdout is not a terminal or when
// the user asked for it. Returns true when the sweep was interrupted.
func RunPlain(runner *sweep.Runner) (bool, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var seenRows, seenErrs int
	runner.OnUpdate = func(s sweep.Snapshot) {
		// Updates arrive once per parsed record, so only the newest
		// history row is unseen.
		if s.Completed > seenRows && len(s.History) > 0 {
			seenRows = s.Completed
			row := s.History[len(s.History)-1]
			fmt.Printf("[%d/%d] %s batch=%d p/g=%d/%d depth=%d %s\n",
				s.Completed, s.Total, row.KV, row.Batch,
				row.NPrompt, row.NGen, row.NDepth, plainSpeed(row))
		}
		for ; seenErrs < len(s.Errors); seenErrs++ {
			fmt.Fprintf(os.Stderr, "Error: %s\n", s.Errors[seenErrs])
		}
	}

	err := runner.RunAll(ctx)
	if errors.Is(err, context.Canceled) {
		return true, nil
	}
	return false, err
}

func plainSpeed(row sweep.Row) string {
	switch {
	case row.EncSpeed > 0:
		return fmt.Sprintf("pp=%.1f t/s", row.EncSpeed)
	case row.GenSpeed > 0:
		return fmt.Sprintf("tg=%.1f t/s", row.GenSpeed)
	default:
		return "-"
	}
}
