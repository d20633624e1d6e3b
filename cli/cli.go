// cli/cli.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/gollamabench/sweep"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	headerStyle = lipgloss.NewStyle().Bold(true).Faint(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	ppStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	tgStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	doneStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
)

// snapshotMsg carries fresh tracker state from the sweep goroutine.
type snapshotMsg sweep.Snapshot

// sweepDoneMsg is sent when RunAll returns.
type sweepDoneMsg struct{ err error }

// tickMsg drives the elapsed-time readout at a fixed rate independent
// of how fast results arrive.
type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// sweepModel is the Bubble Tea model for the live sweep display: a
// progress bar over the whole sweep plus a table of the most recent
// results. All sweep state arrives as immutable snapshots; the model
// never touches the tracker directly.
type sweepModel struct {
	// Cancels the sweep context on ctrl+c.
	cancel context.CancelFunc
	// Latest tracker state received from the sweep goroutine.
	snapshot sweep.Snapshot
	// Progress bar over total expected runs.
	bar progress.Model
	// Spinner shown while the subprocess is running.
	spinner spinner.Model
	// Timestamp when the sweep started.
	startTime time.Time
	// Current terminal width.
	width int
	// Set once the sweep goroutine has returned.
	done bool
	// Set when the user requested cancellation.
	interrupted bool
	// Error returned by the sweep, if any.
	runErr error
}

func newSweepModel(cancel context.CancelFunc, total int) *sweepModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	bar := progress.New(
		progress.WithSolidFill("6"),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &sweepModel{
		cancel:    cancel,
		snapshot:  sweep.Snapshot{Total: total},
		bar:       bar,
		spinner:   s,
		startTime: time.Now(),
	}
}

// Init starts the spinner and the elapsed-time ticker.
func (m *sweepModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// Update handles key presses, snapshot deliveries, and completion.
func (m *sweepModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			// Cancel the sweep and wait for sweepDoneMsg so the child
			// process is reaped before the display exits.
			m.interrupted = true
			m.cancel()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		w := msg.Width - 20
		if w > 60 {
			w = 60
		}
		if w > 0 {
			m.bar.Width = w
		}
		return m, nil

	case snapshotMsg:
		m.snapshot = sweep.Snapshot(msg)
		return m, nil

	case sweepDoneMsg:
		m.done = true
		if errors.Is(msg.err, context.Canceled) {
			m.interrupted = true
		} else if msg.err != nil {
			m.runErr = msg.err
		}
		return m, tea.Quit

	case tickMsg:
		if m.done {
			return m, nil
		}
		return m, tickCmd()
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

// View renders the progress bar, the recent-results table, and any
// run-level error notices.
func (m *sweepModel) View() string {
	var b strings.Builder

	elapsed := time.Since(m.startTime).Round(time.Second)
	pct := m.snapshot.Percent() * 100

	b.WriteString("\n")
	if m.done && !m.interrupted {
		b.WriteString("  " + doneStyle.Render("Done.") + "\n")
	} else {
		b.WriteString(fmt.Sprintf("  %s %s\n", m.spinner.View(), titleStyle.Render("Running Benchmarks...")))
	}
	b.WriteString(fmt.Sprintf("  %s %3.0f%% %s\n\n",
		m.bar.ViewAs(m.snapshot.Percent()),
		pct,
		dimStyle.Render(elapsed.String()),
	))

	b.WriteString(renderHistory(m.snapshot))

	for _, e := range m.snapshot.Errors {
		b.WriteString("  " + errorStyle.Render("Error: "+e) + "\n")
	}

	return b.String()
}

// renderHistory builds the five-column table of the most recent
// results. Prompt-processing speeds are green, generation speeds blue,
// matching which phase the run measured.
func renderHistory(snap sweep.Snapshot) string {
	var b strings.Builder

	b.WriteString("  " + headerStyle.Render(fmt.Sprintf(
		"%-12s %8s %14s %8s  %-18s", "KV Config", "Batch", "Params (P/G)", "Depth", "Speed")) + "\n")

	for _, row := range snap.History {
		b.WriteString("  " + fmt.Sprintf("%-12s %8d %14s %8d  %-18s",
			row.KV,
			row.Batch,
			fmt.Sprintf("%d / %d", row.NPrompt, row.NGen),
			row.NDepth,
			speedCell(row),
		) + "\n")
	}
	b.WriteString("\n")
	return b.String()
}

func speedCell(row sweep.Row) string {
	switch {
	case row.EncSpeed > 0:
		return ppStyle.Render(fmt.Sprintf("PP: %.1f t/s", row.EncSpeed))
	case row.GenSpeed > 0:
		return tgStyle.Render(fmt.Sprintf("TG: %.1f t/s", row.GenSpeed))
	default:
		return "-"
	}
}

// StartSweep runs the sweep under the live display and blocks until it
// finishes or the user interrupts it. It returns true when the sweep
// was interrupted, plus any sweep-level error.
func StartSweep(runner *sweep.Runner, debug bool) (bool, error) {
	if debug {
		f, err := tea.LogToFile("debug.log", "debug")
		if err != nil {
			log.Fatalf("could not open log file: %v", err)
		}
		defer f.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := newSweepModel(cancel, runner.Tracker().Snapshot().Total)
	p := tea.NewProgram(m)

	runner.OnUpdate = func(s sweep.Snapshot) {
		p.Send(snapshotMsg(s))
	}
	go func() {
		p.Send(sweepDoneMsg{err: runner.RunAll(ctx)})
	}()

	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("error running program: %w", err)
	}
	fm := final.(*sweepModel)
	return fm.interrupted, fm.runErr
}
