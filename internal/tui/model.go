package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"buyloop/internal/cli"
	"buyloop/internal/runner"
	"buyloop/internal/stats"
	"buyloop/internal/tui/components"
	"buyloop/internal/tui/styles"
)

// Messages pushed by Reporter.
type (
	WaitingMsg struct {
		StartAt time.Time
		Wait    time.Duration
	}
	AttemptMsg struct {
		Attempt int
		Max     int
	}
	OutcomeMsg struct {
		Attempt int
		Outcome runner.Outcome
	}
	SleepingMsg struct{ Delay time.Duration }
	DoneMsg     struct{ Result runner.Result }
)

type phase int

const (
	phaseIdle phase = iota
	phaseGate
	phaseRequesting
	phaseSleeping
	phaseDone
)

type Model struct {
	Cfg    runner.Config
	cancel context.CancelFunc
	start  tea.Cmd

	spinner  spinner.Model
	progress progress.Model
	latency  components.Sparkline

	phase   phase
	startAt time.Time
	wait    time.Duration
	attempt int
	total   int
	delay   time.Duration

	success, fail, decodeErrs int
	last                      runner.Outcome
	result                    *runner.Result
}

// NewModel builds the dashboard. start runs once the program is up and is
// where the caller releases the attempt loop; cancel stops the run when the
// user quits.
func NewModel(cfg runner.Config, cancel context.CancelFunc, start tea.Cmd) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Start

	return Model{
		Cfg:      cfg,
		cancel:   cancel,
		start:    start,
		total:    cfg.MaxAttempts,
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		latency:  components.NewSparkline("Latency (ms)", 40, styles.Warn),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			if m.phase == phaseDone {
				return m, tea.Quit
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.progress.Width = min(max(msg.Width-24, 10), 60)
		return m, nil

	case WaitingMsg:
		m.phase = phaseGate
		m.startAt = msg.StartAt
		m.wait = msg.Wait
		return m, nil

	case AttemptMsg:
		m.phase = phaseRequesting
		m.attempt = msg.Attempt
		m.total = msg.Max
		return m, nil

	case OutcomeMsg:
		m.last = msg.Outcome
		switch {
		case msg.Outcome.Matched:
			m.success++
		case msg.Outcome.Kind == runner.OutcomeDecodeError:
			m.decodeErrs++
		default:
			m.fail++
		}
		if msg.Outcome.Kind != runner.OutcomeTransportError {
			m.latency.Push(float64(msg.Outcome.Latency.Microseconds()) / 1000.0)
		}
		return m, nil

	case SleepingMsg:
		m.phase = phaseSleeping
		m.delay = msg.Delay
		return m, nil

	case DoneMsg:
		m.phase = phaseDone
		res := msg.Result
		m.result = &res
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) status() string {
	switch m.phase {
	case phaseGate:
		left := time.Until(m.startAt).Round(time.Second)
		return styles.Warn.Render(fmt.Sprintf("Waiting for start at %s (%s left of %s)",
			m.startAt.Format("15:04:05"), left, m.wait.Round(time.Second)))
	case phaseRequesting:
		return styles.Info.Render(fmt.Sprintf("Request #%d in flight", m.attempt))
	case phaseSleeping:
		return styles.Subtle.Render(fmt.Sprintf("Sleeping %s", m.delay.Round(time.Millisecond)))
	case phaseDone:
		if m.result != nil && m.result.ExitCode() == 0 {
			return styles.Success.Render("Done: " + m.result.Status.String())
		}
		if m.result != nil {
			return styles.Fatal.Render("Done: " + m.result.Status.String())
		}
	}
	return styles.Subtle.Render("Starting...")
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.Title.Render("buyloop"))
	b.WriteString("\n\n")
	b.WriteString(m.spinner.View() + " " + m.status() + "\n\n")

	pct := 0.0
	if m.total > 0 {
		pct = float64(m.attempt) / float64(m.total)
	}
	b.WriteString(m.progress.ViewAs(pct))
	b.WriteString(fmt.Sprintf("  %d/%d\n\n", m.attempt, m.total))

	counters := lipgloss.JoinHorizontal(lipgloss.Top,
		styles.Label.Render("Bought")+styles.Value.Render(fmt.Sprint(m.success)), "   ",
		styles.Label.Render("Failed")+styles.Error.Render(fmt.Sprint(m.fail)), "   ",
		styles.Label.Render("Decode errors")+styles.Warn.Render(fmt.Sprint(m.decodeErrs)),
	)
	b.WriteString(counters + "\n\n")
	b.WriteString(m.latency.View() + "\n\n")

	if m.result != nil {
		b.WriteString(summaryLine(m.result.Summary) + "\n\n")
	}

	if m.attempt > 0 {
		last := m.last.Decoded
		if m.last.Kind == runner.OutcomeDecodeError || m.last.Kind == runner.OutcomeTransportError {
			last = m.last.Raw
			if m.last.Err != nil {
				last = m.last.Err.Error()
			}
		}
		b.WriteString(styles.Subtle.Render("Last response ("+m.last.Kind.String()+")") + "\n")
		b.WriteString(styles.Dim.Render(cli.Truncate(cli.Preview(last), 200)) + "\n\n")
	}

	b.WriteString(styles.RenderKey("ctrl+c", "stop"))
	return styles.Panel.Render(b.String()) + "\n"
}

func summaryLine(s stats.Summary) string {
	elapsed := time.Duration(s.ElapsedSeconds * float64(time.Second)).Round(time.Millisecond)
	return styles.Text.Render(fmt.Sprintf("Duration %s | %d requests | %.2f req/s | avg %.1f ms | p99 %.1f ms",
		elapsed, s.Requests, s.RequestsPerSec, s.MeanMs, s.P99Ms))
}
