package tui

import (
	"errors"
	"testing"
	"strings"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buyloop/internal/runner"
	"buyloop/internal/stats"
)

type capture struct{ msgs []tea.Msg }

func (c *capture) Send(msg tea.Msg) { c.msgs = append(c.msgs, msg) }

func feed(m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func TestReporterForwardsEvents(t *testing.T) {
	sink := &capture{}
	r := NewReporter(sink)

	r.Waiting(time.Now(), time.Second)
	r.AttemptStarted(1, 5)
	r.AttemptFinished(1, runner.Outcome{Kind: runner.OutcomeNoMatch})
	r.Sleeping(time.Second)
	r.Finished(runner.Result{Status: runner.StatusExhausted})

	require.Len(t, sink.msgs, 5)
	assert.IsType(t, WaitingMsg{}, sink.msgs[0])
	assert.IsType(t, AttemptMsg{}, sink.msgs[1])
	assert.IsType(t, OutcomeMsg{}, sink.msgs[2])
	assert.IsType(t, SleepingMsg{}, sink.msgs[3])
	assert.IsType(t, DoneMsg{}, sink.msgs[4])
}

func TestModelCountsOutcomes(t *testing.T) {
	cfg := runner.DefaultConfig()
	cfg.MaxAttempts = 4
	m := NewModel(cfg, nil, nil)

	m, _ = feed(m,
		AttemptMsg{Attempt: 1, Max: 4},
		OutcomeMsg{Attempt: 1, Outcome: runner.Outcome{Kind: runner.OutcomeNoMatch, Decoded: "Sold out", Latency: 12 * time.Millisecond}},
		AttemptMsg{Attempt: 2, Max: 4},
		OutcomeMsg{Attempt: 2, Outcome: runner.Outcome{Kind: runner.OutcomeDecodeError, Raw: "<html>", Err: runner.ErrDecode}},
		AttemptMsg{Attempt: 3, Max: 4},
		OutcomeMsg{Attempt: 3, Outcome: runner.Outcome{Kind: runner.OutcomeTransportError, Err: errors.New("reset")}},
		AttemptMsg{Attempt: 4, Max: 4},
		OutcomeMsg{Attempt: 4, Outcome: runner.Outcome{Kind: runner.OutcomeMatched, Matched: true, Decoded: "Bought"}},
	)

	assert.Equal(t, 1, m.success)
	assert.Equal(t, 1, m.fail)
	assert.Equal(t, 1, m.decodeErrs)
	assert.Equal(t, 4, m.attempt)
	assert.Contains(t, m.View(), "4/4")
	assert.Contains(t, m.View(), "Bought")
}

func TestModelQuitsWhenDone(t *testing.T) {
	m := NewModel(runner.DefaultConfig(), nil, nil)
	m, cmd := feed(m, DoneMsg{Result: runner.Result{Status: runner.StatusSuccess}})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Contains(t, m.View(), "Done: success")
}

func TestModelCtrlCCancelsRun(t *testing.T) {
	cancelled := false
	m := NewModel(runner.DefaultConfig(), func() { cancelled = true }, nil)
	_, cmd := feed(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, cancelled)
	assert.Nil(t, cmd, "program waits for the loop to report its result")
}

func TestModelInitRunsStart(t *testing.T) {
	started := 0
	start := func() tea.Msg {
		started++
		return nil
	}
	m := NewModel(runner.DefaultConfig(), nil, start)

	msg := m.Init()()
	batch, ok := msg.(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 2)
	for _, cmd := range batch {
		cmd()
	}
	assert.Equal(t, 1, started)
}

func TestModelDoneViewShowsSummary(t *testing.T) {
	m := NewModel(runner.DefaultConfig(), nil, nil)
	m, _ = feed(m, DoneMsg{Result: runner.Result{
		Status: runner.StatusExhausted,
		Summary: stats.Summary{
			ElapsedSeconds: 2,
			RequestsPerSec: 2.5,
			Requests:       5,
			Fail:           5,
			MeanMs:         12.5,
			P99Ms:          30,
		},
	}})

	view := m.View()
	assert.Contains(t, view, "Duration 2s")
	assert.Contains(t, view, "2.50 req/s")
	assert.Contains(t, view, "avg 12.5 ms")
	assert.Contains(t, view, "p99 30.0 ms")
}

func TestModelUsesReportedAttemptBudget(t *testing.T) {
	cfg := runner.DefaultConfig()
	cfg.MaxAttempts = 100
	m := NewModel(cfg, nil, nil)
	assert.Contains(t, m.View(), "0/100")

	m, _ = feed(m, AttemptMsg{Attempt: 1, Max: 4})
	assert.Contains(t, m.View(), "1/4")
}

func TestModelShowsTotalGateWait(t *testing.T) {
	m := NewModel(runner.DefaultConfig(), nil, nil)
	m, _ = feed(m, WaitingMsg{StartAt: time.Now().Add(90 * time.Second), Wait: 90 * time.Second})
	assert.Contains(t, m.View(), "of 1m30s")
}

func TestModelResizesProgressBar(t *testing.T) {
	m := NewModel(runner.DefaultConfig(), nil, nil)

	m, _ = feed(m, tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.Equal(t, 36, m.progress.Width)

	m, _ = feed(m, tea.WindowSizeMsg{Width: 10, Height: 20})
	assert.Equal(t, 10, m.progress.Width)

	m, _ = feed(m, tea.WindowSizeMsg{Width: 300, Height: 20})
	assert.Equal(t, 60, m.progress.Width)
}

func TestModelPreviewKeepsRunesWhole(t *testing.T) {
	m := NewModel(runner.DefaultConfig(), nil, nil)
	body := strings.Repeat("é", 250) + strings.Repeat("ü", 100)
	m, _ = feed(m,
		AttemptMsg{Attempt: 1, Max: 5},
		OutcomeMsg{Attempt: 1, Outcome: runner.Outcome{Kind: runner.OutcomeNoMatch, Decoded: body}},
	)

	view := m.View()
	assert.True(t, utf8.ValidString(view))
	assert.NotContains(t, view, "ü")
}
