package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"buyloop/internal/runner"
)

// Sink is the part of *tea.Program the reporter needs.
type Sink interface {
	Send(msg tea.Msg)
}

// Reporter forwards loop events to a running bubbletea program.
type Reporter struct {
	sink Sink
}

func NewReporter(sink Sink) *Reporter {
	return &Reporter{sink: sink}
}

func (r *Reporter) Waiting(startAt time.Time, wait time.Duration) {
	r.sink.Send(WaitingMsg{StartAt: startAt, Wait: wait})
}

func (r *Reporter) AttemptStarted(attempt, maxAttempts int) {
	r.sink.Send(AttemptMsg{Attempt: attempt, Max: maxAttempts})
}

func (r *Reporter) AttemptFinished(attempt int, o runner.Outcome) {
	r.sink.Send(OutcomeMsg{Attempt: attempt, Outcome: o})
}

func (r *Reporter) Sleeping(d time.Duration) {
	r.sink.Send(SleepingMsg{Delay: d})
}

func (r *Reporter) Finished(res runner.Result) {
	r.sink.Send(DoneMsg{Result: res})
}
