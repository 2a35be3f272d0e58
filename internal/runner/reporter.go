package runner

import "time"

// Reporter receives progress events from the loop. All calls happen on the
// loop's goroutine.
type Reporter interface {
	Waiting(startAt time.Time, wait time.Duration)
	AttemptStarted(attempt, maxAttempts int)
	AttemptFinished(attempt int, outcome Outcome)
	Sleeping(d time.Duration)
	Finished(result Result)
}

type multiReporter []Reporter

// Reporters fans events out to every non-nil reporter in order.
func Reporters(rs ...Reporter) Reporter {
	var m multiReporter
	for _, r := range rs {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m multiReporter) Waiting(startAt time.Time, wait time.Duration) {
	for _, r := range m {
		r.Waiting(startAt, wait)
	}
}

func (m multiReporter) AttemptStarted(attempt, maxAttempts int) {
	for _, r := range m {
		r.AttemptStarted(attempt, maxAttempts)
	}
}

func (m multiReporter) AttemptFinished(attempt int, outcome Outcome) {
	for _, r := range m {
		r.AttemptFinished(attempt, outcome)
	}
}

func (m multiReporter) Sleeping(d time.Duration) {
	for _, r := range m {
		r.Sleeping(d)
	}
}

func (m multiReporter) Finished(result Result) {
	for _, r := range m {
		r.Finished(result)
	}
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) Waiting(time.Time, time.Duration) {}
func (NopReporter) AttemptStarted(int, int)          {}
func (NopReporter) AttemptFinished(int, Outcome)     {}
func (NopReporter) Sleeping(time.Duration)           {}
func (NopReporter) Finished(Result)                  {}
