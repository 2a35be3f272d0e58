package report

import (
	"time"

	"buyloop/internal/runner"
)

// AttemptRecord is one row of the attempt export.
type AttemptRecord struct {
	Attempt    int           `json:"attempt"`
	TimeStamp  time.Time     `json:"timestamp"`
	Outcome    string        `json:"outcome"`
	Matched    bool          `json:"matched"`
	StatusCode int           `json:"status_code"`
	Latency    time.Duration `json:"latency_ns"`
	Bytes      int           `json:"bytes"`
	Error      string        `json:"error,omitempty"`
}

// Recorder is a runner.Reporter that keeps every attempt and the final
// result for export.
type Recorder struct {
	runner.NopReporter

	Records []AttemptRecord
	Result  *runner.Result
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) AttemptFinished(attempt int, o runner.Outcome) {
	rec := AttemptRecord{
		Attempt:    attempt,
		TimeStamp:  o.At,
		Outcome:    o.Kind.String(),
		Matched:    o.Matched,
		StatusCode: o.StatusCode,
		Latency:    o.Latency,
		Bytes:      len(o.Raw),
	}
	if o.Err != nil {
		rec.Error = o.Err.Error()
	}
	r.Records = append(r.Records, rec)
}

func (r *Recorder) Finished(res runner.Result) {
	r.Result = &res
}
