package runner

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"buyloop/internal/stats"
)

// Runner drives the attempt loop for one Config. It issues at most one
// request at a time.
type Runner struct {
	Cfg      Config
	Stats    *stats.Stats
	sender   Sender
	reporter Reporter
	log      zerolog.Logger

	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(base float64) time.Duration
}

func NewRunner(cfg Config, sender Sender, reporter Reporter, log zerolog.Logger) *Runner {
	if reporter == nil {
		reporter = NopReporter{}
	}
	return &Runner{
		Cfg:      cfg,
		sender:   sender,
		reporter: reporter,
		log:      log,
		now:      time.Now,
		sleep:    sleepContext,
		jitter:   Jitter,
	}
}

// Run waits for the start gate and then loops until a stop condition is
// reached. Cancelling ctx ends the run at the next suspension point or
// aborts the in-flight request.
func (r *Runner) Run(ctx context.Context) Result {
	if startAt, wait := GateWait(r.Cfg, r.now()); wait > 0 {
		r.log.Info().Time("start_at", startAt).Dur("wait", wait).Msg("waiting for start gate")
		r.reporter.Waiting(startAt, wait)
		if err := r.sleep(ctx, wait); err != nil {
			r.Stats = stats.NewStats(r.now())
			return r.finish(StatusInterrupted, 0, false)
		}
	}

	r.Stats = stats.NewStats(r.now())

	success := false
	attempt := 1
	for attempt <= r.Cfg.MaxAttempts && (!success || r.Cfg.NoStop) {
		if ctx.Err() != nil {
			return r.finish(StatusInterrupted, attempt-1, success)
		}
		r.reporter.AttemptStarted(attempt, r.Cfg.MaxAttempts)

		outcome := r.attemptOnce(ctx)
		if outcome.Kind == OutcomeTransportError && ctx.Err() != nil {
			// Interrupted mid-request; the aborted call is not an outcome.
			return r.finish(StatusInterrupted, attempt-1, success)
		}
		if outcome.Kind == OutcomeDecodeError && r.Cfg.StopOnDecodeError {
			outcome.Matched = false
		}
		r.record(outcome)
		r.reporter.AttemptFinished(attempt, outcome)

		log := r.log.Debug().Int("attempt", attempt).Stringer("outcome", outcome.Kind).
			Int("status", outcome.StatusCode).Dur("latency", outcome.Latency)
		if outcome.Err != nil {
			log = log.Err(outcome.Err)
		}
		log.Msg("attempt finished")

		if outcome.Kind == OutcomeDecodeError && r.Cfg.StopOnDecodeError {
			return r.finish(StatusDecodeAborted, attempt, success)
		}
		if outcome.Matched {
			success = true
			if !r.Cfg.NoStop {
				return r.finish(StatusSuccess, attempt, success)
			}
		}

		attempt++
		if attempt <= r.Cfg.MaxAttempts {
			d := r.jitter(r.Cfg.Delay)
			r.reporter.Sleeping(d)
			if err := r.sleep(ctx, d); err != nil {
				return r.finish(StatusInterrupted, attempt-1, success)
			}
		}
	}

	if success {
		return r.finish(StatusSuccess, attempt-1, success)
	}
	return r.finish(StatusExhausted, attempt-1, success)
}

func (r *Runner) attemptOnce(ctx context.Context) Outcome {
	at := r.now()
	resp, err := r.sender.Send(ctx, r.Cfg.Payload)
	if err != nil {
		return Outcome{
			Kind:       OutcomeTransportError,
			StatusCode: resp.StatusCode,
			Latency:    resp.Latency,
			At:         at,
			Err:        err,
		}
	}

	o := Classify(resp.Body)
	o.StatusCode = resp.StatusCode
	o.Latency = resp.Latency
	o.At = at
	return o
}

// record puts the outcome into exactly one counter bucket.
func (r *Runner) record(o Outcome) {
	switch {
	case o.Matched:
		r.Stats.AddSuccess(o.Latency)
	case o.Kind == OutcomeDecodeError:
		r.Stats.AddDecodeError(o.Latency)
	case o.Kind == OutcomeTransportError:
		r.Stats.AddFailure(o.Latency, true)
	default:
		r.Stats.AddFailure(o.Latency, false)
	}
}

func (r *Runner) finish(status Status, attempts int, anySuccess bool) Result {
	res := Result{
		Status:      status,
		Attempts:    attempts,
		MaxAttempts: r.Cfg.MaxAttempts,
		AnySuccess:  anySuccess,
		NoStop:      r.Cfg.NoStop,
		Summary:     r.Stats.Summary(r.now()),
	}
	r.log.Info().Stringer("status", status).Int("attempts", attempts).
		Uint64("success", res.Summary.Success).Msg("run finished")
	r.reporter.Finished(res)
	return res
}
