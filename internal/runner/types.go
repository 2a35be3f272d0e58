package runner

import (
	"time"

	"buyloop/internal/stats"
)

const (
	// DefaultEndpoint is the launch-trade RPC the payload is posted to.
	DefaultEndpoint = "https://telegram.hypurr.fun/hypurr.Telegram/HyperliquidLaunchTrade"

	// ContentType is the gRPC-web text framing the endpoint expects.
	ContentType = "application/grpc-web-text"

	// SuccessMarker in a decoded response signals a completed purchase.
	SuccessMarker = "Bought"

	// FreezeOffset is added to the release instant to get freeze-end.
	FreezeOffset = 60 * time.Second

	DefaultMaxAttempts = 10000
	DefaultDelay       = 0.6
	DefaultStartBefore = 5.0
)

// Config is built once before the loop starts and never mutated.
type Config struct {
	Payload           string  `json:"-" validate:"required"`
	Endpoint          string  `json:"endpoint" validate:"required,url"`
	NoStop            bool    `json:"no_stop"`
	MaxAttempts       int     `json:"max_attempts" validate:"gte=1"`
	Delay             float64 `json:"delay" validate:"gte=0"`
	StopOnDecodeError bool    `json:"stop_on_decode_error"`

	// ReleaseTime is optional; the zero value disables the start gate.
	ReleaseTime time.Time `json:"release_time,omitempty"`
	StartBefore float64   `json:"start_before"`
}

func DefaultConfig() Config {
	return Config{
		Endpoint:    DefaultEndpoint,
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultDelay,
		StartBefore: DefaultStartBefore,
	}
}

// Response is what the transport hands back for one request.
type Response struct {
	StatusCode int
	Body       string
	Latency    time.Duration
}

type OutcomeKind int

const (
	OutcomeNoMatch OutcomeKind = iota
	OutcomeMatched
	OutcomeDecodeError
	OutcomeTransportError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeMatched:
		return "matched"
	case OutcomeNoMatch:
		return "no_match"
	case OutcomeDecodeError:
		return "decode_error"
	case OutcomeTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Outcome describes a single attempt.
type Outcome struct {
	Kind OutcomeKind

	// Matched is true when the marker was found. A DecodeError outcome may
	// still match because the raw body is tested as literal text.
	Matched bool

	StatusCode int
	Raw        string
	Decoded    string
	Latency    time.Duration
	At         time.Time
	Err        error
}

type Status int

const (
	StatusSuccess Status = iota
	StatusExhausted
	StatusDecodeAborted
	StatusInterrupted
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusExhausted:
		return "exhausted"
	case StatusDecodeAborted:
		return "decode_aborted"
	case StatusInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Result is returned by Run once the loop stops.
type Result struct {
	Status      Status
	Attempts    int // requests actually issued
	MaxAttempts int
	AnySuccess  bool
	NoStop      bool
	Summary     stats.Summary
}

// ExitCode maps the result to a process exit status.
func (r Result) ExitCode() int {
	switch r.Status {
	case StatusSuccess:
		return 0
	case StatusInterrupted:
		if r.AnySuccess {
			return 0
		}
	}
	return 1
}
