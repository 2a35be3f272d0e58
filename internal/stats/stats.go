package stats

import (
	"time"
)

// Stats holds the running counters of a single attempt loop.
//
// Requests == Success + Fail + DecodeErrors at every point between
// attempts. TransportErrors is a breakdown of Fail, not a separate bucket.
type Stats struct {
	StartTime time.Time

	Requests        uint64
	Success         uint64
	Fail            uint64
	DecodeErrors    uint64
	TransportErrors uint64

	Latency *LatencyHistogram
}

func NewStats(start time.Time) *Stats {
	return &Stats{
		StartTime: start,
		Latency:   NewLatencyHistogram(),
	}
}

func (s *Stats) AddSuccess(latency time.Duration) {
	s.Requests++
	s.Success++
	s.Latency.Record(latency)
}

// AddFailure counts a non-matching response. Transport failures never
// produced a response, so their latency is not recorded.
func (s *Stats) AddFailure(latency time.Duration, transport bool) {
	s.Requests++
	s.Fail++
	if transport {
		s.TransportErrors++
		return
	}
	s.Latency.Record(latency)
}

func (s *Stats) AddDecodeError(latency time.Duration) {
	s.Requests++
	s.DecodeErrors++
	s.Latency.Record(latency)
}

// Summary is a point-in-time copy of Stats for presentation.
type Summary struct {
	StartTime      time.Time `json:"start_time"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	RequestsPerSec float64   `json:"requests_per_sec"`

	Requests        uint64 `json:"total_requests"`
	Success         uint64 `json:"successful_requests"`
	Fail            uint64 `json:"failed_requests"`
	DecodeErrors    uint64 `json:"decode_errors"`
	TransportErrors uint64 `json:"transport_errors"`

	MeanMs float64 `json:"mean_ms"`
	P50Ms  float64 `json:"p50_ms"`
	P90Ms  float64 `json:"p90_ms"`
	P99Ms  float64 `json:"p99_ms"`
	MaxMs  float64 `json:"max_ms"`
}

// Summary computes elapsed time and the average request rate as of now.
func (s *Stats) Summary(now time.Time) Summary {
	elapsed := now.Sub(s.StartTime).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}

	rps := 0.0
	if s.Requests > 0 && elapsed > 0 {
		rps = float64(s.Requests) / elapsed
	}

	return Summary{
		StartTime:       s.StartTime,
		ElapsedSeconds:  elapsed,
		RequestsPerSec:  rps,
		Requests:        s.Requests,
		Success:         s.Success,
		Fail:            s.Fail,
		DecodeErrors:    s.DecodeErrors,
		TransportErrors: s.TransportErrors,
		MeanMs:          s.Latency.MeanMs(),
		P50Ms:           s.Latency.QuantileMs(50),
		P90Ms:           s.Latency.QuantileMs(90),
		P99Ms:           s.Latency.QuantileMs(99),
		MaxMs:           s.Latency.MaxMs(),
	}
}

// Balanced reports whether every request landed in exactly one bucket.
func (s Summary) Balanced() bool {
	return s.Requests == s.Success+s.Fail+s.DecodeErrors
}
