package stats

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const maxTrackable = int64(10 * time.Minute / time.Microsecond)

// LatencyHistogram records response latencies in microseconds.
// It is owned by the attempt loop and is not safe for concurrent use.
type LatencyHistogram struct {
	hist *hdrhistogram.Histogram
}

func NewLatencyHistogram() *LatencyHistogram {
	// 1us to 10min, 3 significant figures
	return &LatencyHistogram{hist: hdrhistogram.New(1, maxTrackable, 3)}
}

// Record clamps d into the trackable range before recording it.
func (h *LatencyHistogram) Record(d time.Duration) {
	us := d.Microseconds()
	if us < 1 {
		us = 1
	}
	if us > maxTrackable {
		us = maxTrackable
	}
	_ = h.hist.RecordValue(us)
}

// QuantileMs returns the latency at quantile q (0-100) in milliseconds.
func (h *LatencyHistogram) QuantileMs(q float64) float64 {
	if h.hist.TotalCount() == 0 {
		return 0
	}
	return float64(h.hist.ValueAtQuantile(q)) / 1000.0
}

func (h *LatencyHistogram) MaxMs() float64 {
	if h.hist.TotalCount() == 0 {
		return 0
	}
	return float64(h.hist.Max()) / 1000.0
}

func (h *LatencyHistogram) MeanMs() float64 {
	if h.hist.TotalCount() == 0 {
		return 0
	}
	return h.hist.Mean() / 1000.0
}

func (h *LatencyHistogram) Count() int64 {
	return h.hist.TotalCount()
}
