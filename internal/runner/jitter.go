package runner

import (
	"math/rand/v2"
	"time"
)

const jitterSpread = 0.2

// Jitter returns a duration uniformly distributed in [0.8d, 1.2d] where d
// is the base delay in seconds.
func Jitter(base float64) time.Duration {
	return jitterWith(base, rand.Float64)
}

func jitterWith(base float64, float func() float64) time.Duration {
	if base <= 0 {
		return 0
	}
	factor := 1 - jitterSpread + 2*jitterSpread*float()
	return time.Duration(base * factor * float64(time.Second))
}
