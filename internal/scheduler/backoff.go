package scheduler

import (
	"math/rand"
	"time"

	"github.com/sitesentry/sitesentry/internal/config"
)

// backoffDelay computes the exponential-backoff delay for the given
// attempt (1-indexed), capped at cfg.MaxDelayMS and jittered by ±50%
// when cfg.Jitter is set.
func backoffDelay(cfg config.RetryConfig, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	base := cfg.ExponentialBase
	if base < 1 {
		base = 2.0
	}

	delayMS := float64(cfg.InitialDelayMS) * pow(base, attempt-1)
	if cfg.MaxDelayMS > 0 && delayMS > float64(cfg.MaxDelayMS) {
		delayMS = float64(cfg.MaxDelayMS)
	}

	if cfg.Jitter {
		jitterFactor := 0.5 + rand.Float64() // in [0.5, 1.5)
		delayMS *= jitterFactor
	}

	return time.Duration(delayMS) * time.Millisecond
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
