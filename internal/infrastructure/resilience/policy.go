package resilience

import "time"

// Config tunes retries and the circuit breaker around model-backed calls (reasoning, OCR) and
// the brokers. Zero fields fall back to DefaultConfig.
type Config struct {
	RetryMaxAttempts    int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

// DefaultConfig spaces retries for a local model server that may be loading weights, and keeps
// the breaker open long enough for it to come back.
func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 500 * time.Millisecond,
		RetryMaxBackoff:     4 * time.Second,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      5,
		BreakerFailureRatio:     0.6,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}
}

func (c Config) normalize() Config {
	def := DefaultConfig()
	out := c

	out.RetryMaxAttempts = positiveOr(out.RetryMaxAttempts, def.RetryMaxAttempts)
	out.RetryInitialBackoff = positiveOr(out.RetryInitialBackoff, def.RetryInitialBackoff)
	out.RetryMaxBackoff = max(positiveOr(out.RetryMaxBackoff, def.RetryMaxBackoff), out.RetryInitialBackoff)
	if out.RetryMultiplier < 1 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	out.BreakerMinRequests = positiveOr(out.BreakerMinRequests, def.BreakerMinRequests)
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	out.BreakerOpenTimeout = positiveOr(out.BreakerOpenTimeout, def.BreakerOpenTimeout)
	out.BreakerHalfOpenMaxCalls = positiveOr(out.BreakerHalfOpenMaxCalls, def.BreakerHalfOpenMaxCalls)
	return out
}

func positiveOr[T int | uint32 | time.Duration](v, fallback T) T {
	if v <= 0 {
		return fallback
	}
	return v
}
