package graphql

import (
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig controls exponential backoff for queries. Mutations never retry.
type RetryConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	// MaxElapsed caps the total time spent retrying one query; 0 means no cap.
	MaxElapsed time.Duration
}

func defaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseBackoff: 200 * time.Millisecond,
		MaxBackoff:  2 * time.Second,
		MaxElapsed:  10 * time.Second,
	}
}

func (r RetryConfig) normalized() RetryConfig {
	cfg := r
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 2 * time.Second
	}
	if cfg.MaxElapsed < 0 {
		cfg.MaxElapsed = 0
	}
	return cfg
}

// newBackOff is the policy for one query: doubling from BaseBackoff up to
// MaxBackoff, each wait jittered by +/-50%.
func (r RetryConfig) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = r.BaseBackoff
	bo.MaxInterval = r.MaxBackoff
	bo.Multiplier = 2
	bo.RandomizationFactor = 0.5
	bo.Reset()
	return bo
}

func (r RetryConfig) options(notify backoff.Notify) []backoff.RetryOption {
	return []backoff.RetryOption{
		backoff.WithBackOff(r.newBackOff()),
		backoff.WithMaxTries(uint(r.MaxAttempts)),
		backoff.WithMaxElapsedTime(r.MaxElapsed),
		backoff.WithNotify(notify),
	}
}

// unwrapPermanent strips the marker backoff.Retry leaves on a permanent
// error that hit the attempt cap.
func unwrapPermanent(err error) error {
	var perm *backoff.PermanentError
	if errors.As(err, &perm) {
		return perm.Unwrap()
	}
	return err
}
