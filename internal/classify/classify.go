// Package classify sends transcripts to an LLM provider and normalizes the
// free-form response into a well-formed ClassificationResult.
package classify

import (
	"context"
	"errors"
	log "log/slog"
	"math"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/healthfc/misinfoscan/internal/model"
)

// Run classifies one transcript with p and normalizes the response. Wall-clock
// elapsed seconds (rounded to 2 decimals) cover the provider call; the
// normalizer itself is not timed.
//
// Transient transport failures (connection errors, 429, 5xx) are retried with
// Fibonacci backoff. If the call still fails, Run returns the default result
// together with the error so the caller can persist the failure note per
// record; the batch is never aborted from here.
func Run(ctx context.Context, p Provider, system, content string) (model.ClassificationResult, float64, error) {
	start := time.Now()

	var raw string
	b := retry.NewFibonacci(1 * time.Second)
	err := retry.Do(ctx, retry.WithMaxRetries(2, b), func(ctx context.Context) error {
		var cerr error
		raw, cerr = p.Classify(ctx, system, content)
		if cerr == nil {
			return nil
		}
		if shouldRetry(cerr) {
			return retry.RetryableError(cerr)
		}
		return cerr
	})

	elapsed := roundSec(time.Since(start))
	if err != nil {
		log.Warn("classification call failed", "provider", p.Name(), "err", err)
		return model.DefaultResult(), elapsed, err
	}
	return Normalize(raw), elapsed, nil
}

// shouldRetry reports whether a provider error is transient. Context
// cancellations and client-side HTTP failures (auth, bad request) are
// permanent.
func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.transient()
	}
	// Anything else is a transport-level failure (connection refused, reset).
	return true
}

func roundSec(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
