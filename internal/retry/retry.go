// Package retry provides bounded retry with exponential backoff and jitter
// for fallible operations.
//
// Failures are classified into a closed set of kinds rather than matched by
// broad error types, so the retry/no-retry boundary stays explicit. Producers
// mark errors with Mark; policies declare which kinds they retry.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Kind classifies a failure for retry purposes.
type Kind int

const (
	KindUnknown     Kind = iota // Unclassified failure
	KindTransient               // Transient upstream failure, safe to retry
	KindRateLimited             // Upstream throttling
	KindRejected                // Domain-level rejection, retrying cannot help
	KindInternal                // Programmer or data error
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindRateLimited:
		return "rate_limited"
	case KindRejected:
		return "rejected"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

type kindError struct {
	cause error
	kind  Kind
}

func (e *kindError) Error() string { return e.cause.Error() }
func (e *kindError) Unwrap() error { return e.cause }

// Mark attaches a failure kind to err. Returns nil when err is nil.
func Mark(err error, k Kind) error {
	if err == nil {
		return nil
	}
	return &kindError{cause: err, kind: k}
}

// KindOf returns the failure kind attached to err, or KindUnknown.
func KindOf(err error) Kind {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind
	}
	return KindUnknown
}

// Policy holds retry parameters. A Policy carries no state across
// invocations.
type Policy struct {
	MaxRetries int           // Retry attempts beyond the initial call
	BaseDelay  time.Duration // Backoff base for the first retry
	MaxDelay   time.Duration // Cap on a single backoff sleep
	Retryable  []Kind        // Failure kinds worth retrying
}

func (p Policy) retryable(k Kind) bool {
	for _, r := range p.Retryable {
		if r == k {
			return true
		}
	}
	return false
}

// backoff returns the jittered delay for the given attempt index: a uniform
// draw from [0, BaseDelay*2^attempt], clamped to MaxDelay. Full jitter means
// late attempts can still sleep near zero.
func (p Policy) backoff(attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	d := p.BaseDelay << uint(attempt)
	jittered := time.Duration(rand.Float64() * float64(d))
	if p.MaxDelay > 0 && jittered > p.MaxDelay {
		jittered = p.MaxDelay
	}
	return jittered
}

// Do invokes op until it succeeds, fails with a non-retryable kind, or
// MaxRetries+1 attempts are exhausted. The final error is returned exactly as
// op produced it, never wrapped. name identifies the operation in log lines.
//
// Cancellation of ctx during an inter-attempt sleep propagates as ctx.Err().
func Do[T any](ctx context.Context, p Policy, name string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		if !p.retryable(KindOf(err)) {
			return zero, err
		}
		if attempt >= p.MaxRetries {
			zlog.Error().Msgf("retry: %s failed after %d attempt(s): %v", name, attempt+1, err)
			return zero, err
		}

		delay := p.backoff(attempt)
		zlog.Warn().Msgf("retry: %s failed on attempt %d/%d (%s: %v), retrying in %v",
			name, attempt+1, p.MaxRetries+1, KindOf(err), err, delay)

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Run is Do for operations without a result value.
func Run(ctx context.Context, p Policy, name string, op func(context.Context) error) error {
	_, err := Do(ctx, p, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}
