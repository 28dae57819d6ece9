package retry

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxRetries int) Policy {
	return Policy{
		MaxRetries: maxRetries,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Retryable:  []Kind{KindTransient, KindRateLimited},
	}
}

func TestDo_SucceedsFirstTry(t *testing.T) {
	calls := 0

	v, err := Do(context.Background(), fastPolicy(3), "fetch", func(context.Context) (string, error) {
		calls++
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	calls := 0

	v, err := Do(context.Background(), fastPolicy(3), "fetch", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", Mark(errors.New("connection reset"), KindTransient)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.Equal(t, 3, calls)
}

func TestDo_ExhaustionReturnsOriginalError(t *testing.T) {
	calls := 0
	failure := Mark(errors.New("still down"), KindTransient)

	_, err := Do(context.Background(), fastPolicy(2), "fetch", func(context.Context) (int, error) {
		calls++
		return 0, failure
	})

	// 1 initial + 2 retries, and the failure comes back verbatim.
	assert.Equal(t, 3, calls)
	require.Error(t, err)
	assert.Equal(t, failure, err)
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	calls := 0
	failure := Mark(errors.New("bad request"), KindRejected)

	start := time.Now()
	_, err := Do(context.Background(), fastPolicy(5), "fetch", func(context.Context) (int, error) {
		calls++
		return 0, failure
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, failure, err)
	// No backoff sleep was taken.
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestDo_UnmarkedErrorIsNotRetried(t *testing.T) {
	calls := 0

	_, err := Do(context.Background(), fastPolicy(5), "fetch", func(context.Context) (int, error) {
		calls++
		return 0, errors.New("plain failure")
	})

	assert.Equal(t, 1, calls)
	assert.Equal(t, KindUnknown, KindOf(err))
}

func TestDo_ZeroRetriesSingleAttempt(t *testing.T) {
	calls := 0

	_, err := Do(context.Background(), fastPolicy(0), "fetch", func(context.Context) (int, error) {
		calls++
		return 0, Mark(errors.New("transient"), KindTransient)
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancellationDuringSleep(t *testing.T) {
	p := Policy{
		MaxRetries: 3,
		BaseDelay:  10 * time.Second,
		MaxDelay:   10 * time.Second,
		Retryable:  []Kind{KindTransient},
	}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, p, "fetch", func(context.Context) (int, error) {
			return 0, Mark(errors.New("down"), KindTransient)
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		// Cancellation propagates as plain ctx.Err, not a wrapped failure.
		assert.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("Do did not observe cancellation during backoff sleep")
	}
}

func TestRun(t *testing.T) {
	calls := 0

	err := Run(context.Background(), fastPolicy(2), "save", func(context.Context) error {
		calls++
		if calls < 2 {
			return Mark(errors.New("locked"), KindTransient)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestMarkAndKindOf(t *testing.T) {
	assert.NoError(t, Mark(nil, KindTransient))

	err := Mark(errors.New("root"), KindRateLimited)
	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.Equal(t, "root", err.Error())

	// The kind survives further wrapping.
	wrapped := errors.Wrap(err, "outer context")
	assert.Equal(t, KindRateLimited, KindOf(wrapped))

	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestPolicy_Backoff(t *testing.T) {
	p := Policy{BaseDelay: 100 * time.Millisecond, MaxDelay: 150 * time.Millisecond}

	for attempt := 0; attempt < 8; attempt++ {
		for i := 0; i < 20; i++ {
			d := p.backoff(attempt)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.LessOrEqual(t, d, 150*time.Millisecond)
		}
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "transient", KindTransient.String())
	assert.Equal(t, "rate_limited", KindRateLimited.String())
	assert.Equal(t, "rejected", KindRejected.String())
	assert.Equal(t, "internal", KindInternal.String())
	assert.Equal(t, "unknown", KindUnknown.String())
}
