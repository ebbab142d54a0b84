package upstream

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func capturePolicy(delays *[]time.Duration) Policy {
	policy := DefaultPolicy()
	policy.Sleeper = func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
	return policy
}

func TestDoRetriesTransientUntilExhausted(t *testing.T) {
	var delays []time.Duration
	policy := capturePolicy(&delays)

	calls := 0
	_, attempts, err := policy.Do(context.Background(), func(context.Context) (*Outcome, error) {
		calls++
		return nil, &StatusError{StatusCode: 503, Body: "unavailable"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 4 || attempts != 4 {
		t.Fatalf("calls = %d, attempts = %d, want 4", calls, attempts)
	}
	if !strings.Contains(err.Error(), "failed after 4 attempts") {
		t.Fatalf("error = %v, want attempt count", err)
	}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Fatalf("delay %d = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	var delays []time.Duration
	policy := capturePolicy(&delays)

	calls := 0
	_, attempts, err := policy.Do(context.Background(), func(context.Context) (*Outcome, error) {
		calls++
		return nil, &StatusError{StatusCode: 404, Body: "no such model"}
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 || attempts != 1 {
		t.Fatalf("calls = %d, attempts = %d, want 1", calls, attempts)
	}
	if len(delays) != 0 {
		t.Fatalf("expected no backoff, got %v", delays)
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	var delays []time.Duration
	policy := capturePolicy(&delays)

	calls := 0
	outcome, attempts, err := policy.Do(context.Background(), func(context.Context) (*Outcome, error) {
		calls++
		if calls < 3 {
			return nil, &StatusError{StatusCode: 500, Body: "boom"}
		}
		return &Outcome{Status: 200, Body: []byte("ok")}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
	if string(outcome.Body) != "ok" {
		t.Fatalf("outcome body = %q", outcome.Body)
	}
}

func TestDoHonorsRetryAfterOverride(t *testing.T) {
	var delays []time.Duration
	policy := capturePolicy(&delays)

	calls := 0
	_, _, _ = policy.Do(context.Background(), func(context.Context) (*Outcome, error) {
		calls++
		if calls == 1 {
			return nil, &StatusError{StatusCode: 429, RetryAfter: 7 * time.Second}
		}
		return &Outcome{Status: 200}, nil
	})
	if len(delays) != 1 || delays[0] != 7*time.Second {
		t.Fatalf("delays = %v, want [7s]", delays)
	}
}

func TestDoCapsRetryAfterAtMaxDelay(t *testing.T) {
	var delays []time.Duration
	policy := capturePolicy(&delays)

	calls := 0
	_, _, _ = policy.Do(context.Background(), func(context.Context) (*Outcome, error) {
		calls++
		if calls == 1 {
			return nil, &StatusError{StatusCode: 429, RetryAfter: 5 * time.Minute}
		}
		return &Outcome{Status: 200}, nil
	})
	if len(delays) != 1 || delays[0] != 60*time.Second {
		t.Fatalf("delays = %v, want [1m0s]", delays)
	}
}

func TestDoAbortsWhenCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	policy := DefaultPolicy()
	policy.Sleeper = func(sleepCtx context.Context, d time.Duration) error {
		cancel()
		return sleepCtx.Err()
	}

	calls := 0
	_, attempts, err := policy.Do(ctx, func(context.Context) (*Outcome, error) {
		calls++
		return nil, &StatusError{StatusCode: 503}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if calls != 1 || attempts != 1 {
		t.Fatalf("calls = %d, attempts = %d, want 1", calls, attempts)
	}
}

func TestTransientClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"rate limited", &StatusError{StatusCode: 429}, true},
		{"server error", &StatusError{StatusCode: 500}, true},
		{"bad gateway", &StatusError{StatusCode: 502}, true},
		{"not found", &StatusError{StatusCode: 404}, false},
		{"bad request", &StatusError{StatusCode: 400}, false},
		{"unauthorized", &StatusError{StatusCode: 401}, false},
		{"deadline", context.DeadlineExceeded, true},
		{"cancelled", context.Canceled, false},
		{"plain error", errors.New("nope"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Transient(tc.err); got != tc.want {
				t.Fatalf("Transient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestDelayNeverExceedsMax(t *testing.T) {
	policy := Policy{
		MaxAttempts: 10,
		BaseDelay:   time.Second,
		Multiplier:  2.0,
		MaxDelay:    8 * time.Second,
	}.normalized()

	for completed := 1; completed < 10; completed++ {
		delay := policy.delayFor(completed, &StatusError{StatusCode: 503})
		if delay > 8*time.Second {
			t.Fatalf("delay after %d attempts = %v, exceeds cap", completed, delay)
		}
	}
}
