package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"modelgate/internal/inference"
	"modelgate/internal/upstream"
)

type stubCall struct {
	model string
}

type stubTransport struct {
	calls   []stubCall
	respond func(model string, call int) (*upstream.Outcome, error)
}

func (s *stubTransport) Invoke(_ context.Context, model string, _ upstream.Payload, _ time.Duration) (*upstream.Outcome, error) {
	call := len(s.calls)
	s.calls = append(s.calls, stubCall{model: model})
	return s.respond(model, call)
}

func (s *stubTransport) callsFor(model string) int {
	count := 0
	for _, call := range s.calls {
		if call.model == model {
			count++
		}
	}
	return count
}

func fastPolicy() upstream.Policy {
	policy := upstream.DefaultPolicy()
	policy.Sleeper = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return policy
}

func newTestOrchestrator(transport *stubTransport) *Orchestrator {
	catalog := inference.Catalog{
		inference.TaskTextGeneration: {
			Default:   "model/a",
			Fallbacks: []string{"model/b", "model/c"},
		},
	}
	return New(catalog, transport, fastPolicy(), time.Second, nil)
}

func textRequest() *inference.Request {
	return &inference.Request{Task: inference.TaskTextGeneration, Prompt: "hello"}
}

func jsonOutcome(body string) *upstream.Outcome {
	return &upstream.Outcome{Status: 200, ContentType: "application/json", Body: []byte(body)}
}

func TestHandleFallsBackOnPermanentFailure(t *testing.T) {
	transport := &stubTransport{
		respond: func(model string, _ int) (*upstream.Outcome, error) {
			if model == "model/a" {
				return nil, &upstream.StatusError{StatusCode: 404, Body: "gone"}
			}
			return jsonOutcome(`[{"generated_text":"from b"}]`), nil
		},
	}
	orch := newTestOrchestrator(transport)

	resp, err := orch.Handle(context.Background(), textRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ModelUsed != "model/b" {
		t.Errorf("model used = %q, want model/b", resp.ModelUsed)
	}
	if resp.Text.Content != "from b" {
		t.Errorf("content = %q", resp.Text.Content)
	}
	// A permanent failure advances the chain without retrying the model.
	if transport.callsFor("model/a") != 1 {
		t.Errorf("model/a called %d times, want 1", transport.callsFor("model/a"))
	}
}

func TestHandleRetriesTransientOnSameModel(t *testing.T) {
	transport := &stubTransport{
		respond: func(_ string, call int) (*upstream.Outcome, error) {
			if call < 2 {
				return nil, &upstream.StatusError{StatusCode: 503}
			}
			return jsonOutcome(`[{"generated_text":"eventually"}]`), nil
		},
	}
	orch := newTestOrchestrator(transport)

	resp, err := orch.Handle(context.Background(), textRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ModelUsed != "model/a" {
		t.Errorf("model used = %q, want model/a", resp.ModelUsed)
	}
	if transport.callsFor("model/a") != 3 {
		t.Errorf("model/a called %d times, want 3", transport.callsFor("model/a"))
	}
}

func TestHandleExhaustsEveryCandidate(t *testing.T) {
	transport := &stubTransport{
		respond: func(string, int) (*upstream.Outcome, error) {
			return nil, &upstream.StatusError{StatusCode: 500, Body: "down"}
		},
	}
	orch := newTestOrchestrator(transport)

	_, err := orch.Handle(context.Background(), textRequest())
	var gerr *inference.Error
	if !errors.As(err, &gerr) {
		t.Fatalf("error = %v, want *inference.Error", err)
	}
	if gerr.Class != inference.ClassExhausted {
		t.Errorf("class = %s, want %s", gerr.Class, inference.ClassExhausted)
	}
	// Three candidates, four attempts each.
	if gerr.Attempts != 12 {
		t.Errorf("attempts = %d, want 12", gerr.Attempts)
	}
	if gerr.Model != "model/c" {
		t.Errorf("last model = %q, want model/c", gerr.Model)
	}
}

func TestHandleTreatsParseFailureAsCandidateFailure(t *testing.T) {
	transport := &stubTransport{
		respond: func(model string, _ int) (*upstream.Outcome, error) {
			if model == "model/a" {
				return jsonOutcome(`{"unexpected":"shape"}`), nil
			}
			return jsonOutcome(`[{"generated_text":"ok"}]`), nil
		},
	}
	orch := newTestOrchestrator(transport)

	resp, err := orch.Handle(context.Background(), textRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ModelUsed != "model/b" {
		t.Errorf("model used = %q, want model/b", resp.ModelUsed)
	}
}

func TestHandleRejectsInvalidRequest(t *testing.T) {
	orch := newTestOrchestrator(&stubTransport{
		respond: func(string, int) (*upstream.Outcome, error) {
			t.Fatal("transport should not be called")
			return nil, nil
		},
	})

	_, err := orch.Handle(context.Background(), &inference.Request{Task: inference.TaskTextGeneration})
	if inference.ClassOf(err) != inference.ClassValidation {
		t.Fatalf("class = %s, want %s", inference.ClassOf(err), inference.ClassValidation)
	}
}

func TestHandleFailsForTaskWithoutModels(t *testing.T) {
	orch := newTestOrchestrator(&stubTransport{
		respond: func(string, int) (*upstream.Outcome, error) { return nil, nil },
	})

	_, err := orch.Handle(context.Background(), &inference.Request{
		Task: inference.TaskEmbedding,
		Text: "hello",
	})
	if inference.ClassOf(err) != inference.ClassExhausted {
		t.Fatalf("class = %s, want %s", inference.ClassOf(err), inference.ClassExhausted)
	}
}

func TestHandleStopsOnCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	transport := &stubTransport{
		respond: func(string, int) (*upstream.Outcome, error) {
			cancel()
			return nil, &upstream.StatusError{StatusCode: 503}
		},
	}
	orch := newTestOrchestrator(transport)

	_, err := orch.Handle(ctx, textRequest())
	if inference.ClassOf(err) != inference.ClassCancelled {
		t.Fatalf("class = %s, want %s", inference.ClassOf(err), inference.ClassCancelled)
	}
	if len(transport.calls) != 1 {
		t.Errorf("transport called %d times after cancel, want 1", len(transport.calls))
	}
}

func TestHandleRecordsElapsedTime(t *testing.T) {
	transport := &stubTransport{
		respond: func(string, int) (*upstream.Outcome, error) {
			return jsonOutcome(`[{"generated_text":"ok"}]`), nil
		},
	}
	orch := newTestOrchestrator(transport)

	resp, err := orch.Handle(context.Background(), textRequest())
	if err != nil {
		t.Fatal(err)
	}
	if resp.Elapsed < 0 {
		t.Errorf("elapsed = %v", resp.Elapsed)
	}
}
