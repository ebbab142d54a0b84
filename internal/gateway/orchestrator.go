package gateway

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"modelgate/internal/inference"
	"modelgate/internal/logging"
	"modelgate/internal/modality"
	"modelgate/internal/upstream"
)

// Transport issues a single upstream call. It is satisfied by
// *upstream.Client and stubbed in tests.
type Transport interface {
	Invoke(ctx context.Context, model string, payload upstream.Payload, timeout time.Duration) (*upstream.Outcome, error)
}

// Orchestrator routes validated requests through the fallback chain.
type Orchestrator struct {
	catalog   inference.Catalog
	transport Transport
	retry     upstream.Policy
	timeout   time.Duration
	logger    *slog.Logger
}

// New constructs an orchestrator. The catalog is treated as read-only;
// timeout is the per-call default applied when a request carries none.
func New(catalog inference.Catalog, transport Transport, retry upstream.Policy, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		catalog:   catalog,
		transport: transport,
		retry:     retry,
		timeout:   timeout,
		logger:    logger,
	}
}

// Handle runs one inference request to completion. Candidates are tried
// strictly in chain order; within a candidate the retry policy governs
// pacing. On success the response records which candidate actually answered.
// On failure the returned *inference.Error carries the classification, the
// last model attempted, and the total attempt count across all candidates.
func (o *Orchestrator) Handle(ctx context.Context, req *inference.Request) (*inference.Response, error) {
	started := time.Now()

	if err := req.Validate(); err != nil {
		return nil, inference.NewValidationError(err)
	}

	adapter, err := modality.ForTask(req.Task)
	if err != nil {
		return nil, inference.NewValidationError(err)
	}

	chain := inference.Chain(req.Task, req.Model, o.catalog)
	if len(chain) == 0 {
		return nil, &inference.Error{
			Class:   inference.ClassExhausted,
			Elapsed: time.Since(started),
			Err:     errors.New("no models configured for task " + string(req.Task)),
		}
	}

	// Built once; candidates receive byte-identical payloads.
	payload, err := adapter.BuildPayload(req)
	if err != nil {
		return nil, inference.NewValidationError(err)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = o.timeout
	}

	var (
		totalAttempts int
		lastModel     string
		lastErr       error
	)

	for _, candidate := range chain {
		if ctx.Err() != nil {
			return nil, &inference.Error{
				Class:    inference.ClassCancelled,
				Model:    lastModel,
				Attempts: totalAttempts,
				Elapsed:  time.Since(started),
				Err:      ctx.Err(),
			}
		}

		lastModel = candidate.Model
		log := o.logger.With(
			logging.String(logging.FieldTask, string(req.Task)),
			logging.String(logging.FieldModel, candidate.Model),
		)
		log.Debug("dispatching candidate", logging.Int("priority", candidate.Priority))

		outcome, attempts, invokeErr := o.retry.Do(ctx, func(attemptCtx context.Context) (*upstream.Outcome, error) {
			return o.transport.Invoke(attemptCtx, candidate.Model, *payload, timeout)
		})
		totalAttempts += attempts

		if invokeErr != nil {
			if ctx.Err() != nil {
				return nil, &inference.Error{
					Class:    inference.ClassCancelled,
					Model:    candidate.Model,
					Attempts: totalAttempts,
					Elapsed:  time.Since(started),
					Err:      invokeErr,
				}
			}
			lastErr = invokeErr
			log.Warn("candidate failed",
				logging.Int(logging.FieldAttempt, attempts),
				logging.Error(invokeErr))
			continue
		}

		response, parseErr := adapter.ParseResponse(outcome)
		if parseErr != nil {
			// A 2xx body the adapter cannot read counts as the candidate
			// being unusable, not as a gateway fault.
			lastErr = parseErr
			log.Warn("candidate returned an unusable response", logging.Error(parseErr))
			continue
		}

		response.ModelUsed = candidate.Model
		response.Elapsed = time.Since(started)
		log.Info("request served",
			logging.Int("attempts", totalAttempts),
			logging.Duration("elapsed", response.Elapsed))
		return response, nil
	}

	return nil, &inference.Error{
		Class:    inference.ClassExhausted,
		Model:    lastModel,
		Attempts: totalAttempts,
		Elapsed:  time.Since(started),
		Err:      lastErr,
	}
}

// Catalog exposes the configured model catalog for read-only reporting.
func (o *Orchestrator) Catalog() inference.Catalog {
	return o.catalog
}
