// Package upstream talks to the inference provider over HTTP.
//
// Client issues exactly one authenticated call per invocation against the
// provider's model endpoint, sharing a pooled connection transport across all
// requests, and reports non-2xx responses as typed StatusError values so the
// retry layer can classify them. Policy wraps a single call with bounded
// exponential-backoff retries, honouring Retry-After hints on 429 responses
// and stopping immediately on permanent failures or context cancellation.
//
// The package never decides what a payload means: shaping request bodies and
// interpreting response bodies belongs to the modality adapters.
package upstream
