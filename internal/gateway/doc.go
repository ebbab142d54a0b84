// Package gateway orchestrates request dispatch: it resolves the fallback
// chain for a request, drives retries against each candidate model in order,
// and classifies every failure into the gateway error taxonomy.
//
// The orchestrator never interprets payload bytes itself. Shaping and
// parsing belong to the modality adapters; pacing and transport belong to
// the upstream package. What lives here is the cross-candidate policy:
// transient failures retry on the same model, permanent ones advance the
// chain, and a request fails only after every candidate is spent.
package gateway
