// Package inference defines the request/response model shared by the
// gateway core.
//
// It declares the supported tasks, the normalized InferenceRequest shape and
// its per-task field invariants, the tagged response variants (binary media
// versus typed JSON), the failure classification taxonomy, and fallback-chain
// resolution. The package is pure data and rules: it performs no I/O, so the
// orchestrator, modality adapters, and HTTP layer can all depend on it
// without import cycles.
package inference
