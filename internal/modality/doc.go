// Package modality maps each inference task onto the provider wire format.
//
// An Adapter owns both directions of one task: it shapes a validated request
// into the HTTP payload the provider expects, and it interprets the provider's
// response bytes into the task's result type. Adapters are stateless and
// deterministic; building the same request twice yields byte-identical
// payloads, which is what makes retries and fallback re-dispatch safe.
package modality
