// Package server exposes the gateway's REST surface.
//
// Each modality gets one route with a small request DTO that applies
// documented defaults and range checks before handing a normalized request
// to the orchestrator. Binary results stream back with their MIME type and
// the serving model in headers; JSON results carry the model and elapsed
// time inline. Failures map the gateway classification onto HTTP status
// codes with a uniform error body.
package server
