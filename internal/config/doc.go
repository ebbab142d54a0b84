// Package config loads, normalizes, and validates gateway configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_API_KEY. The Config type centralizes every knob the server and CLI need,
// from the upstream credentials and retry pacing to the per-task model
// catalogs.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
