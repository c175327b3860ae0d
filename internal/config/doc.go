// Package config loads, normalizes, and validates screenrec configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ANDROID_SERIAL. The Config type centralizes every knob the CLI and the
// capture runner need, so recordings, state and log directories as well as
// mechanism settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
