// Package config loads, normalizes, and validates zoomrender configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a local .env file, and honours
// environment fallbacks such as ZOOMRENDER_PROGRAM. The Config type
// centralizes the renderer launcher, trajectory defaults, encoder settings,
// and logging knobs so the CLI discovers them in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
