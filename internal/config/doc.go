// Package config loads, normalizes, and validates dccpipe configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional .env file, and honours
// environment fallbacks such as DCCPIPE_ROOT_DIR and DCCPIPE_MAYAPY. The Config
// type centralizes every knob the daemon and CLI need, including the DCC
// interpreter and adapter locations, which are resolved once at startup and
// handed to the render and project packages explicitly.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
