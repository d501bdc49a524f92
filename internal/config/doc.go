// Package config loads, normalizes, and validates retake's TOML configuration.
//
// Configuration resolves from an explicit --config path, then
// ~/.config/retake/config.toml, then ./retake.toml, falling back to built-in
// defaults when no file exists. All path fields are tilde-expanded and made
// absolute during normalization so downstream code never handles relative
// paths.
package config
