// Package config loads the updater's YAML configuration.
//
// Loading happens in four passes: ${VAR} expansion (after .env files are
// read), normalization of enumerated values, per-domain defaults and
// validation. The resulting Config is treated as read-only.
package config
