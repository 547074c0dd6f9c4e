// Package config loads, validates and saves the provisioner settings.
//
// Settings are read from YAML, or from TOML when the file name ends in .toml.
// Validate fills defaults and rejects unsupported component types before any
// provisioning step runs.
package config
