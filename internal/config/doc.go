// Package config provides configuration loading and validation for the meeting audio service.
// It handles YAML-based configuration with per-section struct validation and
// applies service defaults for omitted pipeline parameters.
package config
