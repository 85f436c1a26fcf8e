// Package config provides YAML configuration loading for ralph with
// defaults, environment variable overrides, and validation.
package config
