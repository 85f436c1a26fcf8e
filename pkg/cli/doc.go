// Package cli provides shared helpers for the ralph command-line interface:
// command error types, output formatting, and signal handling.
package cli
