// Package certify generates release certification artifacts.
//
// A certification run evaluates a small set of release gate metrics against
// fixed thresholds and emits a signed-off decision record: a canonical JSON
// certificate plus a human-readable markdown summary. Certificates carry the
// contract version, the build id, and a hash of the runtime configuration so
// a decision can always be traced back to the exact inputs it was made on.
package certify

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	git "github.com/go-git/go-git/v5"
)

// Release gate metric keys.
const (
	MetricFeeDragRatio      = "fee_drag_ratio"
	MetricReplayCoveragePct = "replay_coverage_pct"
	MetricAtomicNakedEvents = "atomic_naked_events_24h"
)

// RequiredMetrics lists every metric a certificate must carry. A missing
// metric fails the certification outright.
var RequiredMetrics = []string{
	MetricFeeDragRatio,
	MetricReplayCoveragePct,
	MetricAtomicNakedEvents,
}

// Release gate thresholds.
const (
	FeeDragRatioMax      = 0.35
	ReplayCoverageMin    = 95.0
	AtomicNakedEventsMax = 0
)

// Certification statuses.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

var windowRe = regexp.MustCompile(`^([0-9]+)([smhd])$`)

// buildIDEnvVars are consulted in order before falling back to the git HEAD.
var buildIDEnvVars = []string{
	"BUILD_ID",
	"GIT_SHA",
	"GITHUB_SHA",
	"CI_COMMIT_SHA",
	"SOURCE_VERSION",
}

// Certificate is the decision record written as JSON. Field order matches the
// canonical (alphabetical) key order of the serialized form.
type Certificate struct {
	BuildID            string                 `json:"build_id"`
	ContractVersion    string                 `json:"contract_version"`
	ExpiresAtTsMs      int64                  `json:"expires_at_ts_ms"`
	GeneratedTsMs      int64                  `json:"generated_ts_ms"`
	ReleaseGateMetrics map[string]interface{} `json:"release_gate_metrics"`
	RuntimeConfigHash  string                 `json:"runtime_config_hash"`
	Status             string                 `json:"status"`
}

// ParseWindow parses a validity window like "24h", "30m", "7d" into a
// duration.
func ParseWindow(window string) (time.Duration, error) {
	m := windowRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(window)))
	if m == nil {
		return 0, fmt.Errorf("invalid window %q: expected number + unit (s|m|h|d)", window)
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid window %q: %w", window, err)
	}
	multipliers := map[string]time.Duration{
		"s": time.Second,
		"m": time.Minute,
		"h": time.Hour,
		"d": 24 * time.Hour,
	}
	return time.Duration(value) * multipliers[m[2]], nil
}

// CanonicalJSONBytes serializes value with sorted keys, compact separators,
// and no HTML escaping, for stable hashing.
func CanonicalJSONBytes(value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, err
	}
	// Encode appends a trailing newline; the canonical form has none.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ComputeRuntimeConfigHash returns the hex SHA-256 of the canonical JSON form
// of the runtime configuration.
func ComputeRuntimeConfigHash(config interface{}) (string, error) {
	data, err := CanonicalJSONBytes(config)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize runtime config: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// coerceMetricValue converts a raw decoded JSON value into the metric's
// expected numeric type. Unparseable or absent values become nil, which
// Evaluate reports as a missing metric.
func coerceMetricValue(key string, value interface{}) interface{} {
	if value == nil {
		return nil
	}
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if key == MetricAtomicNakedEvents {
		return int64(f)
	}
	return f
}

// ExtractMetrics pulls the required metrics out of a raw decoded JSON
// document. A top-level "release_gate_metrics" object is unwrapped first.
// Every required key is present in the result, absent or invalid values as
// nil.
func ExtractMetrics(raw interface{}) map[string]interface{} {
	if obj, ok := raw.(map[string]interface{}); ok {
		if nested, ok := obj["release_gate_metrics"].(map[string]interface{}); ok {
			raw = nested
		}
	}
	metrics := make(map[string]interface{}, len(RequiredMetrics))
	obj, _ := raw.(map[string]interface{})
	for _, key := range RequiredMetrics {
		if obj == nil {
			metrics[key] = nil
			continue
		}
		metrics[key] = coerceMetricValue(key, obj[key])
	}
	return metrics
}

// Evaluate applies the release gate thresholds and returns the certification
// status with the reasons for any failure. Missing metrics fail immediately
// without evaluating thresholds.
func Evaluate(metrics map[string]interface{}) (string, []string) {
	var missing []string
	for _, key := range RequiredMetrics {
		if metrics[key] == nil {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return StatusFail, []string{"missing_metrics: " + strings.Join(missing, ", ")}
	}

	var reasons []string
	if events, ok := metrics[MetricAtomicNakedEvents].(int64); ok && events > AtomicNakedEventsMax {
		reasons = append(reasons, "atomic_naked_events_24h>0")
	}
	if ratio, ok := metrics[MetricFeeDragRatio].(float64); ok && ratio >= FeeDragRatioMax {
		reasons = append(reasons, "fee_drag_ratio>=0.35")
	}
	if coverage, ok := metrics[MetricReplayCoveragePct].(float64); ok && coverage < ReplayCoverageMin {
		reasons = append(reasons, "replay_coverage_pct<95")
	}

	if len(reasons) == 0 {
		return StatusPass, nil
	}
	return StatusFail, reasons
}

// ResolveBuildID returns the build identifier for the certificate: the first
// populated CI environment variable, else the git HEAD of the repository at
// root, else "unknown".
func ResolveBuildID(root string) string {
	for _, key := range buildIDEnvVars {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "unknown"
	}
	head, err := repo.Head()
	if err != nil {
		return "unknown"
	}
	return head.Hash().String()
}

// Options configures a certification run.
type Options struct {
	// Window is the certificate validity window ("24h", "30m", "7d").
	Window string
	// RawMetrics is the decoded release gate metrics JSON.
	RawMetrics interface{}
	// RuntimeConfig is the decoded runtime configuration, hashed into the
	// certificate. May be nil.
	RuntimeConfig interface{}
	// ContractVersion is the master contract document version.
	ContractVersion string
	// Root is the repository root used for build id resolution.
	Root string
	// NowMs overrides the generation timestamp for deterministic output.
	// Zero means time.Now.
	NowMs int64
}

// Generate evaluates the metrics and builds the certificate plus the failure
// reasons backing its status.
func Generate(opts Options) (*Certificate, []string, error) {
	window, err := ParseWindow(opts.Window)
	if err != nil {
		return nil, nil, err
	}

	metrics := ExtractMetrics(opts.RawMetrics)
	status, reasons := Evaluate(metrics)

	generatedTsMs := opts.NowMs
	if generatedTsMs == 0 {
		generatedTsMs = time.Now().UnixMilli()
	}

	runtimeConfig := opts.RuntimeConfig
	if runtimeConfig == nil {
		runtimeConfig = map[string]interface{}{}
	}
	configHash, err := ComputeRuntimeConfigHash(runtimeConfig)
	if err != nil {
		return nil, nil, err
	}

	cert := &Certificate{
		BuildID:            ResolveBuildID(opts.Root),
		ContractVersion:    opts.ContractVersion,
		ExpiresAtTsMs:      generatedTsMs + window.Milliseconds(),
		GeneratedTsMs:      generatedTsMs,
		ReleaseGateMetrics: metrics,
		RuntimeConfigHash:  configHash,
		Status:             status,
	}
	return cert, reasons, nil
}

// RenderSummary renders the markdown summary written alongside the JSON
// certificate.
func RenderSummary(cert *Certificate, window string, reasons []string) string {
	lines := []string{
		"# Certification Summary",
		"",
		fmt.Sprintf("- Status: %s", cert.Status),
		fmt.Sprintf("- Generated (ms): %d", cert.GeneratedTsMs),
		fmt.Sprintf("- Window: %s", window),
		fmt.Sprintf("- Expires at (ms): %d", cert.ExpiresAtTsMs),
		fmt.Sprintf("- Build ID: %s", cert.BuildID),
		fmt.Sprintf("- Contract Version: %s", cert.ContractVersion),
		fmt.Sprintf("- Runtime Config Hash: %s", cert.RuntimeConfigHash),
		"",
		"## Release Gate Metrics",
	}
	for _, key := range RequiredMetrics {
		value := cert.ReleaseGateMetrics[key]
		label := "MISSING"
		if value != nil {
			label = fmt.Sprintf("%v", value)
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", key, label))
	}
	if len(reasons) > 0 {
		lines = append(lines, "", "## Status Reasons")
		for _, reason := range reasons {
			lines = append(lines, "- "+reason)
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

// WriteFiles writes the JSON certificate to outPath and the markdown summary
// next to it (outPath with a .md extension).
func WriteFiles(cert *Certificate, window string, reasons []string, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(cert, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal certificate: %w", err)
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}

	mdPath := outPath + ".md"
	if ext := filepath.Ext(outPath); ext == ".json" {
		mdPath = strings.TrimSuffix(outPath, ext) + ".md"
	}
	summary := RenderSummary(cert, window, reasons)
	if err := os.WriteFile(mdPath, []byte(summary), 0644); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	return nil
}
