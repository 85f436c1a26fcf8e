package certify

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestParseWindow(t *testing.T) {
	tests := []struct {
		window  string
		want    time.Duration
		wantErr bool
	}{
		{"24h", 24 * time.Hour, false},
		{"30m", 30 * time.Minute, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"90s", 90 * time.Second, false},
		{" 12H ", 12 * time.Hour, false},
		{"24", 0, true},
		{"h", 0, true},
		{"1w", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseWindow(tt.window)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseWindow(%q) error = nil, want error", tt.window)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseWindow(%q) error = %v", tt.window, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseWindow(%q) = %v, want %v", tt.window, got, tt.want)
		}
	}
}

func TestCanonicalJSONBytes(t *testing.T) {
	data, err := CanonicalJSONBytes(map[string]interface{}{
		"b":   2,
		"a":   1,
		"url": "https://example.com/?a=1&b=2",
	})
	if err != nil {
		t.Fatalf("CanonicalJSONBytes() error = %v", err)
	}
	got := string(data)
	want := `{"a":1,"b":2,"url":"https://example.com/?a=1&b=2"}`
	if got != want {
		t.Errorf("CanonicalJSONBytes() = %s, want %s", got, want)
	}
}

func TestComputeRuntimeConfigHashStable(t *testing.T) {
	cfg := map[string]interface{}{"max_leverage": 3, "mode": "live"}
	first, err := ComputeRuntimeConfigHash(cfg)
	if err != nil {
		t.Fatalf("ComputeRuntimeConfigHash() error = %v", err)
	}
	second, err := ComputeRuntimeConfigHash(map[string]interface{}{"mode": "live", "max_leverage": 3})
	if err != nil {
		t.Fatalf("ComputeRuntimeConfigHash() error = %v", err)
	}
	if first != second {
		t.Errorf("hash not stable across key order: %s vs %s", first, second)
	}
	if len(first) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(first))
	}
}

func TestExtractMetrics(t *testing.T) {
	raw := map[string]interface{}{
		"release_gate_metrics": map[string]interface{}{
			"fee_drag_ratio":          0.12,
			"replay_coverage_pct":     "97.5",
			"atomic_naked_events_24h": float64(0),
			"unrelated":               true,
		},
	}
	got := ExtractMetrics(raw)
	want := map[string]interface{}{
		"fee_drag_ratio":          0.12,
		"replay_coverage_pct":     97.5,
		"atomic_naked_events_24h": int64(0),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractMetrics() = %v, want %v", got, want)
	}
}

func TestExtractMetricsMissingAndInvalid(t *testing.T) {
	got := ExtractMetrics(map[string]interface{}{
		"fee_drag_ratio": "not a number",
	})
	for _, key := range RequiredMetrics {
		if got[key] != nil {
			t.Errorf("metric %s = %v, want nil", key, got[key])
		}
	}
}

func TestEvaluate(t *testing.T) {
	passing := map[string]interface{}{
		"fee_drag_ratio":          0.12,
		"replay_coverage_pct":     97.5,
		"atomic_naked_events_24h": int64(0),
	}

	tests := []struct {
		name        string
		mutate      func(map[string]interface{})
		wantStatus  string
		wantReasons []string
	}{
		{
			name:       "all gates pass",
			mutate:     func(m map[string]interface{}) {},
			wantStatus: StatusPass,
		},
		{
			name:        "missing metric fails first",
			mutate:      func(m map[string]interface{}) { m["replay_coverage_pct"] = nil },
			wantStatus:  StatusFail,
			wantReasons: []string{"missing_metrics: replay_coverage_pct"},
		},
		{
			name:        "naked events",
			mutate:      func(m map[string]interface{}) { m["atomic_naked_events_24h"] = int64(3) },
			wantStatus:  StatusFail,
			wantReasons: []string{"atomic_naked_events_24h>0"},
		},
		{
			name:        "fee drag at threshold fails",
			mutate:      func(m map[string]interface{}) { m["fee_drag_ratio"] = 0.35 },
			wantStatus:  StatusFail,
			wantReasons: []string{"fee_drag_ratio>=0.35"},
		},
		{
			name:        "coverage below minimum",
			mutate:      func(m map[string]interface{}) { m["replay_coverage_pct"] = 94.9 },
			wantStatus:  StatusFail,
			wantReasons: []string{"replay_coverage_pct<95"},
		},
		{
			name:       "coverage at minimum passes",
			mutate:     func(m map[string]interface{}) { m["replay_coverage_pct"] = 95.0 },
			wantStatus: StatusPass,
		},
		{
			name: "multiple reasons in fixed order",
			mutate: func(m map[string]interface{}) {
				m["atomic_naked_events_24h"] = int64(1)
				m["fee_drag_ratio"] = 0.5
				m["replay_coverage_pct"] = 10.0
			},
			wantStatus: StatusFail,
			wantReasons: []string{
				"atomic_naked_events_24h>0",
				"fee_drag_ratio>=0.35",
				"replay_coverage_pct<95",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := make(map[string]interface{}, len(passing))
			for k, v := range passing {
				metrics[k] = v
			}
			tt.mutate(metrics)

			status, reasons := Evaluate(metrics)
			if status != tt.wantStatus {
				t.Errorf("status = %s, want %s", status, tt.wantStatus)
			}
			if !reflect.DeepEqual(reasons, tt.wantReasons) {
				t.Errorf("reasons = %v, want %v", reasons, tt.wantReasons)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	t.Setenv("BUILD_ID", "build-1234")

	cert, reasons, err := Generate(Options{
		Window: "24h",
		RawMetrics: map[string]interface{}{
			"fee_drag_ratio":          0.1,
			"replay_coverage_pct":     99.0,
			"atomic_naked_events_24h": float64(0),
		},
		ContractVersion: "3.1",
		Root:            t.TempDir(),
		NowMs:           1_700_000_000_000,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if cert.Status != StatusPass {
		t.Errorf("Status = %s (%v), want PASS", cert.Status, reasons)
	}
	if cert.BuildID != "build-1234" {
		t.Errorf("BuildID = %q, want env override", cert.BuildID)
	}
	if cert.ContractVersion != "3.1" {
		t.Errorf("ContractVersion = %q, want 3.1", cert.ContractVersion)
	}
	if cert.GeneratedTsMs != 1_700_000_000_000 {
		t.Errorf("GeneratedTsMs = %d", cert.GeneratedTsMs)
	}
	wantExpiry := int64(1_700_000_000_000 + 24*3600*1000)
	if cert.ExpiresAtTsMs != wantExpiry {
		t.Errorf("ExpiresAtTsMs = %d, want %d", cert.ExpiresAtTsMs, wantExpiry)
	}
	if cert.RuntimeConfigHash == "" {
		t.Error("RuntimeConfigHash empty, want hash of empty config")
	}
}

func TestGenerateInvalidWindow(t *testing.T) {
	_, _, err := Generate(Options{Window: "soon"})
	if err == nil {
		t.Error("Generate() error = nil, want window error")
	}
}

func TestResolveBuildIDEnvPriority(t *testing.T) {
	t.Setenv("BUILD_ID", "")
	t.Setenv("GIT_SHA", "sha-from-env")
	if got := ResolveBuildID(t.TempDir()); got != "sha-from-env" {
		t.Errorf("ResolveBuildID() = %q, want %q", got, "sha-from-env")
	}
}

func TestResolveBuildIDUnknown(t *testing.T) {
	for _, key := range buildIDEnvVars {
		t.Setenv(key, "")
	}
	if got := ResolveBuildID(t.TempDir()); got != "unknown" {
		t.Errorf("ResolveBuildID() = %q, want unknown", got)
	}
}

func TestWriteFiles(t *testing.T) {
	dir := t.TempDir()
	outPath := filepath.Join(dir, "out", "certification.json")

	cert := &Certificate{
		BuildID:         "b1",
		ContractVersion: "3.1",
		ExpiresAtTsMs:   2,
		GeneratedTsMs:   1,
		ReleaseGateMetrics: map[string]interface{}{
			"fee_drag_ratio":          0.1,
			"replay_coverage_pct":     99.0,
			"atomic_naked_events_24h": int64(0),
		},
		RuntimeConfigHash: "abc",
		Status:            StatusPass,
	}
	if err := WriteFiles(cert, "24h", nil, outPath); err != nil {
		t.Fatalf("WriteFiles() error = %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading certificate: %v", err)
	}
	var decoded Certificate
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("certificate is not valid JSON: %v", err)
	}
	if decoded.Status != StatusPass {
		t.Errorf("decoded Status = %s, want PASS", decoded.Status)
	}

	summary, err := os.ReadFile(filepath.Join(dir, "out", "certification.md"))
	if err != nil {
		t.Fatalf("reading summary: %v", err)
	}
	if !strings.Contains(string(summary), "# Certification Summary") {
		t.Error("summary missing title")
	}
	if !strings.Contains(string(summary), "- Status: PASS") {
		t.Error("summary missing status line")
	}
}

func TestRenderSummaryMissingMetric(t *testing.T) {
	cert := &Certificate{
		Status: StatusFail,
		ReleaseGateMetrics: map[string]interface{}{
			"fee_drag_ratio":          0.1,
			"replay_coverage_pct":     nil,
			"atomic_naked_events_24h": int64(0),
		},
	}
	out := RenderSummary(cert, "24h", []string{"missing_metrics: replay_coverage_pct"})
	if !strings.Contains(out, "- replay_coverage_pct: MISSING") {
		t.Errorf("summary missing MISSING marker:\n%s", out)
	}
	if !strings.Contains(out, "## Status Reasons") {
		t.Errorf("summary missing reasons section:\n%s", out)
	}
}
