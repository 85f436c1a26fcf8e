package auditlog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadJSONLTolerance(t *testing.T) {
	input := strings.Join([]string{
		`{"run_id":"r1","stage":"auditor","duration_s":12.5}`,
		``,
		`not json at all`,
		`{"run_id":"r1","stage":"complete","decision":"approved","total_duration_s":40}`,
	}, "\n")

	records, err := ReadJSONL(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("ReadJSONL() error = %v", err)
	}
	// Blank and invalid lines are skipped, valid ones survive.
	if len(records) != 2 {
		t.Fatalf("ReadJSONL() = %d records, want 2", len(records))
	}
	if records[0].Stage != "auditor" || records[0].DurationS != 12.5 {
		t.Errorf("first record = %+v", records[0])
	}
	if records[1].Decision != "approved" || records[1].TotalDurationS != 40 {
		t.Errorf("second record = %+v", records[1])
	}
}

func TestAppendJSONLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit_costs.jsonl")

	want := &CostRecord{
		RunID:     "r1",
		Stage:     "contract_digest",
		DurationS: 3.25,
		CacheHit:  true,
	}
	if err := AppendJSONL(path, want); err != nil {
		t.Fatalf("AppendJSONL() error = %v", err)
	}
	if err := AppendJSONL(path, &CostRecord{RunID: "r1", Stage: "auditor", DurationS: 9}); err != nil {
		t.Fatalf("AppendJSONL() error = %v", err)
	}

	records, err := ReadJSONLFile(path, nil)
	if err != nil {
		t.Fatalf("ReadJSONLFile() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ReadJSONLFile() = %d records, want 2", len(records))
	}
	got := records[0]
	if got.RunID != want.RunID || got.Stage != want.Stage || got.DurationS != want.DurationS || !got.CacheHit {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestReadJSONLFileMissing(t *testing.T) {
	_, err := ReadJSONLFile(filepath.Join(t.TempDir(), "missing.jsonl"), nil)
	if err == nil {
		t.Fatal("ReadJSONLFile() error = nil, want open error")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want not-exist", err)
	}
}
