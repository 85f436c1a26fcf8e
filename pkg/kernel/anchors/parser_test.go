package anchors

import (
	"strings"
	"testing"

	kernelerrors "ralph-hq/ralph/pkg/kernel/errors"
)

var contractLines = []string{
	"# **Version: 1.4**",
	"",
	"## 2. Execution",
	"",
	"### §2.1 Order placement",
	"Orders are atomic.",
	"### §2.2 Fee bounds",
	"Fee drag stays below the gate threshold.",
	"### §3.1 Replay",
	"Replay coverage is mandatory.",
}

func TestParse(t *testing.T) {
	doc := `# Anchors

## Anchor-002: Replay coverage (Contract §3.1)

Replay proves determinism.

## Anchor-001: Fee bounds

The fee invariant is defined in §2.2 of the contract.
`
	got, err := Parse(doc, contractLines, "ANCHORS.md")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Parse() returned %d anchors, want 2", len(got))
	}

	// Sorted by id regardless of document order.
	if got[0].ID != "Anchor-001" || got[1].ID != "Anchor-002" {
		t.Errorf("ids = [%s, %s], want [Anchor-001, Anchor-002]", got[0].ID, got[1].ID)
	}

	first := got[0]
	if first.Title != "Fee bounds" {
		t.Errorf("Title = %q, want %q", first.Title, "Fee bounds")
	}
	if first.ContractRef != "§2.2" {
		t.Errorf("ContractRef = %q, want %q", first.ContractRef, "§2.2")
	}
	if first.Proof.Section != "§2.2" || first.Proof.Line != 7 {
		t.Errorf("Proof = %+v, want {§2.2 7}", first.Proof)
	}

	second := got[1]
	if second.Title != "Replay coverage" {
		t.Errorf("Title = %q, want %q", second.Title, "Replay coverage")
	}
	if second.Proof.Section != "§3.1" || second.Proof.Line != 9 {
		t.Errorf("Proof = %+v, want {§3.1 9}", second.Proof)
	}
}

func TestParseHeaderSuffixWinsOverBody(t *testing.T) {
	doc := `## Anchor-001: Order placement (Contract §2.1)

Later prose mentions §3.1 but the header already bound the ref.
`
	got, err := Parse(doc, contractLines, "ANCHORS.md")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got[0].ContractRef != "§2.1" {
		t.Errorf("ContractRef = %q, want %q", got[0].ContractRef, "§2.1")
	}
}

func TestParseFirstBodyRefWins(t *testing.T) {
	doc := `## Anchor-001: Fee bounds

First mention is §2.2, then §3.1 shows up later.
`
	got, err := Parse(doc, contractLines, "ANCHORS.md")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got[0].ContractRef != "§2.2" {
		t.Errorf("ContractRef = %q, want %q", got[0].ContractRef, "§2.2")
	}
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantType kernelerrors.ErrorType
		wantMsg  string
	}{
		{
			name:     "missing contract ref",
			doc:      "## Anchor-001: Fee bounds\n\nNo reference anywhere.\n",
			wantType: kernelerrors.ErrorTypeStructural,
			wantMsg:  "anchor Anchor-001 missing contract ref in ANCHORS.md",
		},
		{
			name:     "missing title",
			doc:      "## Anchor-001: (Contract §2.2)\n",
			wantType: kernelerrors.ErrorTypeStructural,
			wantMsg:  "missing title",
		},
		{
			name: "duplicate id",
			doc: "## Anchor-001: Fee bounds (Contract §2.2)\n\n" +
				"## Anchor-001: Fee bounds again (Contract §2.2)\n",
			wantType: kernelerrors.ErrorTypeDuplicate,
			wantMsg:  "duplicate anchor id: Anchor-001",
		},
		{
			name:     "unresolvable reference",
			doc:      "## Anchor-001: Ghost section (Contract §9.9)\n",
			wantType: kernelerrors.ErrorTypeReference,
			wantMsg:  "contract ref not found in contract document: §9.9",
		},
		{
			name:     "empty document",
			doc:      "Just prose, no anchors.\n",
			wantType: kernelerrors.ErrorTypeEmpty,
			wantMsg:  "no anchors parsed from ANCHORS.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.doc, contractLines, "ANCHORS.md")
			if err == nil {
				t.Fatalf("Parse() = %v, want error", got)
			}
			if !kernelerrors.IsType(err, tt.wantType) {
				t.Errorf("error type = %v, want %v", err, tt.wantType)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestParseNoPartialResultOnLateFailure(t *testing.T) {
	// The second anchor is broken; the valid first anchor must not leak out.
	doc := `## Anchor-001: Fee bounds (Contract §2.2)

## Anchor-002: Ghost (Contract §9.9)
`
	got, err := Parse(doc, contractLines, "ANCHORS.md")
	if err == nil {
		t.Fatal("Parse() error = nil, want reference error")
	}
	if got != nil {
		t.Errorf("Parse() = %v, want nil result on failure", got)
	}
}

func TestParseIndentedHeader(t *testing.T) {
	// Headers are recognized after surrounding whitespace is stripped.
	doc := "   ## Anchor-001: Fee bounds (Contract §2.2)\n"
	got, err := Parse(doc, contractLines, "ANCHORS.md")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got[0].ID != "Anchor-001" {
		t.Errorf("ID = %q, want Anchor-001", got[0].ID)
	}
}
