// Package rules parses validation-rule documents into ValidationRule records.
//
// A rules document is free text. Each rule starts at a "## VR-XXX: Title"
// header and is built up from bold field lines ("**Label:** value"). The
// normative statement comes from the Rule, Trigger, or Failure Mode field by
// fixed priority; gate identifiers are collected inline or from a following
// bare list block; any other labelled value lands in a free-form field bag.
// The parse is fail-closed: the first defect invalidates the entire batch.
package rules

import (
	"regexp"
	"sort"
	"strings"

	kernelerrors "ralph-hq/ralph/pkg/kernel/errors"
	"ralph-hq/ralph/pkg/kernel/ref"
)

var (
	ruleHeaderRe     = regexp.MustCompile(`^##\s+(VR-[A-Za-z0-9]+):\s*(.+)$`)
	fieldRe          = regexp.MustCompile(`^\*\*(.+?):\*\*\s*(.*)$`)
	gateIDRe         = regexp.MustCompile(`\bVR-\d{3}[a-z]?\b`)
	fieldNameCleanRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// Enforcement is a derived view of the rule statement. It carries no
// independent content; Rule is always identical to ValidationRule.Rule.
type Enforcement struct {
	Rule string `json:"rule"`
}

// ValidationRule is a normative rule extracted from documentation.
type ValidationRule struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	ContractRef string              `json:"contract_ref"`
	Rule        string              `json:"rule"`
	GateIDs     []string            `json:"gate_ids"`
	Fields      map[string][]string `json:"fields"`
	Enforcement Enforcement         `json:"enforcement"`
}

// statementSource describes how a field label feeds the rule statement.
// "Rule" always wins; "Trigger" and "Failure Mode" only fill an unset
// statement. The table makes the precedence explicit instead of burying it
// in chained conditionals.
type statementSource struct {
	label     string
	overwrite bool
}

var statementPriority = []statementSource{
	{label: "rule", overwrite: true},
	{label: "trigger", overwrite: false},
	{label: "failure mode", overwrite: false},
}

// NormalizeFieldName lowers a field label and collapses non-alphanumeric runs
// to single underscores: "Owner / Team" becomes "owner_team".
func NormalizeFieldName(label string) string {
	normalized := fieldNameCleanRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "_")
	return strings.Trim(normalized, "_")
}

// dedupPreserve removes duplicates keeping first-seen order.
func dedupPreserve(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// parser carries the state of a single rules-document scan.
type parser struct {
	source string

	current   *ValidationRule
	gateBlock bool // next lines form a bare gate-id list
	seen      map[string]bool
	out       []ValidationRule
}

// Parse scans rulesText and returns the deduplicated, id-sorted list of
// validation rules. source names the document in diagnostics. The first
// defect aborts the whole parse with a typed *kernelerrors.Error.
func Parse(rulesText string, source string) ([]ValidationRule, error) {
	p := &parser{
		source: source,
		seen:   make(map[string]bool),
	}

	for _, rawLine := range strings.Split(rulesText, "\n") {
		line := strings.TrimRight(rawLine, " \t\r")
		if err := p.scanLine(line); err != nil {
			return nil, err
		}
	}
	if err := p.flush(); err != nil {
		return nil, err
	}

	if len(p.out) == 0 {
		return nil, kernelerrors.New(kernelerrors.ErrorTypeEmpty,
			"no validation rules parsed from %s", source)
	}

	sort.Slice(p.out, func(i, j int) bool { return p.out[i].ID < p.out[j].ID })
	return p.out, nil
}

func (p *parser) scanLine(line string) error {
	if header := ruleHeaderRe.FindStringSubmatch(line); header != nil {
		if err := p.flush(); err != nil {
			return err
		}
		p.gateBlock = false
		p.current = &ValidationRule{
			ID:      header[1],
			Title:   strings.TrimSpace(header[2]),
			GateIDs: []string{},
			Fields:  make(map[string][]string),
		}
		return nil
	}

	if p.current == nil {
		return nil
	}

	if field := fieldRe.FindStringSubmatch(strings.TrimSpace(line)); field != nil {
		p.gateBlock = false
		return p.applyField(strings.TrimSpace(field[1]), strings.TrimSpace(field[2]), line)
	}

	if p.gateBlock {
		return p.scanGateLine(line)
	}

	// Mirror of the anchor fallback: a plain line may still carry the
	// contract reference; first hit wins.
	if p.current.ContractRef == "" {
		if r := ref.ExtractContractRef(line); r != "" {
			p.current.ContractRef = r
		}
	}
	return nil
}

// applyField dispatches a "**Label:** value" line on the normalized label.
func (p *parser) applyField(label, value, line string) error {
	labelLower := strings.ToLower(label)

	switch labelLower {
	case "contract ref", "contract citation":
		if r := ref.ExtractContractRef(value); r != "" {
			p.current.ContractRef = r
		} else {
			p.current.ContractRef = value
		}
		return nil
	case "gate id":
		if value == "" {
			p.gateBlock = true
			return nil
		}
		ids := gateIDRe.FindAllString(value, -1)
		if len(ids) == 0 {
			return &kernelerrors.Error{
				Type:    kernelerrors.ErrorTypeGate,
				Message: "gate id field missing VR-XXX value: " + line,
				Source:  p.source,
				Record:  p.current.ID,
				Line:    line,
			}
		}
		p.current.GateIDs = append(p.current.GateIDs, ids...)
		return nil
	}

	for _, src := range statementPriority {
		if labelLower != src.label {
			continue
		}
		if src.overwrite || p.current.Rule == "" {
			p.current.Rule = value
		}
		return nil
	}

	if value != "" {
		key := NormalizeFieldName(label)
		p.current.Fields[key] = append(p.current.Fields[key], value)
	}
	return nil
}

// scanGateLine consumes one line of a bare gate-id list block. The block ends
// implicitly at the next field or header line, not on blank lines.
func (p *parser) scanGateLine(line string) error {
	if ids := gateIDRe.FindAllString(line, -1); len(ids) > 0 {
		p.current.GateIDs = append(p.current.GateIDs, ids...)
		return nil
	}
	stripped := strings.TrimSpace(line)
	if stripped != "" && (strings.HasPrefix(stripped, "-") || strings.HasPrefix(stripped, "*")) {
		return &kernelerrors.Error{
			Type:    kernelerrors.ErrorTypeGate,
			Message: "gate id list entry missing VR-XXX value: " + line,
			Source:  p.source,
			Record:  p.current.ID,
			Line:    line,
		}
	}
	return nil
}

// flush validates and appends the rule under construction. It is called at
// every header line and once after the scan completes.
func (p *parser) flush() error {
	if p.current == nil {
		return nil
	}
	r := *p.current
	p.current = nil

	var missing []string
	for _, field := range []struct{ name, value string }{
		{"id", r.ID},
		{"title", r.Title},
		{"contract_ref", r.ContractRef},
		{"rule", r.Rule},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		id := r.ID
		if id == "" {
			id = "<unknown>"
		}
		return kernelerrors.New(kernelerrors.ErrorTypeStructural,
			"validation rule %s missing fields: %s", id, strings.Join(missing, ", "))
	}
	if p.seen[r.ID] {
		return kernelerrors.New(kernelerrors.ErrorTypeDuplicate,
			"duplicate validation rule id: %s", r.ID)
	}
	p.seen[r.ID] = true

	r.GateIDs = dedupPreserve(r.GateIDs)
	for key, values := range r.Fields {
		r.Fields[key] = dedupPreserve(values)
	}
	r.Enforcement = Enforcement{Rule: r.Rule}

	p.out = append(p.out, r)
	return nil
}
