// Package anchors parses anchor documents into validated Anchor records.
//
// An anchors document is loosely formatted free text. Each anchor starts at a
// "## Anchor-NNN: Title" header and must carry a contract reference, either
// inline as a trailing "(Contract §X.Y)" suffix or discovered on a later line.
// Every reference is cross-validated against the master contract document and
// resolved to an exact line number. The parse is fail-closed: any structural
// defect invalidates the entire batch.
package anchors

import (
	"regexp"
	"sort"
	"strings"

	kernelerrors "ralph-hq/ralph/pkg/kernel/errors"
	"ralph-hq/ralph/pkg/kernel/ref"
)

var (
	anchorHeaderRe = regexp.MustCompile(`^##\s+(Anchor-[0-9]+):\s*(.+)$`)
	contractRefRe  = regexp.MustCompile(`\(Contract\s+([^\)]+)\)\s*$`)
)

// Proof records where an anchor's contract reference resolved in the master
// contract document.
type Proof struct {
	Section string `json:"section"`
	Line    int    `json:"line"` // 1-based
}

// Anchor is a named claim that a contract section has a proof location.
type Anchor struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	ContractRef string `json:"contract_ref"`
	Proof       Proof  `json:"proof"`
}

// parser carries the state of a single anchors-document scan.
type parser struct {
	contractLines []string
	source        string

	current *Anchor
	seen    map[string]bool
	out     []Anchor
}

// Parse scans anchorsText and returns the deduplicated, id-sorted list of
// anchors, each resolved against contractLines. source names the document in
// diagnostics. The first defect aborts the whole parse with a typed
// *kernelerrors.Error; there is no partial result.
func Parse(anchorsText string, contractLines []string, source string) ([]Anchor, error) {
	p := &parser{
		contractLines: contractLines,
		source:        source,
		seen:          make(map[string]bool),
	}

	for _, rawLine := range strings.Split(anchorsText, "\n") {
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
			"no anchors parsed from %s", source)
	}

	sort.Slice(p.out, func(i, j int) bool { return p.out[i].ID < p.out[j].ID })
	return p.out, nil
}

func (p *parser) scanLine(line string) error {
	header := anchorHeaderRe.FindStringSubmatch(strings.TrimSpace(line))
	if header != nil {
		if err := p.flush(); err != nil {
			return err
		}
		return p.startAnchor(header[1], header[2], line)
	}

	if p.current == nil {
		return nil
	}

	// Contract ref may trail the header on a later line; first hit wins.
	if p.current.ContractRef == "" {
		if r := ref.ExtractContractRef(line); r != "" {
			p.current.ContractRef = r
		}
	}
	return nil
}

func (p *parser) startAnchor(id, rest, line string) error {
	rest = strings.TrimSpace(rest)
	contractRef := ""
	title := rest
	if m := contractRefRe.FindStringSubmatchIndex(rest); m != nil {
		contractRef = strings.TrimSpace(rest[m[2]:m[3]])
		title = strings.TrimRight(rest[:m[0]], " \t")
	}
	if title == "" {
		return &kernelerrors.Error{
			Type:    kernelerrors.ErrorTypeStructural,
			Message: "anchor " + id + " missing title: " + line,
			Source:  p.source,
			Record:  id,
			Line:    line,
		}
	}
	p.current = &Anchor{ID: id, Title: title, ContractRef: contractRef}
	return nil
}

// flush validates and appends the anchor under construction. It is called at
// every header line and once after the scan completes.
func (p *parser) flush() error {
	if p.current == nil {
		return nil
	}
	a := *p.current
	p.current = nil

	if a.ContractRef == "" {
		return kernelerrors.New(kernelerrors.ErrorTypeStructural,
			"anchor %s missing contract ref in %s", a.ID, p.source)
	}
	if p.seen[a.ID] {
		return kernelerrors.New(kernelerrors.ErrorTypeDuplicate,
			"duplicate anchor id: %s", a.ID)
	}
	p.seen[a.ID] = true

	lineNumber := ref.FindSectionLine(p.contractLines, a.ContractRef)
	if lineNumber == 0 {
		return kernelerrors.New(kernelerrors.ErrorTypeReference,
			"anchor %s contract ref not found in contract document: %s", a.ID, a.ContractRef)
	}

	a.Proof = Proof{Section: a.ContractRef, Line: lineNumber}
	p.out = append(p.out, a)
	return nil
}
