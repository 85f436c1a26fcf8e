// Package contract provides a line-indexed view of the master contract
// document: the authoritative text that every anchor and validation rule is
// cross-validated against. It extracts the contract version from the fixed
// top-of-file header and offers section lookup and full-text search over the
// document.
package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	kernelerrors "ralph-hq/ralph/pkg/kernel/errors"
)

// versionRe matches the fixed version header at the top of the contract
// document, e.g. "# **Version: 3.1**". First match wins.
var versionRe = regexp.MustCompile(`^#\s+\*\*Version:\s*([0-9]+(?:\.[0-9]+)*)`)

// headingRe matches markdown headings for section boundary detection.
var headingRe = regexp.MustCompile(`^(#{1,6})\s`)

// maxLookupChars bounds the content returned by Lookup.
const maxLookupChars = 8000

// maxSearchMatches bounds the matches returned by Search.
const maxSearchMatches = 20

// Document is an immutable, line-indexed contract document.
type Document struct {
	name    string
	lines   []string
	version string
}

// Load parses text as a contract document. name labels the document in
// diagnostics. A missing version header is a fatal error.
func Load(text, name string) (*Document, error) {
	lines := strings.Split(text, "\n")
	version := ""
	for _, line := range lines {
		if m := versionRe.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			version = m[1]
			break
		}
	}
	if version == "" {
		return nil, kernelerrors.New(kernelerrors.ErrorTypeVersion,
			"contract version not found in %s", name)
	}
	return &Document{name: name, lines: lines, version: version}, nil
}

// LoadFile reads and parses the contract document at path.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, kernelerrors.New(kernelerrors.ErrorTypeIO,
			"failed to read contract document: %v", err)
	}
	return Load(string(data), filepath.Base(path))
}

// Name returns the document label used in diagnostics.
func (d *Document) Name() string { return d.name }

// Version returns the contract version string.
func (d *Document) Version() string { return d.version }

// Lines returns the document's lines. The slice must not be mutated.
func (d *Document) Lines() []string { return d.lines }

// Lookup returns the content of the section with the given dotted number
// (e.g. "2.2", "2.2.3"): the heading line plus everything up to the next
// heading of equal or higher level. Content longer than maxLookupChars is
// truncated with a marker.
func (d *Document) Lookup(section string) (string, error) {
	// Match headings like "## 2.2 PolicyGuard" or "### **2.2.3** Axis
	// Resolver". The captured number may extend deeper than the requested
	// section; the equality check below rejects those.
	sectionRe, err := regexp.Compile(`^(#{1,6})\s+\*?\*?(` + regexp.QuoteMeta(section) + `(?:\.\d+)*)\b`)
	if err != nil {
		return "", fmt.Errorf("invalid section %q: %w", section, err)
	}

	startIdx := -1
	startLevel := 0
	for i, line := range d.lines {
		m := sectionRe.FindStringSubmatch(line)
		if m != nil && m[2] == section {
			startIdx = i
			startLevel = len(m[1])
			break
		}
	}
	if startIdx == -1 {
		return "", fmt.Errorf("section %q not found in %s", section, d.name)
	}

	endIdx := len(d.lines)
	for i := startIdx + 1; i < len(d.lines); i++ {
		if m := headingRe.FindStringSubmatch(d.lines[i]); m != nil {
			if len(m[1]) <= startLevel {
				endIdx = i
				break
			}
		}
	}

	content := strings.Join(d.lines[startIdx:endIdx], "\n")
	if len(content) > maxLookupChars {
		content = content[:maxLookupChars] + "\n\n... [truncated, section too long]"
	}
	return content, nil
}

// Match is a single search hit with surrounding context.
type Match struct {
	// Line is the 1-based line number of the matching line.
	Line int `json:"line"`
	// Text is the matching line itself.
	Text string `json:"text"`
	// Snippet is the match with context lines, the matching line marked
	// with ">>>".
	Snippet string `json:"snippet"`
}

// Search runs a case-insensitive regexp search over the document and returns
// up to maxSearchMatches matches with contextLines lines of context around
// each.
func (d *Document) Search(query string, contextLines int) ([]Match, error) {
	pattern, err := regexp.Compile(`(?i)` + query)
	if err != nil {
		return nil, fmt.Errorf("invalid search pattern %q: %w", query, err)
	}

	var matches []Match
	for i, line := range d.lines {
		if !pattern.MatchString(line) {
			continue
		}
		start := i - contextLines
		if start < 0 {
			start = 0
		}
		end := i + contextLines + 1
		if end > len(d.lines) {
			end = len(d.lines)
		}
		var snippet []string
		for j := start; j < end; j++ {
			prefix := "    "
			if j == i {
				prefix = ">>> "
			}
			snippet = append(snippet, fmt.Sprintf("%sL%d: %s", prefix, j+1, d.lines[j]))
		}
		matches = append(matches, Match{
			Line:    i + 1,
			Text:    line,
			Snippet: strings.Join(snippet, "\n"),
		})
		if len(matches) >= maxSearchMatches {
			break
		}
	}
	return matches, nil
}
