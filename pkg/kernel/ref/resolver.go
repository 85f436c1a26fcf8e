// Package ref resolves textual contract references.
//
// A canonical contract reference is a "§"-prefixed dotted path such as
// "§2.2.3". Documents frequently carry the looser form "Contract 2.2.3";
// both are recognized, with the "§" form always taking priority.
package ref

import (
	"regexp"
	"strings"
)

var (
	sectionRefRe  = regexp.MustCompile(`§\s*[0-9]+(?:\.[0-9A-Za-z]+)*`)
	contractRefRe = regexp.MustCompile(`Contract\s+([0-9]+(?:\.[0-9A-Za-z]+)*)`)
)

// ExtractContractRef searches text for a contract reference and returns it in
// canonical "§"-prefixed form with internal spaces stripped. A "§" reference
// wins over a "Contract N" reference when both are present. Returns "" when
// text contains neither form.
func ExtractContractRef(text string) string {
	if m := sectionRefRe.FindString(text); m != "" {
		return strings.ReplaceAll(m, " ", "")
	}
	if m := contractRefRe.FindStringSubmatch(text); m != nil {
		return "§" + m[1]
	}
	return ""
}

// FindSectionLine returns the 1-based index of the first line containing
// sectionRef, or 0 if no line matches. Both the verbatim reference and, for
// "§"-prefixed references, the unprefixed form are accepted.
//
// The match is a plain substring search, not a structural heading match: a
// reference appearing anywhere in running prose satisfies it, and "§2.2" also
// matches a line containing "§2.20". Downstream consumers depend on this
// resolution set, so the match is deliberately not boundary-aware.
func FindSectionLine(lines []string, sectionRef string) int {
	targets := []string{sectionRef}
	if strings.HasPrefix(sectionRef, "§") {
		targets = append(targets, strings.TrimPrefix(sectionRef, "§"))
	}
	for idx, line := range lines {
		for _, target := range targets {
			if target != "" && strings.Contains(line, target) {
				return idx + 1
			}
		}
	}
	return 0
}
