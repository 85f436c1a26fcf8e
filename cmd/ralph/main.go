// Ralph is the fail-closed contract kernel for audit pipelines.
//
// It parses anchors and validation rules out of semi-structured project
// documents, cross-checks every contract reference against the master
// contract document, and refuses to produce output when anything is
// malformed, duplicated, or unresolvable.
//
// Usage:
//
//	# Parse and validate the anchors document
//	ralph anchors --file specs/ANCHORS.md
//
//	# Parse and validate the validation rules document
//	ralph rules --file specs/VALIDATION_RULES.md
//
//	# Look up a contract section by reference
//	ralph contract lookup §3.2
//
//	# Generate a release certification
//	ralph certify --metrics gate_metrics.json --window 24h
//
//	# Summarize audit run costs
//	ralph report
//
//	# Start the HTTP tool server
//	ralph serve
package main

func main() {
	Execute()
}
