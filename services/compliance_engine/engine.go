// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package compliance_engine

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ManiGOo/hcp-crm-task/services/compliance_engine/enforcement"
)

// Verdict reason strings. These are part of the reply contract: the warning
// text is prepended verbatim to whatever reply the action router composes.
const (
	ReasonWarning   = "Compliance WARNING: Review with QA before logging."
	ReasonCompliant = "All topics compliant."
)

// ComplianceEngine serves as the entry point for restricted-topic checks.
// It holds the compiled term patterns and provides pure check methods.
type ComplianceEngine struct {
	Terms []RestrictedTerm
}

// NewComplianceEngine initializes a new instance of the ComplianceEngine.
//
// It takes no arguments: the term definitions are embedded in the binary via
// the enforcement package. It unmarshals the embedded YAML and compiles all
// term patterns. Returns an error if the embedded YAML is malformed.
func NewComplianceEngine() (*ComplianceEngine, error) {
	var termsFile RestrictedTermsFile
	if err := yaml.Unmarshal(enforcement.RestrictedTopicPatterns, &termsFile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal the embedded policy file: %w", err)
	}
	if err := termsFile.CompilePatterns(); err != nil {
		return nil, fmt.Errorf("failed to compile a restricted-term pattern: %w", err)
	}
	return &ComplianceEngine{Terms: termsFile.RestrictedTerms}, nil
}

// CheckTopics scans discussion-topic text for restricted terms.
//
// It is a total function: empty topics are compliant, and no input can make
// it fail. Matching is case-insensitive substring matching over the whole
// text. The first verdict form ({warning, reason}) is stable contract; use
// ScanTopics when per-term findings are needed for auditing.
func (e *ComplianceEngine) CheckTopics(topics string) Verdict {
	for _, term := range e.Terms {
		if term.compiledPattern.MatchString(topics) {
			return Verdict{Warning: true, Reason: ReasonWarning}
		}
	}
	return Verdict{Warning: false, Reason: ReasonCompliant}
}

// ScanTopics performs a detailed audit of topic text, capturing every
// restricted term that matched. Intended for audit logging, not for the
// pipeline's pass/fail decision.
func (e *ComplianceEngine) ScanTopics(topics string) []TermFinding {
	var findings []TermFinding
	for _, term := range e.Terms {
		if match := term.compiledPattern.FindString(topics); match != "" {
			findings = append(findings, TermFinding{
				TermId:         term.Id,
				MatchedContent: match,
				Description:    term.Description,
			})
		}
	}
	return findings
}
