// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
package compliance_engine

import (
	"fmt"
	"regexp"
)

// RestrictedTermsFile mirrors the layout of the embedded YAML policy file.
type RestrictedTermsFile struct {
	RestrictedTerms []RestrictedTerm `yaml:"restricted_terms"`
}

// RestrictedTerm is one term that may not appear in logged discussion topics.
type RestrictedTerm struct {
	Id          string `yaml:"id"`
	Term        string `yaml:"term"`
	Description string `yaml:"description"`

	compiledPattern *regexp.Regexp `yaml:"-"`
}

// CompilePatterns compiles each term into a case-insensitive substring
// pattern. Terms are regex-quoted, so "off-label" matches literally.
func (f *RestrictedTermsFile) CompilePatterns() error {
	for i := range f.RestrictedTerms {
		t := &f.RestrictedTerms[i]
		if t.Term == "" {
			return fmt.Errorf("restricted term %q has an empty term", t.Id)
		}
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(t.Term))
		if err != nil {
			return fmt.Errorf("failed to compile pattern for term %q: %w", t.Id, err)
		}
		t.compiledPattern = re
	}
	return nil
}

// Verdict is the outcome of a compliance check over discussion topics.
// It is attached to the draft before the action router composes its reply.
type Verdict struct {
	Warning bool   `json:"warning"`
	Reason  string `json:"reason"`
}

// TermFinding records one restricted-term match for audit logging.
type TermFinding struct {
	TermId         string `json:"term_id"`
	MatchedContent string `json:"matched_content"`
	Description    string `json:"description"`
}
