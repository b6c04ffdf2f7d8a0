// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package agent

import "strings"

// summaryMaxLen bounds the generated digest; longer digests are truncated
// and marked with an ellipsis.
const summaryMaxLen = 120

// GenerateSummary derives a short free-text summary for drafts that lack
// one.
//
// # Description
//
// Builds an ordered digest by concatenating present fields in fixed
// priority order: HCP name, interaction type, topics, materials, outcome.
// When no structured field is present it falls back to the raw user
// message. Drafts that already carry a summary are returned unchanged, so
// the generator is idempotent and a non-empty summary is never regenerated.
//
// Inputs:
//
//	d - Current draft, passed by value
//	rawInput - The original user message, used as fallback material
//
// Outputs:
//
//	Draft - A new draft with Summary populated
func GenerateSummary(d Draft, rawInput string) Draft {
	if d.Summary != "" {
		return d
	}

	var parts []string
	add := func(label, v string) {
		if v != "" {
			parts = append(parts, label+": "+v)
		}
	}
	add("HCP", d.HCPName)
	add("Type", d.InteractionType)
	add("Topics", d.Topics)
	add("Materials", d.MaterialsDistributed)
	add("Outcome", d.Outcomes)

	digest := strings.Join(parts, ". ")
	if len(parts) == 0 {
		digest = strings.TrimSpace(rawInput)
	}
	d.Summary = truncateDigest(digest)
	return d
}

// truncateDigest bounds a digest to summaryMaxLen characters, appending an
// ellipsis marker when truncated. Counted in runes so multi-byte characters
// are never split.
func truncateDigest(s string) string {
	runes := []rune(s)
	if len(runes) <= summaryMaxLen {
		return s
	}
	return string(runes[:summaryMaxLen]) + "..."
}
