// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

/*
This file serves as the bridge between the build system and the runtime logic.
It utilizes the Go embed package to bake the restricted_topics.yaml file
directly into the compiled binary, so the compliance rules are immutable at
runtime and travel with the executable.
*/

package enforcement

import (
	_ "embed"
)

// RestrictedTopicPatterns holds the raw byte content of the
// 'restricted_topics.yaml' file.
//
// Populated at compile-time via the Go 'embed' directive so the compliance
// policy cannot be tampered with on the host filesystem without recompiling
// the application.
//
// Usage:
//
//	// Pass these bytes directly to yaml.Unmarshal
//	err := yaml.Unmarshal(enforcement.RestrictedTopicPatterns, &targetStruct)
//
//go:embed restricted_topics.yaml
var RestrictedTopicPatterns []byte
