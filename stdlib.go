// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import _ "embed"

// InitTemplate is the starter Jakefile written out by `jake init`.
// Adapted from mk's stdlib.go, which embedded a std/*.mk library and an
// agents-guide.md that weren't present in this repository; this embed
// points at content that actually exists here instead.
//
//go:embed templates/init.jake
var InitTemplate string
