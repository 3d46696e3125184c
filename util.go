// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"os/exec"
	"path/filepath"
	"strings"
)

// multiPatternGlob expands a space-separated list of glob patterns,
// adapted from mk's wildcardGlob (util.go) for cache.go's
// expandGlobPattern: each space-separated pattern is globbed independently and
// a pattern matching nothing degrades to no results rather than an
// error, consistent with filepath.Glob's own behavior.
func multiPatternGlob(patterns string) ([]string, error) {
	var all []string
	for _, p := range strings.Fields(patterns) {
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, err
		}
		all = append(all, matches...)
	}
	return all, nil
}

// runShellCapture runs cmd and returns its captured stdout, trimmed of
// a single trailing newline. Adapted from mk's runShellCapture
// (util.go, originally mk's fingerprint-command runner) and reused
// here to back the `{{shell(cmd)}}` function.
func runShellCapture(cmd string) (string, error) {
	out, err := exec.Command("sh", "-c", cmd).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}
