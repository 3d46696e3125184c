// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"log/slog"
	"os"
)

// NewLogger builds the structured logger the Orchestrator uses for
// internal diagnostics (parse summary, skipped .env loads, cache
// persistence failures) — distinct from the user-facing banner/error
// output in ui.go/errors.go. Grounded on kraklabs-cie's
// internal/bootstrap constructor-injected logger pattern: a non-nil
// logger is returned as is; nil builds a text handler on stderr at
// warn level (debug level when verbose).
func NewLogger(verbose bool, logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
