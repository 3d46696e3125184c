// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Exit codes, per spec.md §7's error taxonomy.
const (
	ExitSuccess    = 0
	ExitParse      = 1 // malformed Jakefile: lexer/parser diagnostics
	ExitRecipe     = 2 // named recipe/target not found
	ExitRun        = 3 // a recipe's command exited non-zero
	ExitNeeds      = 4 // a `@needs`/recipe-level prerequisite command is missing
	ExitConfirm    = 5 // user declined an `@confirm` prompt
	ExitTimeout    = 6 // a recipe exceeded its configured timeout
	ExitCycle      = 7 // a dependency cycle was detected
	ExitEnvMissing = 8 // a `@require`d environment variable is unset
	ExitInternal   = 10
)

// UserError is Jake's structured, end-user-facing error: a summary of
// what went wrong, a cause explaining why, and a suggested fix,
// matching the three-part message spec.md §7 requires. Grounded on
// kraklabs-cie's internal/errors.UserError almost directly.
type UserError struct {
	Message  string
	Cause    string
	Fix      string
	ExitCode int
	Err      error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UserError) Unwrap() error { return e.Err }

func newUserError(exitCode int, msg, cause, fix string, err error) *UserError {
	return &UserError{Message: msg, Cause: cause, Fix: fix, ExitCode: exitCode, Err: err}
}

// NewParseErr wraps a lexer/parser diagnostic.
func NewParseErr(err error) *UserError {
	return newUserError(ExitParse, "Jakefile could not be parsed", err.Error(),
		"check the reported line:column for a syntax error", err)
}

// NewRecipeNotFoundErr reports a missing recipe/target name.
func NewRecipeNotFoundErr(name string) *UserError {
	return newUserError(ExitRecipe, fmt.Sprintf("no recipe named %q", name), "",
		"run: jake --list to see available recipes", nil)
}

// NewRunErr wraps a recipe command's non-zero exit.
func NewRunErr(recipe string, err error) *UserError {
	return newUserError(ExitRun, fmt.Sprintf("recipe %q failed", recipe), err.Error(),
		fmt.Sprintf("run: jake %s --verbose for full output", recipe), err)
}

// NeedsError reports a missing external command required by `@needs`
// or a recipe's needs metadata.
type NeedsError struct {
	Command     string
	Hint        string
	InstallTask string
}

func (e *NeedsError) Error() string {
	return fmt.Sprintf("required command %q not found", e.Command)
}

// NewNeedsErr converts a NeedsError into the user-facing taxonomy.
func NewNeedsErr(ne *NeedsError) *UserError {
	fix := ne.Hint
	if fix == "" {
		fix = fmt.Sprintf("install %q and ensure it is on PATH", ne.Command)
	}
	if ne.InstallTask != "" {
		fix += fmt.Sprintf(" (or run: jake %s)", ne.InstallTask)
	}
	return newUserError(ExitNeeds, fmt.Sprintf("missing required command %q", ne.Command), "", fix, ne)
}

// NewConfirmDeclinedErr reports that the user answered "no" to an
// `@confirm` prompt.
func NewConfirmDeclinedErr(recipe string) *UserError {
	return newUserError(ExitConfirm, fmt.Sprintf("recipe %q was not confirmed", recipe), "user declined the @confirm prompt",
		"re-run and answer y, or pass --yes to skip confirmation", nil)
}

// NewTimeoutErr wraps a TimeoutError with the owning recipe's name.
func NewTimeoutErr(recipe string, err error) *UserError {
	return newUserError(ExitTimeout, fmt.Sprintf("recipe %q timed out", recipe), err.Error(),
		"increase the recipe's timeout or investigate why the command hangs", err)
}

// NewCycleErr reports a dependency cycle.
func NewCycleErr(cyclePath []string) *UserError {
	return newUserError(ExitCycle, "dependency cycle detected", strings.Join(cyclePath, " -> "),
		"break the cycle by removing one of the listed dependencies", nil)
}

// NewEnvMissingErr reports a `@require`d environment variable that is
// unset.
func NewEnvMissingErr(name string) *UserError {
	return newUserError(ExitEnvMissing, fmt.Sprintf("required environment variable %q is not set", name), "",
		fmt.Sprintf("export %s=... or add it to a .env file loaded via @dotenv", name), nil)
}

var (
	colorErr   = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format renders the three-part message for terminal display, honoring
// NO_COLOR. Grounded on kraklabs-cie's UserError.Format.
func (e *UserError) Format(noColor bool) string {
	orig := color.NoColor
	defer func() { color.NoColor = orig }()
	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var b strings.Builder
	b.WriteString(colorErr.Sprint("Error: "))
	b.WriteString(e.Message)
	b.WriteString("\n")
	if e.Cause != "" {
		b.WriteString(colorCause.Sprint("Cause: "))
		b.WriteString(e.Cause)
		b.WriteString("\n")
	}
	if e.Fix != "" {
		b.WriteString(colorFix.Sprint("Fix:   "))
		b.WriteString(e.Fix)
		b.WriteString("\n")
	}
	return b.String()
}

// ErrorJSON is the machine-readable rendering of a UserError, for
// `jake --json` error reporting.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{Error: e.Message, Cause: e.Cause, Fix: e.Fix, ExitCode: e.ExitCode}
}

// FatalError prints err (as colored text or JSON) and exits with the
// matching code. A nil err is ignored and FatalError returns.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}
	if ue, ok := err.(*UserError); ok {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			_ = enc.Encode(ue.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ue.Format(false))
		}
		os.Exit(ue.ExitCode)
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(ExitInternal)
}
