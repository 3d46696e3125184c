// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Pre-configured color instances for Jake's terminal output. Grounded
// on kraklabs-cie's internal/ui package.
var (
	colorSuccess = color.New(color.FgGreen)
	colorWarn    = color.New(color.FgYellow)
	colorInfo    = color.New(color.FgCyan)
	colorBold    = color.New(color.Bold)
	colorDim     = color.New(color.Faint)
)

// InitColors configures global color output, honoring both an
// explicit --no-color flag and the NO_COLOR / CI environment
// convention.
func InitColors(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" || os.Getenv("CI") != "" {
		color.NoColor = true
	}
}

// Banner prints "jake: building <recipe>" the way mk's executeRecipe
// banners a build, but to the recipe's own color palette.
func Banner(recipeName string) {
	fmt.Fprintln(os.Stderr, colorBold.Sprintf("jake:")+" building "+colorInfo.Sprint(recipeName))
}

// Success prints a green success line.
func Success(msg string) {
	fmt.Fprintln(os.Stderr, colorSuccess.Sprint("✓ ")+msg)
}

// Warn prints a yellow warning line.
func Warn(msg string) {
	fmt.Fprintln(os.Stderr, colorWarn.Sprint("! ")+msg)
}

// Dim prints a faint, less prominent line (e.g. a skipped/up-to-date
// recipe notice).
func Dim(msg string) {
	fmt.Fprintln(os.Stderr, colorDim.Sprint(msg))
}
