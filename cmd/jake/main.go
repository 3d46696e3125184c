// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

// Command jake runs recipes declared in a Jakefile.
//
// Usage:
//
//	jake [flags] [recipe] [args...]
//	jake init
package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/helgesverre/jake"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		jakefile    = flag.StringP("jakefile", "f", "Jakefile", "path to the Jakefile to read")
		dryRun      = flag.Bool("dry-run", false, "print commands without executing them")
		verbose     = flag.BoolP("verbose", "v", false, "verbose diagnostic output")
		yes         = flag.Bool("yes", false, "auto-answer @confirm prompts")
		jobs        = flag.Int("jobs", 0, "parallel worker count (0 = sequential, N<0 = auto)")
		watch       = flag.Bool("watch", false, "enable watch mode (affects @watch semantics only)")
		force       = flag.BoolP("force", "B", false, "ignore the content cache and rebuild unconditionally")
		list        = flag.Bool("list", false, "list declared recipes and exit")
		summary     = flag.Bool("summary", false, "print a one-line summary per recipe and exit")
		show        = flag.String("show", "", "print the resolved body of a recipe and exit")
		completions = flag.String("completions", "", "print a shell completion script (bash|zsh) and exit")
		noColor     = flag.Bool("no-color", false, "disable colored output")
		jsonOutput  = flag.Bool("json", false, "emit machine-readable JSON on error")
		showVersion = flag.Bool("version", false, "print version information and exit")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `jake - a directive-driven task runner

Usage:
  jake [flags] [recipe] [arg=value|positional ...]
  jake init

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  jake build
  jake deploy env=staging
  jake --jobs 4 test
  jake --list
  jake --show build
  jake --completions bash > /etc/bash_completion.d/jake
`)
	}
	flag.Parse()

	jake.InitColors(*noColor)

	if *showVersion {
		fmt.Printf("jake version %s (%s)\n", version, commit)
		return
	}

	args := flag.Args()

	if len(args) == 1 && args[0] == "init" {
		runInit()
		return
	}

	src, err := os.ReadFile(*jakefile)
	if err != nil {
		jake.FatalError(jake.NewParseErr(fmt.Errorf("read %s: %w", *jakefile, err)), *jsonOutput)
	}
	file, err := jake.Parse(src, *jakefile)
	if err != nil {
		jake.FatalError(jake.NewParseErr(err), *jsonOutput)
	}
	if err := jake.ResolveImports(file, *jakefile); err != nil {
		jake.FatalError(jake.NewParseErr(err), *jsonOutput)
	}

	switch {
	case *list:
		for _, r := range jake.ListRecipes(file) {
			fmt.Println(formatRecipeListLine(r))
		}
		return
	case *summary:
		for _, r := range jake.ListRecipes(file) {
			fmt.Printf("%-20s %s\n", r.Name, firstLine(r.Description))
		}
		return
	case *show != "":
		r := jake.FindRecipe(file, *show)
		if r == nil {
			jake.FatalError(jake.NewRecipeNotFoundErr(*show), *jsonOutput)
		}
		printRecipeBody(r)
		return
	case *completions != "":
		names := make([]string, 0, len(file.Recipes))
		for _, r := range file.Recipes {
			names = append(names, r.Name)
		}
		if err := jake.WriteCompletion(os.Stdout, *completions, names); err != nil {
			jake.FatalError(err, *jsonOutput)
		}
		return
	}

	recipeName, recipeArgs := "", []string(nil)
	if len(args) > 0 {
		recipeName, recipeArgs = args[0], args[1:]
	}

	cfg := jake.RunConfig{
		JakefilePath: *jakefile,
		Recipe:       recipeName,
		Args:         recipeArgs,
		DryRun:       *dryRun,
		Verbose:      *verbose,
		Yes:          *yes,
		Force:        *force,
		Parallel:     *jobs != 0,
		Jobs:         *jobs,
		WatchMode:    *watch,
	}

	o := jake.NewOrchestrator(nil)
	result, runErr := o.Execute(cfg)
	if runErr != nil {
		jake.FatalError(runErr, *jsonOutput)
	}
	if *verbose && cfg.Parallel {
		fmt.Fprintf(os.Stderr, "jake: %d recipes, max parallelism %d, critical path %d\n",
			result.Stats.TotalRecipes, result.Stats.MaxParallel, result.Stats.CriticalPathLength)
	}
}

func runInit() {
	if _, err := os.Stat("Jakefile"); err == nil {
		fmt.Fprintln(os.Stderr, "jake: Jakefile already exists, not overwriting")
		os.Exit(1)
	}
	if err := os.WriteFile("Jakefile", []byte(jake.InitTemplate), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "jake: %v\n", err)
		os.Exit(1)
	}
	jake.Success("wrote Jakefile")
}

func formatRecipeListLine(r *jake.Recipe) string {
	name := r.Name
	if r.IsDefault {
		name += " (default)"
	}
	if len(r.Aliases) > 0 {
		name += " [" + strings.Join(r.Aliases, ", ") + "]"
	}
	return name
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func printRecipeBody(r *jake.Recipe) {
	fmt.Printf("%s:\n", r.Name)
	for _, c := range r.Commands {
		if c.Directive != nil {
			fmt.Printf("  @%s\n", strings.Join(c.Directive.Args, " "))
			continue
		}
		fmt.Printf("  %s\n", c.Line)
	}
}
