// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// RunConfig collects the external inputs a single jake invocation
// needs, so cmd/jake stays a thin flag-parsing shell per spec.md's
// external-collaborator boundary.
type RunConfig struct {
	JakefilePath string
	Recipe       string
	Args         []string

	DryRun    bool
	Verbose   bool
	Yes       bool
	Force     bool
	Parallel  bool
	Jobs      int
	WatchMode bool

	Logger *slog.Logger
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// Orchestrator runs the full parse -> resolve-imports -> validate ->
// dispatch -> persist-cache pipeline. Grounded on mk's cmd/mk/main.go
// run() almost directly (open file, parse, build graph/state, pick
// default target, dispatch to executor, save state on exit),
// generalized into a reusable type so cmd/jake/main.go is just a flag
// shell around it.
type Orchestrator struct {
	log *slog.Logger
}

func NewOrchestrator(log *slog.Logger) *Orchestrator {
	return &Orchestrator{log: NewLogger(false, log)}
}

// Result summarizes a completed run for the caller (exit-code mapping
// and --verbose summary printing live in cmd/jake).
type Result struct {
	Stats ParallelStats // zero value when run sequentially
}

func (o *Orchestrator) Execute(cfg RunConfig) (Result, error) {
	src, err := os.ReadFile(cfg.JakefilePath)
	if err != nil {
		return Result{}, NewParseErr(fmt.Errorf("read %s: %w", cfg.JakefilePath, err))
	}

	file, err := Parse(src, cfg.JakefilePath)
	if err != nil {
		return Result{}, NewParseErr(err)
	}
	o.log.Debug("parsed jakefile", "recipes", len(file.Recipes), "imports", len(file.Imports))

	if err := resolveImports(file, cfg.JakefilePath); err != nil {
		return Result{}, NewParseErr(err)
	}

	jakeVars := map[string]string{}
	for _, v := range file.Variables {
		jakeVars[v.Name] = v.Value
	}
	env := NewEnvironment(os.Environ(), jakeVars)

	if err := o.applyTopLevelDirectives(file, env, cfg); err != nil {
		return Result{}, err
	}

	recipeName := cfg.Recipe
	if recipeName == "" {
		recipeName = defaultRecipeName(file)
		if recipeName == "" {
			return Result{}, NewRecipeNotFoundErr("(no recipe given and no default recipe declared)")
		}
	}

	dir := filepath.Dir(cfg.JakefilePath)
	cachePath := CacheFile(dir)
	cache := LoadCache(cachePath)

	opts := ExecOptions{
		DryRun:    cfg.DryRun,
		Verbose:   cfg.Verbose,
		Yes:       cfg.Yes,
		WatchMode: cfg.WatchMode,
		Force:     cfg.Force,
	}
	if cfg.Stdin != nil {
		opts.Stdin = cfg.Stdin
	}
	if cfg.Stdout != nil {
		opts.Stdout = cfg.Stdout
	}
	if cfg.Stderr != nil {
		opts.Stderr = cfg.Stderr
	}

	var result Result
	if cfg.Parallel {
		pe := NewParallelExecutor(file, env, cache, opts, cfg.Jobs)
		stats, runErr := pe.Run(recipeName, cfg.Args)
		result.Stats = stats
		err = runErr
	} else {
		seq := NewExecutor(file, env, cache, opts)
		err = seq.Run(recipeName, cfg.Args)
	}

	if saveErr := cache.Save(cachePath); saveErr != nil {
		o.log.Warn("failed to persist content cache", "error", saveErr)
	}

	return result, err
}

func (o *Orchestrator) applyTopLevelDirectives(file *Jakefile, env *Environment, cfg RunConfig) error {
	for _, stmt := range file.Stmts {
		d, ok := stmt.(Directive)
		if !ok {
			continue
		}
		switch d.Kind {
		case DirDotenv:
			path := ".env"
			if len(d.Args) > 0 {
				path = d.Args[0]
			}
			if err := env.LoadDotenv(path); err != nil {
				o.log.Debug("dotenv load skipped", "path", path, "error", err)
			}
		case DirRequire:
			for _, name := range d.Args {
				if _, ok := env.Get(name); !ok {
					return NewEnvMissingErr(name)
				}
			}
		case DirExport:
			for _, name := range d.Args {
				if v, ok := env.GetVar(name); ok {
					env.Set(name, v)
				}
			}
		}
	}
	return nil
}

func defaultRecipeName(file *Jakefile) string {
	for _, r := range file.Recipes {
		if r.IsDefault {
			return r.Name
		}
	}
	if len(file.Recipes) > 0 {
		return file.Recipes[0].Name
	}
	return ""
}

// ListRecipes returns recipes in declaration order, for `jake --list`.
func ListRecipes(file *Jakefile) []*Recipe {
	return file.Recipes
}
