// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"fmt"
	"os"
	"runtime"
	"sync"
)

// ParallelStats reports the scheduling metrics spec.md §4.8 asks the
// parallel executor to surface under --verbose.
type ParallelStats struct {
	TotalRecipes        int
	MaxParallel         int
	CriticalPathLength  int
}

// ParallelExecutor runs a recipe and its transitive dependency DAG by
// starting one goroutine per recipe in topological order; each waits on
// its dependencies' completion channels, then takes a slot in a
// semaphore of size jobs, so at most jobs recipe bodies run at once.
// There is no shared ready queue or fixed pool of worker goroutines,
// and a failure only stops the recipes that depend on the failed one.
// Grounded on mk's Executor concurrency (exec.go): the same per-target
// completion tracking and semaphore job limiter, plus the scheduling
// metrics mk doesn't expose.
type ParallelExecutor struct {
	file  *Jakefile
	env   *Environment
	cache *ContentCache
	hooks *HookRunner
	opts  ExecOptions
	jobs  int

	mu       sync.Mutex
	done     map[string]chan struct{}
	doneErr  map[string]error
	maxBusy  int
	busy     int
}

// NewParallelExecutor builds a ParallelExecutor with the given worker
// count (0 means runtime.NumCPU()).
func NewParallelExecutor(file *Jakefile, env *Environment, cache *ContentCache, opts ExecOptions, jobs int) *ParallelExecutor {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return &ParallelExecutor{
		file:    file,
		env:     env,
		cache:   cache,
		hooks:   NewHookRunner(file.Hooks),
		opts:    opts,
		jobs:    jobs,
		done:    map[string]chan struct{}{},
		doneErr: map[string]error{},
	}
}

// Run executes name's full dependency DAG in parallel, bounded by the
// executor's worker count, and returns the scheduling stats alongside
// any error.
func (pe *ParallelExecutor) Run(name string, args []string) (ParallelStats, error) {
	root := FindRecipe(pe.file, name)
	if root == nil {
		return ParallelStats{}, NewRecipeNotFoundErr(name)
	}

	order, err := topoOrder(pe.file, root)
	if err != nil {
		return ParallelStats{}, err
	}

	sem := make(chan struct{}, pe.jobs)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for _, r := range order {
		r := r
		// Positional args apply only to the originally requested
		// recipe, identified by name rather than by loop position:
		// topoOrder returns dependencies before the root, so the root
		// is not necessarily (and usually isn't) first in order.
		var recipeArgs []string
		if r.Name == root.Name {
			recipeArgs = args
		}

		pe.mu.Lock()
		pe.done[r.Name] = make(chan struct{})
		pe.mu.Unlock()

		wg.Add(1)
		go func(r *Recipe, recipeArgs []string) {
			defer wg.Done()

			for _, dep := range r.Dependencies {
				pe.waitFor(dep)
			}
			if r.Kind == KindFile {
				for _, fd := range r.FileDeps {
					if owner := pe.findRecipeByOutput(fd); owner != nil {
						pe.waitFor(owner.Name)
					}
				}
			}
			if pe.depFailed(r) {
				pe.finish(r.Name, fmt.Errorf("skipped: a dependency of %q failed", r.Name))
				return
			}

			sem <- struct{}{}
			pe.mu.Lock()
			pe.busy++
			if pe.busy > pe.maxBusy {
				pe.maxBusy = pe.busy
			}
			pe.mu.Unlock()

			err := pe.runOne(r, recipeArgs)

			pe.mu.Lock()
			pe.busy--
			pe.mu.Unlock()
			<-sem

			pe.finish(r.Name, err)

			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(r, recipeArgs)
	}

	wg.Wait()

	stats := ParallelStats{
		TotalRecipes:       len(order),
		MaxParallel:        pe.maxBusy,
		CriticalPathLength: criticalPathLength(order),
	}
	return stats, firstErr
}

func (pe *ParallelExecutor) waitFor(name string) {
	pe.mu.Lock()
	ch, ok := pe.done[name]
	pe.mu.Unlock()
	if ok {
		<-ch
	}
}

func (pe *ParallelExecutor) depFailed(r *Recipe) bool {
	pe.mu.Lock()
	defer pe.mu.Unlock()
	for _, dep := range r.Dependencies {
		if pe.doneErr[dep] != nil {
			return true
		}
	}
	return false
}

func (pe *ParallelExecutor) finish(name string, err error) {
	pe.mu.Lock()
	pe.doneErr[name] = err
	ch := pe.done[name]
	pe.mu.Unlock()
	close(ch)
}

func (pe *ParallelExecutor) findRecipeByOutput(path string) *Recipe {
	for _, r := range pe.file.Recipes {
		if r.Kind == KindFile && r.Output == path {
			return r
		}
	}
	return nil
}

// runOne executes a single recipe's own body (hooks + directive
// interpreter + cache bookkeeping), reusing the same interpreter the
// sequential executor uses — dependencies themselves are sequenced by
// the scheduler above, not by recursive calls here.
func (pe *ParallelExecutor) runOne(r *Recipe, args []string) error {
	for _, ns := range r.Needs {
		if err := checkNeed(ns); err != nil {
			return NewNeedsErr(err)
		}
	}

	params, positional := bindParams(r, args)

	if r.Kind == KindFile && !pe.opts.Force {
		if _, err := os.Stat(r.Output); err == nil {
			allFresh := true
			for _, fd := range r.FileDeps {
				stale, err := pe.cache.IsGlobStale(fd)
				if err != nil || stale {
					allFresh = false
					break
				}
			}
			if allFresh {
				if pe.opts.Verbose {
					fmt.Fprintf(pe.opts.stderr(), "jake: %q is up to date\n", r.Name)
				}
				return nil
			}
		}
	}

	seq := &Executor{file: pe.file, env: pe.env, cache: pe.cache, hooks: pe.hooks, opts: pe.opts}
	runOpts := seq.runOptsFor(r)
	if runOpts.Watchdog != nil {
		defer runOpts.Watchdog.Stop()
	}

	if err := pe.hooks.Run(r, HookPre, pe.env, runOpts); err != nil {
		return err
	}
	cacheUpdates, bodyErr := seq.interpretBody(r.Commands, r, params, positional, runOpts)
	if bodyErr != nil {
		_ = pe.hooks.Run(r, HookOnError, pe.env, runOpts)
	}

	// Post-hooks run unconditionally (cleanup), per spec.md §4.6.
	postErr := pe.hooks.Run(r, HookPost, pe.env, runOpts)
	if bodyErr != nil {
		return seq.classifyBodyErr(r, bodyErr)
	}
	if postErr != nil {
		return postErr
	}

	for _, p := range cacheUpdates {
		_ = pe.cache.Update(p)
	}
	if r.Kind == KindFile {
		for _, fd := range r.FileDeps {
			_ = pe.cache.Update(fd)
		}
	}
	return nil
}

