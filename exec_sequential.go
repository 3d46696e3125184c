// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
)

// ExecOptions configures one top-level jake invocation.
type ExecOptions struct {
	DryRun    bool
	Verbose   bool
	Yes       bool // auto-answer @confirm prompts
	WatchMode bool // whether the run was launched under --watch
	Force     bool // -B equivalent: ignore the content cache

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func (o ExecOptions) stdin() io.Reader {
	if o.Stdin != nil {
		return o.Stdin
	}
	return os.Stdin
}
func (o ExecOptions) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}
func (o ExecOptions) stderr() io.Writer {
	if o.Stderr != nil {
		return o.Stderr
	}
	return os.Stderr
}

// Executor runs a Jakefile's recipe graph sequentially: one recipe at a
// time, depth-first over dependencies, with a directive-driven
// interpreter over each recipe's command body. Grounded on mk's
// Executor.Build/doBuild/executeRecipe (exec.go): the same "resolve,
// build prereqs, check staleness, run" shape, generalized from mk's
// file-staleness-only model to Jake's directive table (spec.md §4.7).
type Executor struct {
	file  *Jakefile
	env   *Environment
	cache *ContentCache
	hooks *HookRunner
	opts  ExecOptions

	visited map[string]bool
	stack   []string
}

// NewExecutor builds a sequential Executor over a fully import-resolved
// Jakefile.
func NewExecutor(file *Jakefile, env *Environment, cache *ContentCache, opts ExecOptions) *Executor {
	return &Executor{
		file:    file,
		env:     env,
		cache:   cache,
		hooks:   NewHookRunner(file.Hooks),
		opts:    opts,
		visited: map[string]bool{},
	}
}

// Run executes the named recipe (and, transitively, its dependencies).
func (e *Executor) Run(name string, args []string) error {
	r := FindRecipe(e.file, name)
	if r == nil {
		return NewRecipeNotFoundErr(name)
	}
	return e.runRecipe(r, args)
}

func (e *Executor) runRecipe(r *Recipe, args []string) error {
	for _, s := range e.stack {
		if s == r.Name {
			return NewCycleErr(append(append([]string{}, e.stack...), r.Name))
		}
	}
	if e.visited[r.Name] {
		return nil
	}
	e.stack = append(e.stack, r.Name)
	defer func() { e.stack = e.stack[:len(e.stack)-1] }()

	if len(r.OnlyOS) > 0 && !r.OnlyOS[runtime.GOOS] {
		if e.opts.Verbose {
			fmt.Fprintf(e.opts.stderr(), "jake: skipping %q (not allowed on %s)\n", r.Name, runtime.GOOS)
		}
		e.visited[r.Name] = true
		return nil
	}

	for _, ns := range r.Needs {
		if err := checkNeed(ns); err != nil {
			return NewNeedsErr(err)
		}
	}

	params, positional := bindParams(r, args)

	for _, dep := range r.Dependencies {
		depRecipe := FindRecipe(e.file, dep)
		if depRecipe == nil {
			return NewRecipeNotFoundErr(dep)
		}
		if err := e.runRecipe(depRecipe, nil); err != nil {
			return err
		}
	}
	if r.Kind == KindFile {
		for _, fd := range r.FileDeps {
			if owner := e.findRecipeByOutput(fd); owner != nil {
				if err := e.runRecipe(owner, nil); err != nil {
					return err
				}
			}
		}
	}

	if r.Kind == KindFile && !e.opts.Force {
		stale, err := e.isFileRecipeStale(r)
		if err == nil && !stale {
			if e.opts.Verbose {
				fmt.Fprintf(e.opts.stderr(), "jake: %q is up to date\n", r.Name)
			}
			e.visited[r.Name] = true
			return nil
		}
	}

	runOpts := e.runOptsFor(r)
	if runOpts.Watchdog != nil {
		defer runOpts.Watchdog.Stop()
	}

	if err := e.hooks.Run(r, HookPre, e.env, runOpts); err != nil {
		return err
	}

	cacheUpdates, bodyErr := e.interpretBody(r.Commands, r, params, positional, runOpts)
	if bodyErr != nil {
		_ = e.hooks.Run(r, HookOnError, e.env, runOpts)
	}

	// Post-hooks are cleanup: spec.md §4.6 requires them to run on every
	// exit path, including recipe failure, not just on success.
	postErr := e.hooks.Run(r, HookPost, e.env, runOpts)
	if bodyErr != nil {
		return e.classifyBodyErr(r, bodyErr)
	}
	if postErr != nil {
		return postErr
	}

	for _, p := range cacheUpdates {
		_ = e.cache.Update(p)
	}
	if r.Kind == KindFile {
		for _, fd := range r.FileDeps {
			_ = e.cache.Update(fd)
		}
	}

	e.visited[r.Name] = true
	return nil
}

func (e *Executor) runOptsFor(r *Recipe) RunOptions {
	opts := RunOptions{
		Dir:     r.WorkingDir,
		Shell:   r.Shell,
		Env:     e.env.EnvironList(),
		Stdout:  e.opts.stdout(),
		Stderr:  e.opts.stderr(),
		Stdin:   e.opts.stdin(),
		DryRun:  e.opts.DryRun,
		Verbose: e.opts.Verbose,
		Quiet:   r.Quiet,
		OnBanner: func(line string) {
			fmt.Fprintf(e.opts.stderr(), "jake: %s\n", line)
		},
	}
	if r.HasTimeout {
		opts.Watchdog = NewWatchdog(r.TimeoutSeconds)
	}
	return opts
}

func (e *Executor) classifyBodyErr(r *Recipe, err error) error {
	switch v := err.(type) {
	case *NeedsError:
		return NewNeedsErr(v)
	case *TimeoutError:
		return NewTimeoutErr(r.Name, v)
	case *confirmDeclinedError:
		return NewConfirmDeclinedErr(r.Name)
	default:
		return NewRunErr(r.Name, err)
	}
}

func (e *Executor) findRecipeByOutput(path string) *Recipe {
	for _, r := range e.file.Recipes {
		if r.Kind == KindFile && r.Output == path {
			return r
		}
	}
	return nil
}

func (e *Executor) isFileRecipeStale(r *Recipe) (bool, error) {
	if _, err := os.Stat(r.Output); err != nil {
		return true, nil
	}
	for _, p := range r.FileDeps {
		stale, err := e.cache.IsGlobStale(p)
		if err != nil || stale {
			return true, nil
		}
	}
	return false, nil
}

// bindParams splits a recipe invocation's trailing CLI args into
// `key=value` pairs (bound to declared params by name) and plain
// positionals, per spec.md §4.9 step 7. Declared params not satisfied
// by a `key=value` arg fall back to positional-by-order binding, then
// to their default, then to "". The returned positional slice is the
// full set of non-`key=value` args in order, independent of how many
// of them a named param also consumed — it feeds the `{{$N}}`/`{{$@}}`
// forms in function.go's renderInner.
func bindParams(r *Recipe, args []string) (map[string]string, []string) {
	named := map[string]string{}
	var positional []string
	for _, a := range args {
		if key, val, ok := splitKeyValueArg(a); ok {
			named[key] = val
			continue
		}
		positional = append(positional, a)
	}

	params := map[string]string{}
	posIdx := 0
	for _, p := range r.Params {
		if v, ok := named[p.Name]; ok {
			params[p.Name] = v
		} else if posIdx < len(positional) {
			params[p.Name] = positional[posIdx]
			posIdx++
		} else if p.HasDefault {
			params[p.Name] = p.Default
		} else {
			params[p.Name] = ""
		}
	}
	return params, positional
}

// splitKeyValueArg recognizes a `name=value` CLI argument. A leading
// `=` (empty key) does not count, so `=foo` is treated as positional.
func splitKeyValueArg(s string) (key, val string, ok bool) {
	i := strings.IndexByte(s, '=')
	if i <= 0 {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

func checkNeed(ns NeedSpec) *NeedsError {
	if _, err := exec.LookPath(ns.Command); err != nil {
		return &NeedsError{Command: ns.Command, Hint: ns.Hint, InstallTask: ns.InstallTask}
	}
	return nil
}

type confirmDeclinedError struct{}

func (confirmDeclinedError) Error() string { return "confirmation declined" }

// condFrame tracks one open @if/@elif/@else chain. active already
// folds in every ancestor frame's activity, so currentActive only
// needs to look at the top of the stack.
type condFrame struct {
	active  bool
	matched bool
}

func currentActive(stack []condFrame) bool {
	if len(stack) == 0 {
		return true
	}
	return stack[len(stack)-1].active
}

// interpretBody runs commands (a recipe body or one `@each` iteration's
// sub-slice) against params, returning the set of `@cache` patterns to
// record fresh on overall recipe success. Directive semantics follow
// spec.md §4.7's table; conditionals are tracked with an explicit
// state-stack rather than host recursion since the `@if`/`@each`
// terminator keyword is shared ("@end"), per spec.md §9's note that
// multiple sigils overlap.
func (e *Executor) interpretBody(commands []Command, r *Recipe, params map[string]string, positional []string, runOpts RunOptions) ([]string, error) {
	var cacheUpdates []string
	var stack []condFrame
	ignoreNext := false

	i := 0
	for i < len(commands) {
		c := commands[i]

		if c.Directive == nil {
			if currentActive(stack) {
				if runOpts.Watchdog != nil && runOpts.Watchdog.Expired() {
					return cacheUpdates, &TimeoutError{Seconds: runOpts.Watchdog.timeoutSec}
				}
				rendered, err := renderLine(c.Line, e.env, params, positional)
				if err != nil {
					return cacheUpdates, err
				}
				err = runShellLine(rendered, runOpts)
				if err != nil && ignoreNext {
					err = nil
				}
				ignoreNext = false
				if err != nil {
					return cacheUpdates, err
				}
			}
			i++
			continue
		}

		d := c.Directive
		switch d.Kind {
		case CmdIf:
			parentActive := currentActive(stack)
			frame := condFrame{}
			if parentActive {
				v := e.evalCondOrWarn(d.Cond, params, positional)
				frame.active, frame.matched = v, v
			}
			stack = append(stack, frame)

		case CmdElif:
			if len(stack) == 0 {
				return cacheUpdates, fmt.Errorf("@elif without matching @if")
			}
			parentActive := currentActive(stack[:len(stack)-1])
			top := &stack[len(stack)-1]
			if parentActive && !top.matched {
				v := e.evalCondOrWarn(d.Cond, params, positional)
				top.active = v
				if v {
					top.matched = true
				}
			} else {
				top.active = false
			}

		case CmdElse:
			if len(stack) == 0 {
				return cacheUpdates, fmt.Errorf("@else without matching @if")
			}
			parentActive := currentActive(stack[:len(stack)-1])
			top := &stack[len(stack)-1]
			top.active = parentActive && !top.matched
			top.matched = true

		case CmdEnd:
			if len(stack) == 0 {
				return cacheUpdates, fmt.Errorf("@end without matching @if/@each")
			}
			stack = stack[:len(stack)-1]

		case CmdEach:
			if !currentActive(stack) {
				i = d.EndIndex + 1
				continue
			}
			listExpr, err := renderLine(d.Args[0], e.env, params, positional)
			if err != nil {
				return cacheUpdates, err
			}
			items := splitEachList(listExpr)
			body := commands[i+1 : d.EndIndex]
			for _, item := range items {
				childParams := make(map[string]string, len(params)+1)
				for k, v := range params {
					childParams[k] = v
				}
				childParams["item"] = item
				sub, err := e.interpretBody(body, r, childParams, positional, runOpts)
				cacheUpdates = append(cacheUpdates, sub...)
				if err != nil {
					return cacheUpdates, err
				}
			}
			i = d.EndIndex + 1
			continue

		case CmdCache:
			if currentActive(stack) && len(d.Args) > 0 {
				anyStale := false
				var patterns []string
				for _, raw := range d.Args {
					pattern, err := renderLine(raw, e.env, params, positional)
					if err != nil {
						return cacheUpdates, err
					}
					patterns = append(patterns, pattern)
					stale, err := e.cache.IsGlobStale(pattern)
					if err != nil || stale {
						anyStale = true
					}
				}
				if !anyStale {
					// Skip the next command and any contiguous trailing
					// plain command lines, up to the next directive.
					j := i + 1
					for j < len(commands) && commands[j].Directive == nil {
						j++
					}
					if e.opts.Verbose {
						fmt.Fprintf(e.opts.stderr(), "jake: [cached] %s\n", strings.Join(patterns, ", "))
					}
					i = j
					continue
				}
				cacheUpdates = append(cacheUpdates, patterns...)
			}

		case CmdWatch:
			if currentActive(stack) && !e.opts.WatchMode && e.opts.Verbose {
				fmt.Fprintf(e.opts.stderr(), "jake: @watch %s (informational outside --watch)\n", strings.Join(d.Args, " "))
			}

		case CmdNeeds:
			if currentActive(stack) {
				for _, name := range d.Args {
					if err := checkNeed(NeedSpec{Command: name}); err != nil {
						return cacheUpdates, err
					}
				}
			}

		case CmdConfirm:
			if currentActive(stack) && !e.opts.Yes && !e.opts.DryRun {
				msg := d.Args[0]
				if msg == "" {
					msg = fmt.Sprintf("proceed with %q?", r.Name)
				}
				if !Confirm(e.opts.stdin(), e.opts.stdout(), msg) {
					return cacheUpdates, &confirmDeclinedError{}
				}
			}

		case CmdIgnore:
			if currentActive(stack) {
				ignoreNext = true
			}

		case CmdLaunch:
			if currentActive(stack) {
				target, err := renderLine(d.Args[0], e.env, params, positional)
				if err != nil {
					return cacheUpdates, err
				}
				if !e.opts.DryRun {
					launchDetached(target, e.env.EnvironList())
				}
			}
		}
		i++
	}
	return cacheUpdates, nil
}

func (e *Executor) evalRenderedCond(cond string, params map[string]string, positional []string) (bool, error) {
	rendered, err := renderLine(cond, e.env, params, positional)
	if err != nil {
		return false, err
	}
	ctx := CondContext{WatchMode: e.opts.WatchMode, DryRun: e.opts.DryRun, Verbose: e.opts.Verbose}
	return EvalCondition(rendered, e.env, ctx)
}

// evalCondOrWarn evaluates a condition, degrading a parse/evaluation
// failure to false with a warning rather than aborting the recipe —
// conditions are best-effort per spec.md §4.3.
func (e *Executor) evalCondOrWarn(cond string, params map[string]string, positional []string) bool {
	v, err := e.evalRenderedCond(cond, params, positional)
	if err != nil {
		if e.opts.Verbose {
			fmt.Fprintf(e.opts.stderr(), "jake: warning: condition %q: %v\n", cond, err)
		}
		return false
	}
	return v
}

// splitEachList evaluates an `@each` item-list expression: each
// space/comma-separated token is tried as a glob pattern first: a
// match expands to the matched paths, and a token that matches nothing
// falls back to being iterated over literally (spec.md's decided open
// question on `@each` glob-expansion fallback).
func splitEachList(s string) []string {
	raw := strings.Fields(strings.ReplaceAll(s, ",", " "))
	var items []string
	for _, tok := range raw {
		matches, err := filepath.Glob(tok)
		if err == nil && len(matches) > 0 {
			items = append(items, matches...)
			continue
		}
		items = append(items, tok)
	}
	return items
}

// launchDetached spawns target as a background process, detached into
// its own process group so it outlives the current recipe.
func launchDetached(target string, env []string) {
	cmd := exec.Command("sh", "-c", target)
	cmd.Env = env
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	_ = cmd.Start()
}
