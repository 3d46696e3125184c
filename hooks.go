// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import "fmt"

// HookRunner dispatches lifecycle hooks around recipe execution. A
// hook is run exactly the way a recipe command line is run (same
// `runShellLine` path mk's executeRecipe uses for recipe bodies), so
// hooks see the same environment, dry-run, and quiet semantics.
type HookRunner struct {
	Global []Hook // hooks with Target == ""
	all    []Hook
}

// NewHookRunner partitions a Jakefile's flat hook list into the global
// set; per-recipe targeted hooks are looked up on demand by kind and
// name via ForRecipe, keeping hook application a run-time concern
// rather than something baked into the AST at parse time.
func NewHookRunner(all []Hook) *HookRunner {
	hr := &HookRunner{all: all}
	for _, h := range all {
		if h.Target == "" {
			hr.Global = append(hr.Global, h)
		}
	}
	return hr
}

// ForRecipe returns, in firing order, every hook that applies to r.
// Pre-hooks run outside-in: global, then `before <recipe>`-targeted,
// then r's own recipe-scoped pre hooks (populated directly by the
// parser from `pre:` body lines) last, right before the recipe body.
// Post-hooks run the reverse, inside-out: r's own recipe-scoped post
// hooks first, then `after <recipe>`-targeted, then global last — per
// spec.md §4.6's `runPostHooks` ordering ("recipe post, `after
// <recipe>`, then global post").
func (hr *HookRunner) ForRecipe(r *Recipe, kind HookKind) []Hook {
	var targeted []Hook
	for _, h := range hr.all {
		if h.Target == r.Name && h.Kind == kind {
			targeted = append(targeted, h)
		}
	}

	switch kind {
	case HookPost:
		var out []Hook
		out = append(out, r.PostHooks...)
		out = append(out, targeted...)
		for _, h := range hr.Global {
			if h.Kind == kind {
				out = append(out, h)
			}
		}
		return out
	default:
		var out []Hook
		for _, h := range hr.Global {
			if h.Kind == kind {
				out = append(out, h)
			}
		}
		out = append(out, targeted...)
		if kind == HookPre {
			out = append(out, r.PreHooks...)
		}
		return out
	}
}

// Run executes every hook of kind that applies to r, in order, failing
// fast on the first error (except HookOnError hooks, which are run
// best-effort since they fire during failure handling itself).
func (hr *HookRunner) Run(r *Recipe, kind HookKind, env *Environment, opts RunOptions) error {
	for _, h := range hr.ForRecipe(r, kind) {
		rendered, err := renderLine(h.Command, env, nil, nil)
		if err != nil {
			if kind == HookOnError {
				continue
			}
			return fmt.Errorf("hook %s: %w", describeHook(h), err)
		}
		if err := runShellLine(rendered, opts); err != nil {
			if kind == HookOnError {
				continue
			}
			return fmt.Errorf("hook %s: %w", describeHook(h), err)
		}
	}
	return nil
}

func describeHook(h Hook) string {
	switch h.Kind {
	case HookPre:
		return "pre"
	case HookPost:
		return "post"
	default:
		return "on_error"
	}
}
