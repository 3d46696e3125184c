// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// EvalFunction implements the fixed `{{fn(arg)}}` table from spec.md
// §4.3. Unlike mk's user-extensible FuncDef (vars.go), Jake's function
// set is closed; grounded on mk's evalFunc/funcDir/funcBasename shape
// but narrowed to these names.
func EvalFunction(name string, args []string) (string, error) {
	switch name {
	case "uppercase":
		return callUnary(name, args, strings.ToUpper)
	case "lowercase":
		return callUnary(name, args, strings.ToLower)
	case "trim":
		return callUnary(name, args, strings.TrimSpace)
	case "dirname":
		return callUnary(name, args, filepath.Dir)
	case "basename":
		return callUnary(name, args, filepath.Base)
	case "extension":
		return callUnary(name, args, filepath.Ext)
	case "stem":
		return callUnary(name, args, func(s string) string {
			base := filepath.Base(s)
			return strings.TrimSuffix(base, filepath.Ext(base))
		})
	case "abspath":
		if len(args) != 1 {
			return "", fmt.Errorf("abspath() takes exactly 1 argument")
		}
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return "", err
		}
		return abs, nil
	case "replace":
		if len(args) != 3 {
			return "", fmt.Errorf("replace() takes exactly 3 arguments")
		}
		return strings.ReplaceAll(args[0], args[1], args[2]), nil
	case "join":
		return filepath.Join(args...), nil
	case "len":
		if len(args) != 1 {
			return "", fmt.Errorf("len() takes exactly 1 argument")
		}
		return strconv.Itoa(len(args[0])), nil
	case "shell":
		if len(args) != 1 {
			return "", fmt.Errorf("shell() takes exactly 1 argument")
		}
		return runShellCapture(args[0])
	default:
		return "", fmt.Errorf("unknown function %q", name)
	}
}

func callUnary(name string, args []string, fn func(string) string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s() takes exactly 1 argument", name)
	}
	return fn(args[0]), nil
}

// Renderer expands the `{{...}}` placeholders spec.md §4.3 defines:
// bare names resolve through Lookup (renderLine checks recipe
// parameters first, then Jakefile variables); `fn(arg, ...)` calls
// resolve against EvalFunction, with
// each argument itself resolved as a variable name first and falling
// back to its literal text (e.g. `{{replace(name, ".o", ".c")}}`);
// `$N`/`$@` resolve against Positional (spec.md §4.7 step 1).
type Renderer struct {
	Lookup     func(name string) (string, bool)
	Positional []string
}

// Render scans s for `{{...}}` spans and replaces each with its
// expansion. Malformed (unterminated) spans are left verbatim.
func (r *Renderer) Render(s string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		start := strings.Index(s[i:], "{{")
		if start < 0 {
			b.WriteString(s[i:])
			break
		}
		b.WriteString(s[i : i+start])
		openAt := i + start
		end := strings.Index(s[openAt+2:], "}}")
		if end < 0 {
			b.WriteString(s[openAt:])
			break
		}
		inner := s[openAt+2 : openAt+2+end]
		rendered, err := r.renderInner(strings.TrimSpace(inner))
		if err != nil {
			return "", fmt.Errorf("expanding {{%s}}: %w", inner, err)
		}
		b.WriteString(rendered)
		i = openAt + 2 + end + 2
	}
	return b.String(), nil
}

func (r *Renderer) renderInner(expr string) (string, error) {
	if strings.HasPrefix(expr, "$") {
		return r.renderPositional(expr), nil
	}

	if paren := strings.IndexByte(expr, '('); paren >= 0 && strings.HasSuffix(expr, ")") {
		name := strings.TrimSpace(expr[:paren])
		argStr := expr[paren+1 : len(expr)-1]
		var args []string
		if strings.TrimSpace(argStr) != "" {
			for _, a := range strings.Split(argStr, ",") {
				a = strings.TrimSpace(a)
				if v, ok := r.Lookup(a); ok {
					args = append(args, v)
					continue
				}
				args = append(args, literalOfRaw(a))
			}
		}
		return EvalFunction(name, args)
	}

	if v, ok := r.Lookup(expr); ok {
		return v, nil
	}
	return "", fmt.Errorf("undefined variable %q", expr)
}

// renderPositional resolves the `$N`/`$@` positional forms: `$N` is the
// Nth positional, 1-indexed (out of range, or N == 0, yields the empty
// string); `$@` joins every positional with a single space; `$name`
// where name is non-numeric is left verbatim, braces included, per
// spec.md §4.7 step 1.
func (r *Renderer) renderPositional(expr string) string {
	rest := expr[1:]
	if rest == "@" {
		return strings.Join(r.Positional, " ")
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return "{{" + expr + "}}"
	}
	if n <= 0 || n > len(r.Positional) {
		return ""
	}
	return r.Positional[n-1]
}

// renderLine composes both expansion passes a recipe/hook command line
// goes through: `{{...}}` Jake-variable/function/positional expansion
// first (params take precedence over Jakefile variables), then `$VAR`/
// `${VAR}` shell-style environment expansion.
func renderLine(line string, env *Environment, params map[string]string, positional []string) (string, error) {
	r := &Renderer{
		Lookup: func(name string) (string, bool) {
			if params != nil {
				if v, ok := params[name]; ok {
					return v, true
				}
			}
			return env.GetVar(name)
		},
		Positional: positional,
	}
	expanded, err := r.Render(line)
	if err != nil {
		return "", err
	}
	return env.Expand(expanded), nil
}
