// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// Environment is the shared variable/expansion context threaded through
// a single Jake run. It holds the OS/.env-derived environment snapshot
// separately from Jakefile-declared variables, and is safe to read and
// mutate (via Set, for exported variables) from the parallel executor's
// worker goroutines.
//
// Grounded on mk's Vars.Expand scanner shape (vars.go), generalized to
// the `${NAME:-default}` syntax and backed by a read/write mutex since
// Jake, unlike mk, executes recipes concurrently.
type Environment struct {
	mu      sync.RWMutex
	osEnv   map[string]string // OS process env + .env entries, merged
	jakeVar map[string]string // top-level Jakefile variables
}

// NewEnvironment builds an Environment from the OS's current process
// environment and a Jakefile's top-level variable assignments.
func NewEnvironment(osEnviron []string, jakeVars map[string]string) *Environment {
	e := &Environment{
		osEnv:   map[string]string{},
		jakeVar: map[string]string{},
	}
	for _, kv := range osEnviron {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			e.osEnv[kv[:i]] = kv[i+1:]
		}
	}
	for k, v := range jakeVars {
		e.jakeVar[k] = v
	}
	return e
}

// LoadDotenv reads a .env file with godotenv.Read (never godotenv.Load)
// so the running process's os.Environ() is left untouched: the values
// go only into e's own map. Entries already present in e are kept.
func (e *Environment) LoadDotenv(path string) error {
	vals, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for k, v := range vals {
		if _, exists := e.osEnv[k]; !exists {
			e.osEnv[k] = v
		}
	}
	return nil
}

// Get looks up an OS/.env environment variable (the set env() tests
// against, and $VAR expansion reads from).
func (e *Environment) Get(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.osEnv[name]
	return v, ok
}

// Set installs or overwrites an OS-level environment variable, used by
// `@export`.
func (e *Environment) Set(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.osEnv[name] = value
}

// GetVar looks up a Jakefile-level variable (the set {{name}} expansion
// reads from).
func (e *Environment) GetVar(name string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.jakeVar[name]
	return v, ok
}

// SetVar installs or overwrites a Jakefile-level variable. Recipe
// parameters and the `@each` loop variable are not stored here; they
// are passed to renderLine in a separate params map.
func (e *Environment) SetVar(name, value string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jakeVar[name] = value
}

// EnvironList renders the merged environment as a "KEY=VALUE" slice
// suitable for exec.Cmd.Env.
func (e *Environment) EnvironList() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.osEnv))
	for k, v := range e.osEnv {
		out = append(out, k+"="+v)
	}
	return out
}

// Expand performs shell-style `$VAR`, `${VAR}`, and `${VAR:-default}`
// substitution over s. Expansion inside single-quoted runs is
// suppressed (matching POSIX shell quoting); double-quoted runs and
// bare text both expand, matching the asymmetry spec.md calls out.
func (e *Environment) Expand(s string) string {
	var b strings.Builder
	i := 0
	inSingle, inDouble := false, false
	for i < len(s) {
		c := s[i]
		switch {
		case c == '"' && !inSingle:
			inDouble = !inDouble
			b.WriteByte(c)
			i++
		case c == '\'' && !inSingle && !inDouble:
			inSingle = true
			b.WriteByte(c)
			i++
		case c == '\'' && inSingle:
			inSingle = false
			b.WriteByte(c)
			i++
		case c == '$' && !inSingle && i+1 < len(s):
			consumed, rendered := e.expandOne(s[i:])
			if consumed == 0 {
				b.WriteByte(c)
				i++
				continue
			}
			b.WriteString(rendered)
			i += consumed
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// expandOne expands a single $VAR / ${VAR} / ${VAR:-default} reference
// at the start of s (s[0] == '$'), returning the number of bytes
// consumed and the replacement text. Returns (0, "") if s does not
// start with a valid reference.
func (e *Environment) expandOne(s string) (int, string) {
	if len(s) < 2 {
		return 0, ""
	}
	if s[1] == '{' {
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return 0, ""
		}
		inner := s[2:end]
		name, def, hasDef := inner, "", false
		if idx := strings.Index(inner, ":-"); idx >= 0 {
			name, def, hasDef = inner[:idx], inner[idx+2:], true
		}
		if v, ok := e.Get(name); ok {
			return end + 1, v
		}
		if hasDef {
			return end + 1, e.Expand(def)
		}
		return end + 1, ""
	}

	j := 1
	for j < len(s) && isIdentChar(s[j]) {
		j++
	}
	if j == 1 {
		return 0, ""
	}
	name := s[1:j]
	if v, ok := e.Get(name); ok {
		return j, v
	}
	return j, ""
}
