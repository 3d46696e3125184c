// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolveImports is the exported entry point for resolveImports, used by
// cmd/jake's inspection flags (--list/--summary/--show/--completions),
// which need the fully-merged recipe set but don't go through
// Orchestrator.Execute.
func ResolveImports(root *Jakefile, rootPath string) error {
	return resolveImports(root, rootPath)
}

// resolveImports walks the import graph starting at root, merging every
// imported Jakefile's recipes/variables/hooks into root with name
// prefixing, and tagging each imported recipe with its Origin. Cycles
// are rejected via a seen-set keyed by resolved absolute path, per
// spec.md's open question on import cycle handling.
func resolveImports(root *Jakefile, rootPath string) error {
	seen := map[string]bool{}
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return fmt.Errorf("resolve root path: %w", err)
	}
	seen[absRoot] = true
	return resolveImportsRec(root, rootPath, seen)
}

func resolveImportsRec(file *Jakefile, filePath string, seen map[string]bool) error {
	baseDir := filepath.Dir(filePath)

	for _, imp := range file.Imports {
		importPath := imp.Path
		if !filepath.IsAbs(importPath) {
			importPath = filepath.Join(baseDir, importPath)
		}
		abs, err := filepath.Abs(importPath)
		if err != nil {
			return fmt.Errorf("%d: resolve import %q: %w", imp.Line, imp.Path, err)
		}
		if seen[abs] {
			return fmt.Errorf("%d: import cycle detected at %q", imp.Line, imp.Path)
		}

		src, err := os.ReadFile(abs)
		if err != nil {
			return fmt.Errorf("%d: read import %q: %w", imp.Line, imp.Path, err)
		}
		child, err := Parse(src, abs)
		if err != nil {
			return fmt.Errorf("in imported file %q: %w", imp.Path, err)
		}

		childSeen := map[string]bool{}
		for k := range seen {
			childSeen[k] = true
		}
		childSeen[abs] = true
		if err := resolveImportsRec(child, abs, childSeen); err != nil {
			return err
		}

		prefix := imp.Alias
		if prefix == "" {
			prefix = defaultImportPrefix(imp.Path)
		}
		mergeImported(file, child, prefix, abs)
	}
	return nil
}

func defaultImportPrefix(importPath string) string {
	base := filepath.Base(importPath)
	ext := filepath.Ext(base)
	return base[:len(base)-len(ext)]
}

// mergeImported folds an already-resolved child Jakefile into parent,
// prefixing every recipe name with "prefix:" (spec.md's chosen import
// namespacing separator) and recording provenance via Origin. Variables
// and hooks are merged unprefixed: imported Jakefiles contribute shared
// configuration, not namespaced state.
func mergeImported(parent, child *Jakefile, prefix, sourceFile string) {
	for _, r := range child.Recipes {
		imported := *r
		originalName := r.Name
		if r.Origin != nil {
			originalName = r.Origin.OriginalName
		}
		imported.Name = prefix + ":" + r.Name
		imported.Origin = &Origin{
			OriginalName: originalName,
			Prefix:       prefix,
			SourceFile:   sourceFile,
		}
		imported.Dependencies = prefixDeps(r.Dependencies, prefix)
		parent.Recipes = append(parent.Recipes, &imported)
	}
	parent.Variables = append(parent.Variables, child.Variables...)
	parent.Hooks = append(parent.Hooks, child.Hooks...)
}

// prefixDeps rewrites an imported recipe's intra-file dependency names
// so they still resolve after namespacing; a dependency is only
// rewritten if it doesn't already carry an explicit "other:name" prefix
// (cross-import dependencies are written out by hand in the Jakefile).
func prefixDeps(deps []string, prefix string) []string {
	out := make([]string, len(deps))
	for i, d := range deps {
		if containsColon(d) {
			out[i] = d
			continue
		}
		out[i] = prefix + ":" + d
	}
	return out
}

func containsColon(s string) bool {
	for _, r := range s {
		if r == ':' {
			return true
		}
	}
	return false
}

// FindRecipe looks up a recipe by its fully-qualified (possibly
// prefixed) name.
func FindRecipe(file *Jakefile, name string) *Recipe {
	for _, r := range file.Recipes {
		if r.Name == name {
			return r
		}
	}
	return nil
}
