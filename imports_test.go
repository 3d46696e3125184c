// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveImportsMergesPrefixedRecipes(t *testing.T) {
	dir := t.TempDir()
	childPath := filepath.Join(dir, "docker.jake")
	childSrc := "task build\n    echo building\n"
	if err := os.WriteFile(childPath, []byte(childSrc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rootPath := filepath.Join(dir, "Jakefile")
	rootSrc := "import docker.jake as docker\n\ntask all\n    echo done\n"
	if err := os.WriteFile(rootPath, []byte(rootSrc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	root, err := Parse([]byte(rootSrc), rootPath)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if err := ResolveImports(root, rootPath); err != nil {
		t.Fatalf("ResolveImports: %v", err)
	}

	r := FindRecipe(root, "docker:build")
	if r == nil {
		t.Fatal("expected docker:build to be merged into the root Jakefile")
	}
	if r.Origin == nil || r.Origin.OriginalName != "build" || r.Origin.Prefix != "docker" {
		t.Errorf("Origin = %+v, want OriginalName=build Prefix=docker", r.Origin)
	}
}

func TestResolveImportsDefaultPrefixFromFilename(t *testing.T) {
	dir := t.TempDir()
	childPath := filepath.Join(dir, "testing.jake")
	childSrc := "task run\n    echo test\n"
	if err := os.WriteFile(childPath, []byte(childSrc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rootPath := filepath.Join(dir, "Jakefile")
	rootSrc := "import testing.jake\n\ntask all\n    echo done\n"
	if err := os.WriteFile(rootPath, []byte(rootSrc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	root, err := Parse([]byte(rootSrc), rootPath)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := ResolveImports(root, rootPath); err != nil {
		t.Fatalf("ResolveImports: %v", err)
	}

	if FindRecipe(root, "testing:run") == nil {
		t.Fatal("expected default prefix derived from the imported file's basename")
	}
}

func TestResolveImportsDetectsCycle(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.jake")
	bPath := filepath.Join(dir, "b.jake")

	if err := os.WriteFile(aPath, []byte("import b.jake\n\ntask from_a\n    echo a\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if err := os.WriteFile(bPath, []byte("import a.jake\n\ntask from_b\n    echo b\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	root, err := Parse([]byte("import a.jake\n\ntask all\n    echo done\n"), filepath.Join(dir, "Jakefile"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if err := ResolveImports(root, filepath.Join(dir, "Jakefile")); err == nil {
		t.Fatal("ResolveImports: expected a cycle error, got nil")
	}
}

func TestFindRecipeNotFound(t *testing.T) {
	file := &Jakefile{Recipes: []*Recipe{{Name: "build"}}}
	if FindRecipe(file, "missing") != nil {
		t.Error("FindRecipe: expected nil for a name not present")
	}
}
