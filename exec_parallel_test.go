// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestParallelExecutor(t *testing.T, src string, jobs int) (*ParallelExecutor, *bytes.Buffer) {
	t.Helper()
	file, err := Parse([]byte(src), "Jakefile")
	require.NoError(t, err)
	env := NewEnvironment(nil, nil)
	cache := LoadCache(filepath.Join(t.TempDir(), "cache.json"))
	var out bytes.Buffer
	opts := ExecOptions{Stdout: &out, Stderr: &out}
	return NewParallelExecutor(file, env, cache, opts, jobs), &out
}

func TestParallelExecutorRunsAllDependencies(t *testing.T) {
	src := "task a\n    echo from-a\n\ntask b\n    echo from-b\n\ntask c: a, b\n    echo from-c\n"
	pe, out := newTestParallelExecutor(t, src, 2)

	stats, err := pe.Run("c", nil)
	require.NoError(t, err)
	require.Equal(t, 3, stats.TotalRecipes)

	got := out.String()
	require.Contains(t, got, "from-a")
	require.Contains(t, got, "from-b")
	require.Contains(t, got, "from-c")
}

func TestParallelExecutorPositionalArgsGoToRequestedRecipe(t *testing.T) {
	// The root ("build") is not necessarily first in topo order since
	// its dependency ("prep") must run first — positional args must
	// still reach "build" alone, by name, not by loop position.
	src := "task prep name\n    echo prep-got-[{{name}}]\n\ntask build name: prep\n    echo build-got-[{{name}}]\n"
	pe, out := newTestParallelExecutor(t, src, 1)

	_, err := pe.Run("build", []string{"widget"})
	require.NoError(t, err)

	got := out.String()
	require.Contains(t, got, "build-got-[widget]", "requested recipe should receive its positional arg")
	require.Contains(t, got, "prep-got-[]", "dependency should NOT receive the root's positional arg")
}

func TestParallelExecutorStopsOnDependencyFailure(t *testing.T) {
	src := "task a\n    sh -c 'exit 1'\n\ntask b: a\n    echo should-not-run\n"
	pe, out := newTestParallelExecutor(t, src, 2)

	_, err := pe.Run("b", nil)
	require.Error(t, err)
	require.NotContains(t, out.String(), "should-not-run")
}

func TestParallelExecutorRecipeNotFound(t *testing.T) {
	pe, _ := newTestParallelExecutor(t, "task build\n    echo hi\n", 1)
	_, err := pe.Run("missing", nil)
	require.Error(t, err)
}

func TestParallelExecutorCriticalPathLength(t *testing.T) {
	src := "task a\n    echo a\n\ntask b: a\n    echo b\n\ntask c: b\n    echo c\n"
	pe, _ := newTestParallelExecutor(t, src, 4)

	stats, err := pe.Run("c", nil)
	require.NoError(t, err)
	require.Equal(t, 3, stats.CriticalPathLength)
}
