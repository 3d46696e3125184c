// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContentCacheStaleness(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("one"), 0o644))

	c := LoadCache(filepath.Join(dir, ".jake", "cache.json"))

	stale, err := c.IsGlobStale(path)
	require.NoError(t, err)
	require.True(t, stale, "pattern never recorded should be stale")

	require.NoError(t, c.Update(path))
	stale, err = c.IsGlobStale(path)
	require.NoError(t, err)
	require.False(t, stale, "freshly-updated pattern should be fresh")

	require.NoError(t, os.WriteFile(path, []byte("two, longer content"), 0o644))
	stale, err = c.IsGlobStale(path)
	require.NoError(t, err)
	require.True(t, stale, "modified file should be stale")
}

func TestContentCacheSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "src.go")
	require.NoError(t, os.WriteFile(f, []byte("package x"), 0o644))

	cachePath := CacheFile(dir)
	c := LoadCache(cachePath)
	require.NoError(t, c.Update(f))
	require.NoError(t, c.Save(cachePath))

	reloaded := LoadCache(cachePath)
	stale, err := reloaded.IsGlobStale(f)
	require.NoError(t, err)
	require.False(t, stale, "reloaded cache should still consider the file fresh")
}

func TestLoadCacheMissingFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	c := LoadCache(filepath.Join(dir, "does-not-exist.json"))
	require.NotNil(t, c.Patterns)
	require.Empty(t, c.Patterns)
}

func TestIsGlobStaleAddedOrRemovedFile(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "*.txt")

	a := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(a, []byte("a"), 0o644))

	c := LoadCache(filepath.Join(dir, ".jake", "cache.json"))
	require.NoError(t, c.Update(pattern))

	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(b, []byte("b"), 0o644))

	stale, err := c.IsGlobStale(pattern)
	require.NoError(t, err)
	require.True(t, stale, "adding a file matching the pattern should mark it stale")
}
