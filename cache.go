// Copyright 2026 The Jake Authors
// SPDX-License-Identifier: Apache-2.0

package jake

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const cacheDir = ".jake"

// CacheFile returns the content-cache path for the Jakefile directory
// rooted at dir.
func CacheFile(dir string) string {
	return filepath.Join(dir, cacheDir, "cache.json")
}

// fileSnapshot records one matched file's identity at the time its
// owning glob pattern was last marked fresh.
type fileSnapshot struct {
	ModTime time.Time `json:"mtime"`
	Size    int64     `json:"size"`
	Hash    string    `json:"hash"`
}

// ContentCache maps `@cache`/file-recipe glob patterns to the set of
// files they matched last time the pattern was recorded fresh.
// Grounded on mk's HashCache + BuildState (state.go): the same
// mtime+size-keyed hash memoization and JSON persistence, restructured
// from mk's per-target recipe/input/output hash bookkeeping to Jake's
// per-pattern snapshot-set model (spec.md §4.5).
type ContentCache struct {
	mu       sync.Mutex
	Patterns map[string]map[string]fileSnapshot `json:"patterns"`
	hashMu   sync.Mutex
	hashes   map[string]fileSnapshot // path -> last-computed snapshot, mtime/size keyed
}

// LoadCache reads the cache file at path, returning an empty cache if
// it doesn't exist or fails to parse (a corrupt cache degrades to
// "everything is stale", never a hard failure).
func LoadCache(path string) *ContentCache {
	c := &ContentCache{
		Patterns: make(map[string]map[string]fileSnapshot),
		hashes:   make(map[string]fileSnapshot),
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}
	_ = json.Unmarshal(data, c)
	if c.Patterns == nil {
		c.Patterns = make(map[string]map[string]fileSnapshot)
	}
	return c
}

// Save persists the cache via write-to-temp-then-rename, so a crash
// mid-write never corrupts the previous, still-valid cache file.
func (c *ContentCache) Save(path string) error {
	c.mu.Lock()
	data, err := json.MarshalIndent(c, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// IsGlobStale reports whether the files currently matching pattern
// differ (added, removed, or changed) from the last recorded snapshot.
// A pattern never recorded before is always stale.
func (c *ContentCache) IsGlobStale(pattern string) (bool, error) {
	matches, err := expandGlobPattern(pattern)
	if err != nil {
		return true, err
	}

	c.mu.Lock()
	prev, ok := c.Patterns[pattern]
	c.mu.Unlock()
	if !ok {
		return true, nil
	}
	if len(prev) != len(matches) {
		return true, nil
	}

	for _, m := range matches {
		snap, err := c.snapshotOf(m)
		if err != nil {
			return true, nil
		}
		old, ok := prev[m]
		if !ok || old.Size != snap.Size || !old.ModTime.Equal(snap.ModTime) || old.Hash != snap.Hash {
			return true, nil
		}
	}
	return false, nil
}

// Update recomputes and stores the current snapshot set for pattern.
func (c *ContentCache) Update(pattern string) error {
	matches, err := expandGlobPattern(pattern)
	if err != nil {
		return err
	}
	snap := make(map[string]fileSnapshot, len(matches))
	for _, m := range matches {
		s, err := c.snapshotOf(m)
		if err != nil {
			continue // file vanished between glob and stat; treat as absent
		}
		snap[m] = s
	}
	c.mu.Lock()
	c.Patterns[pattern] = snap
	c.mu.Unlock()
	return nil
}

// snapshotOf returns path's (mtime, size, content-hash), using the
// mtime+size memoization mk's HashCache.Hash uses to avoid re-hashing
// unchanged files.
func (c *ContentCache) snapshotOf(path string) (fileSnapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileSnapshot{}, err
	}

	c.hashMu.Lock()
	if prev, ok := c.hashes[path]; ok && prev.ModTime.Equal(info.ModTime()) && prev.Size == info.Size() {
		c.hashMu.Unlock()
		return prev, nil
	}
	c.hashMu.Unlock()

	hash, err := hashFileContents(path)
	if err != nil {
		return fileSnapshot{}, err
	}
	snap := fileSnapshot{ModTime: info.ModTime(), Size: info.Size(), Hash: hash}

	c.hashMu.Lock()
	c.hashes[path] = snap
	c.hashMu.Unlock()
	return snap, nil
}

func hashFileContents(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// expandGlobPattern expands a `@cache`/file_deps pattern into sorted,
// matching file paths. A non-glob literal that exists on disk expands
// to itself; one that doesn't exist expands to no matches, matching
// filepath.Glob's own degrade-to-empty behavior (mk's wildcardGlob in
// util.go takes the same stance).
func expandGlobPattern(pattern string) ([]string, error) {
	if strings.ContainsRune(pattern, ' ') {
		matches, err := multiPatternGlob(pattern)
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		return matches, nil
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

func stringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
