// Package state persists the small JSON state files that survive between
// invocations: the index state (path -> last indexed time) and the capture
// state (hashes of observations already recorded). Files are written to a
// temporary path and renamed so a crash mid-write cannot truncate them.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// IndexState maps a relative file path to the unix time (seconds, with
// fraction) at which it was last indexed.
type IndexState map[string]float64

// LoadIndex reads the index state. A missing or corrupt file yields an
// empty state, not an error: the worst case is a full reindex.
func LoadIndex(path string) IndexState {
	data, err := os.ReadFile(path)
	if err != nil {
		return IndexState{}
	}
	var st IndexState
	if err := json.Unmarshal(data, &st); err != nil || st == nil {
		return IndexState{}
	}
	return st
}

// Save persists the index state atomically.
func (st IndexState) Save(path string) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index state: %w", err)
	}
	return writeAtomic(path, data)
}

// CaptureState is the set of content hashes of observations that have
// already been recorded, across all runs. It grows monotonically; there is
// no eviction.
type CaptureState struct {
	seen map[string]struct{}
}

type captureFile struct {
	SeenHashes []string `json:"seen_hashes"`
}

// LoadCapture reads the capture state. Missing or corrupt files yield an
// empty state.
func LoadCapture(path string) *CaptureState {
	cs := &CaptureState{seen: make(map[string]struct{})}
	data, err := os.ReadFile(path)
	if err != nil {
		return cs
	}
	var f captureFile
	if err := json.Unmarshal(data, &f); err != nil {
		return cs
	}
	for _, h := range f.SeenHashes {
		cs.seen[h] = struct{}{}
	}
	return cs
}

// Seen reports whether the hash was already recorded.
func (c *CaptureState) Seen(hash string) bool {
	_, ok := c.seen[hash]
	return ok
}

// Add marks a hash as seen. It reports true if the hash was new.
func (c *CaptureState) Add(hash string) bool {
	if _, ok := c.seen[hash]; ok {
		return false
	}
	c.seen[hash] = struct{}{}
	return true
}

// Len returns the number of recorded hashes.
func (c *CaptureState) Len() int { return len(c.seen) }

// Save persists the capture state atomically, hashes sorted for stable
// file contents.
func (c *CaptureState) Save(path string) error {
	f := captureFile{SeenHashes: make([]string, 0, len(c.seen))}
	for h := range c.seen {
		f.SeenHashes = append(f.SeenHashes, h)
	}
	sort.Strings(f.SeenHashes)

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal capture state: %w", err)
	}
	return writeAtomic(path, data)
}

// writeAtomic writes data to a temp file in the target directory and
// renames it over path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}
