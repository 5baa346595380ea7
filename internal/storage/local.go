package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yairfalse/vigil/pkg/types"
)

// timestampLayout keeps lexical order equal to chronological order.
const timestampLayout = "20060102T150405"

const (
	snapExt   = ".snap"
	failedExt = ".failed"
)

// LocalStore implements Store on the local filesystem.
type LocalStore struct {
	baseDir   string
	snapshots string
}

// NewLocalStore creates a local store rooted at baseDir, creating the
// snapshot directories for every category.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	s := &LocalStore{
		baseDir:   baseDir,
		snapshots: filepath.Join(baseDir, "snapshots"),
	}
	for _, category := range types.Categories() {
		dir := filepath.Join(s.snapshots, category.String())
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// Append writes one snapshot artifact. Failed captures get a distinct
// extension so history stays uniform for retention while the diff engine
// can suppress them.
func (s *LocalStore) Append(snapshot *types.Snapshot) error {
	ext := snapExt
	if snapshot.CollectionFailed {
		ext = failedExt
	}
	name := snapshot.CapturedAt.UTC().Format(timestampLayout) + ext
	path := filepath.Join(s.snapshots, snapshot.Category.String(), name)

	var b strings.Builder
	for _, entry := range snapshot.Entries {
		b.WriteString(entry)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}

// Latest returns up to n snapshots for a category, newest first.
func (s *LocalStore) Latest(category types.Category, n int) ([]*types.Snapshot, error) {
	dir := filepath.Join(s.snapshots, category.String())
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read snapshot directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), snapExt) || strings.HasSuffix(e.Name(), failedExt) {
			names = append(names, e.Name())
		}
	}
	// Sortable-by-name is sortable-by-time.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))

	if len(names) > n {
		names = names[:n]
	}

	snapshots := make([]*types.Snapshot, 0, len(names))
	for _, name := range names {
		snap, err := s.readSnapshot(category, filepath.Join(dir, name), name)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, nil
}

func (s *LocalStore) readSnapshot(category types.Category, path, name string) (*types.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s: %w", path, err)
	}

	failed := strings.HasSuffix(name, failedExt)
	stamp := strings.TrimSuffix(strings.TrimSuffix(name, snapExt), failedExt)
	capturedAt, err := time.Parse(timestampLayout, stamp)
	if err != nil {
		return nil, fmt.Errorf("malformed snapshot name %s: %w", name, err)
	}

	var entries []string
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			entries = append(entries, line)
		}
	}

	snap := &types.Snapshot{
		Category:         category,
		CapturedAt:       capturedAt.UTC(),
		Entries:          entries,
		CollectionFailed: failed,
	}
	return snap, nil
}

// Prune deletes snapshot artifacts strictly older than the retention
// window. Deletion failures are collected and skipped, never fatal.
func (s *LocalStore) Prune(olderThan time.Duration, now time.Time) (int, []error) {
	deleted := 0
	var errs []error

	for _, category := range types.Categories() {
		dir := filepath.Join(s.snapshots, category.String())
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				errs = append(errs, err)
			}
			continue
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			stamp := strings.TrimSuffix(strings.TrimSuffix(e.Name(), snapExt), failedExt)
			capturedAt, err := time.Parse(timestampLayout, stamp)
			if err != nil {
				continue
			}
			if now.Sub(capturedAt) <= olderThan {
				continue
			}
			path := filepath.Join(dir, e.Name())
			if err := os.Remove(path); err != nil {
				errs = append(errs, fmt.Errorf("failed to remove %s: %w", path, err))
				continue
			}
			deleted++
		}
	}
	return deleted, errs
}

// BaseDir returns the store's root directory.
func (s *LocalStore) BaseDir() string { return s.baseDir }
