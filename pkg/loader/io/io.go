package io

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/graphview/backend/pkg/loader"

	"github.com/hack-pad/hackpadfs"
	osfs "github.com/hack-pad/hackpadfs/os"
	"golang.org/x/sync/singleflight"
)

// IOSnapshotLoader reads snapshots from a directory of a hackpadfs file
// system. Concurrent reads of the same file share one read; results are
// never cached.
type IOSnapshotLoader struct {
	fs    hackpadfs.FS
	dir   string
	group singleflight.Group
}

// NewIOSnapshotLoader creates a loader for dir inside fs. Use "." for the
// root of fs.
func NewIOSnapshotLoader(fs hackpadfs.FS, dir string) *IOSnapshotLoader {
	if dir == "" {
		dir = "."
	}
	return &IOSnapshotLoader{
		fs:  fs,
		dir: dir,
	}
}

// NewOSSnapshotLoader creates a loader for a directory on the local disk.
//
// Example:
//
//	l, err := io.NewOSSnapshotLoader("data/posthog_archive")
//	if err != nil {
//		log.Fatal(err)
//	}
//	content, err := l.GetFileText(ctx, "entity_component_data.csv")
func NewOSSnapshotLoader(dir string) (*IOSnapshotLoader, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve snapshot dir %s: %w", dir, err)
	}

	fs := osfs.NewFS()
	fsPath, err := fs.FromOSPath(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to map snapshot dir %s: %w", abs, err)
	}

	sub, err := fs.Sub(fsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot dir %s: %w", abs, err)
	}

	return NewIOSnapshotLoader(sub, "."), nil
}

func (l *IOSnapshotLoader) path(name string) string {
	if l.dir == "." {
		return name
	}
	return l.dir + "/" + name
}

// GetFileText reads the named snapshot.
func (l *IOSnapshotLoader) GetFileText(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err, _ := l.group.Do(name, func() (any, error) {
		return hackpadfs.ReadFile(l.fs, l.path(name))
	})
	if err != nil {
		if errors.Is(err, hackpadfs.ErrNotExist) {
			return nil, &loader.SnapshotError{Name: name, Err: loader.ErrSnapshotNotFound}
		}
		return nil, &loader.SnapshotError{Name: name, Err: err}
	}

	return result.([]byte), nil
}

// ListFiles returns the sorted names of all regular files in the directory.
func (l *IOSnapshotLoader) ListFiles(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := hackpadfs.ReadDir(l.fs, l.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	return names, nil
}
