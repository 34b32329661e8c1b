package loader

import (
	"context"
	"errors"
	"strings"
)

// ErrSnapshotNotFound is returned (wrapped) by a SnapshotLoader when the
// requested snapshot file does not exist.
var ErrSnapshotNotFound = errors.New("snapshot not found")

type SnapshotKind string

const (
	SnapshotKindEntity   SnapshotKind = "entity"
	SnapshotKindRelation SnapshotKind = "relation"
)

const snapshotSuffix = "_data.csv"

// Record is one parsed CSV row, keyed by trimmed header name.
//
// Entity snapshots are expected to provide guid, name and type. Relation
// snapshots are expected to provide guid, name, source_guid, target_guid,
// source_type and target_type. None of these keys are checked.
type Record map[string]string

// SnapshotLoader defines the interface for reading snapshot files.
// Implementations may read from a local directory, a bucket or any other
// store that can address files by name.
type SnapshotLoader interface {
	// GetFileText returns the full contents of the named snapshot. When the
	// file does not exist the returned error wraps ErrSnapshotNotFound.
	GetFileText(ctx context.Context, name string) ([]byte, error)
	// ListFiles returns the sorted base names of all files in the store.
	ListFiles(ctx context.Context) ([]string, error)
}

// ValidType reports whether a type name can be turned into a snapshot file
// name. Names that are empty or could escape the snapshot location are
// rejected.
func ValidType(snapshotType string) bool {
	if snapshotType == "" {
		return false
	}
	if strings.ContainsAny(snapshotType, "/\\") || strings.Contains(snapshotType, "..") {
		return false
	}
	return true
}

// FileName returns the snapshot file name for the given kind and type,
// e.g. entity_component_data.csv.
func FileName(kind SnapshotKind, snapshotType string) string {
	return string(kind) + "_" + snapshotType + snapshotSuffix
}

func EntityFileName(entityType string) string {
	return FileName(SnapshotKindEntity, entityType)
}

func RelationFileName(relationType string) string {
	return FileName(SnapshotKindRelation, relationType)
}

// ParseFileName extracts the kind and type from a snapshot file name. It
// returns false for files that do not follow the naming contract.
func ParseFileName(name string) (SnapshotKind, string, bool) {
	if !strings.HasSuffix(name, snapshotSuffix) {
		return "", "", false
	}
	for _, kind := range []SnapshotKind{SnapshotKindEntity, SnapshotKindRelation} {
		prefix := string(kind) + "_"
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		snapshotType := strings.TrimSuffix(strings.TrimPrefix(name, prefix), snapshotSuffix)
		if snapshotType == "" {
			return "", "", false
		}
		return kind, snapshotType, true
	}
	return "", "", false
}

// GetSnapshot loads the snapshot of the given kind and type. Invalid type
// names are reported as ErrSnapshotNotFound without touching the store.
func GetSnapshot(ctx context.Context, l SnapshotLoader, kind SnapshotKind, snapshotType string) ([]byte, error) {
	if !ValidType(snapshotType) {
		return nil, &SnapshotError{Name: FileName(kind, snapshotType), Err: ErrSnapshotNotFound}
	}
	return l.GetFileText(ctx, FileName(kind, snapshotType))
}

// SnapshotError records the snapshot name an error belongs to.
type SnapshotError struct {
	Name string
	Err  error
}

func (e *SnapshotError) Error() string {
	return e.Name + ": " + e.Err.Error()
}

func (e *SnapshotError) Unwrap() error {
	return e.Err
}
