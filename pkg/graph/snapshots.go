package graph

import (
	"context"
	"fmt"

	"github.com/graphview/backend/pkg/common"
	"github.com/graphview/backend/pkg/loader"
	csvloader "github.com/graphview/backend/pkg/loader/csv"
)

// SnapshotTypes lists the entity and relation types available in the store.
type SnapshotTypes struct {
	Entities  []string `json:"entities"`
	Relations []string `json:"relations"`
}

func (g *GraphClient) listRefs(ctx context.Context, kind loader.SnapshotKind) ([]snapshotRef, error) {
	files, err := g.loader.ListFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	refs := []snapshotRef{}
	for _, f := range files {
		k, snapshotType, ok := loader.ParseFileName(f)
		if !ok || k != kind {
			continue
		}
		refs = append(refs, snapshotRef{kind: k, snapshotType: snapshotType})
	}
	return refs, nil
}

// SnapshotTypes returns the types of all snapshots in the store, sorted by
// file name.
func (g *GraphClient) SnapshotTypes(ctx context.Context) (SnapshotTypes, error) {
	files, err := g.loader.ListFiles(ctx)
	if err != nil {
		return SnapshotTypes{}, fmt.Errorf("failed to list snapshots: %w", err)
	}

	types := SnapshotTypes{Entities: []string{}, Relations: []string{}}
	for _, f := range files {
		kind, snapshotType, ok := loader.ParseFileName(f)
		if !ok {
			continue
		}
		switch kind {
		case loader.SnapshotKindEntity:
			types.Entities = append(types.Entities, snapshotType)
		case loader.SnapshotKindRelation:
			types.Relations = append(types.Relations, snapshotType)
		}
	}
	return types, nil
}

// AllEntities returns the entities of every entity snapshot in the store.
func (g *GraphClient) AllEntities(ctx context.Context) ([]common.Entity, error) {
	refs, err := g.listRefs(ctx, loader.SnapshotKindEntity)
	if err != nil {
		return nil, err
	}

	loads, err := g.loadSnapshots(ctx, refs, parseSnapshot)
	if err != nil {
		return nil, err
	}

	entities := []common.Entity{}
	for _, load := range loads {
		entities = append(entities, entitiesFromRecords(load.records)...)
	}
	return entities, nil
}

// AllRelations returns the relations of every relation snapshot in the
// store, without type filtering.
func (g *GraphClient) AllRelations(ctx context.Context) ([]common.Relation, error) {
	refs, err := g.listRefs(ctx, loader.SnapshotKindRelation)
	if err != nil {
		return nil, err
	}

	loads, err := g.loadSnapshots(ctx, refs, parseSnapshot)
	if err != nil {
		return nil, err
	}

	relations := []common.Relation{}
	for _, load := range loads {
		relations = append(relations, relationsFromRecords(load.records)...)
	}
	return relations, nil
}

// RawRelations returns the unmapped rows of every relation snapshot keyed
// by relation type. Only files named relation_<type>_data.csv are read.
// Rows are parsed as RFC 4180 CSV.
func (g *GraphClient) RawRelations(ctx context.Context) (map[string][]loader.Record, error) {
	refs, err := g.listRefs(ctx, loader.SnapshotKindRelation)
	if err != nil {
		return nil, err
	}

	loads, err := g.loadSnapshots(ctx, refs, csvloader.ReadRecords)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]loader.Record, len(loads))
	for _, load := range loads {
		if !load.found {
			continue
		}
		out[load.ref.snapshotType] = load.records
	}
	return out, nil
}
