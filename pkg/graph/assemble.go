package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/graphview/backend/pkg/common"
	"github.com/graphview/backend/pkg/loader"
	csvloader "github.com/graphview/backend/pkg/loader/csv"
	"github.com/graphview/backend/pkg/logger"

	"golang.org/x/sync/errgroup"
)

type snapshotRef struct {
	kind         loader.SnapshotKind
	snapshotType string
}

// snapshotLoad is the outcome of reading one snapshot. A snapshot that is
// missing or unreadable has found set to false and contributes nothing.
type snapshotLoad struct {
	ref     snapshotRef
	records []loader.Record
	found   bool
}

type parseFunc func(content []byte) ([]loader.Record, error)

func parseSnapshot(content []byte) ([]loader.Record, error) {
	return csvloader.ParseRecords(content), nil
}

// loadSnapshots reads all refs concurrently. The returned slice is index
// aligned with refs. Only context cancellation fails the whole call.
func (g *GraphClient) loadSnapshots(
	ctx context.Context,
	refs []snapshotRef,
	parse parseFunc,
) ([]snapshotLoad, error) {
	loads := make([]snapshotLoad, len(refs))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.parallelLoads)

	for i, ref := range refs {
		loads[i].ref = ref
		eg.Go(func() error {
			content, err := loader.GetSnapshot(gCtx, g.loader, ref.kind, ref.snapshotType)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				if errors.Is(err, loader.ErrSnapshotNotFound) {
					logger.Debug("[Graph] Snapshot not found", "kind", ref.kind, "type", ref.snapshotType)
				} else {
					logger.Warn("[Graph] Could not load snapshot", "kind", ref.kind, "type", ref.snapshotType, "err", err)
				}
				return nil
			}

			records, err := parse(content)
			if err != nil {
				logger.Warn("[Graph] Could not parse snapshot", "kind", ref.kind, "type", ref.snapshotType, "err", err)
				return nil
			}

			loads[i].records = records
			loads[i].found = true
			logger.Debug("[Graph] Loaded snapshot", "kind", ref.kind, "type", ref.snapshotType, "rows", len(records))
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}

	return loads, nil
}

// Assemble builds the entity graph for the requested entity and relation
// types.
//
// Relation types may contain comma-joined sub-types. A loaded relation is
// kept when its type contains any requested relation type as a substring;
// with no relation types every loaded relation is kept. The returned
// entities are the entities of the requested types referenced by a kept
// relation. When no relation is kept, all loaded entities of the requested
// types are returned instead.
//
// Unknown or unreadable types contribute nothing. Only a canceled context
// fails the call.
func (g *GraphClient) Assemble(
	ctx context.Context,
	entityTypes []string,
	relationTypes []string,
) (common.EntityGraph, error) {
	relationTokens := SplitTypes(relationTypes)
	requestedEntityTypes := distinct(entityTypes)
	closureEntityTypes := SplitTypes(entityTypes)

	refs := make([]snapshotRef, 0, len(requestedEntityTypes)+len(closureEntityTypes)+len(relationTokens))
	for _, t := range distinct(append(append([]string{}, requestedEntityTypes...), closureEntityTypes...)) {
		refs = append(refs, snapshotRef{kind: loader.SnapshotKindEntity, snapshotType: t})
	}
	for _, t := range relationTokens {
		refs = append(refs, snapshotRef{kind: loader.SnapshotKindRelation, snapshotType: t})
	}

	loads, err := g.loadSnapshots(ctx, refs, parseSnapshot)
	if err != nil {
		return common.EntityGraph{}, err
	}

	entityRecords := make(map[string][]loader.Record)
	relations := []common.Relation{}
	for _, load := range loads {
		if !load.found {
			continue
		}
		switch load.ref.kind {
		case loader.SnapshotKindEntity:
			entityRecords[load.ref.snapshotType] = load.records
		case loader.SnapshotKindRelation:
			relations = append(relations, relationsFromRecords(load.records)...)
		}
	}

	matched := FilterRelations(relations, relationTokens)

	if len(matched) == 0 {
		entities := []common.Entity{}
		for _, t := range requestedEntityTypes {
			entities = append(entities, entitiesFromRecords(entityRecords[t])...)
		}
		return common.EntityGraph{Entities: entities, Relations: matched}, nil
	}

	guids := ReferencedGUIDs(matched)
	entities := []common.Entity{}
	for _, t := range closureEntityTypes {
		for _, e := range entitiesFromRecords(entityRecords[t]) {
			if _, ok := guids[e.GUID]; ok {
				entities = append(entities, e)
			}
		}
	}

	logger.Debug("[Graph] Assembled entity graph", "entities", len(entities), "relations", len(matched))

	return common.EntityGraph{Entities: entities, Relations: matched}, nil
}

// SplitTypes flattens type filters that may themselves hold comma-joined
// types. Tokens are trimmed, empty tokens are dropped and duplicates keep
// their first position.
func SplitTypes(types []string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, raw := range types {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, ok := seen[part]; ok {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// MatchesRelationType reports whether relationType contains any of tokens.
// Matching is by substring: "test" matches "tests_component".
func MatchesRelationType(relationType string, tokens []string) bool {
	for _, token := range tokens {
		if strings.Contains(relationType, token) {
			return true
		}
	}
	return false
}

// FilterRelations keeps the relations whose type matches any token. With
// no tokens all relations are kept.
func FilterRelations(relations []common.Relation, tokens []string) []common.Relation {
	if len(tokens) == 0 {
		out := make([]common.Relation, len(relations))
		copy(out, relations)
		return out
	}

	out := []common.Relation{}
	for _, r := range relations {
		if MatchesRelationType(r.Type, tokens) {
			out = append(out, r)
		}
	}
	return out
}

// ReferencedGUIDs returns the non-empty source and target GUIDs of relations.
func ReferencedGUIDs(relations []common.Relation) map[string]struct{} {
	guids := make(map[string]struct{}, len(relations)*2)
	for _, r := range relations {
		if r.Source != "" {
			guids[r.Source] = struct{}{}
		}
		if r.Target != "" {
			guids[r.Target] = struct{}{}
		}
	}
	return guids
}
