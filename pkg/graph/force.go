package graph

import "github.com/graphview/backend/pkg/common"

const unknownNodeType = "unknown"

// ToForceGraph projects an entity graph onto nodes and links. Every entity
// becomes a node and every relation a link. Relation endpoints without an
// entity become placeholder nodes named after their GUID, including empty
// endpoints, so every link references a node.
func ToForceGraph(g common.EntityGraph) common.ForceGraph {
	nodes := []common.ForceNode{}
	seen := make(map[string]struct{}, len(g.Entities))

	for _, e := range g.Entities {
		if _, ok := seen[e.GUID]; ok {
			continue
		}
		seen[e.GUID] = struct{}{}
		label := e.Name
		if label == "" {
			label = e.GUID
		}
		nodes = append(nodes, common.ForceNode{ID: e.GUID, Name: e.Name, Type: e.Type, Label: label})
	}

	links := make([]common.ForceLink, 0, len(g.Relations))
	for _, r := range g.Relations {
		for _, id := range []string{r.Source, r.Target} {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			nodes = append(nodes, common.ForceNode{ID: id, Name: id, Type: unknownNodeType, Label: id})
		}
		links = append(links, common.ForceLink{Source: r.Source, Target: r.Target, Type: r.Type})
	}

	return common.ForceGraph{Nodes: nodes, Links: links}
}
