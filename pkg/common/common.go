package common

// EntityGraph is the result of a graph query: a set of entities and the
// relations between them.
//
// After assembly every relation endpoint is expected to be present in
// Entities whenever at least one relation was returned.
type EntityGraph struct {
	Entities  []Entity   `json:"entities"`
	Relations []Relation `json:"relations"`
}

// Entity represents a node in the graph. Identity is the GUID; every
// snapshot column other than guid, name and type ends up in Properties
// as unparsed text.
type Entity struct {
	GUID       string         `json:"guid"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Relation represents a typed, directed edge between two entity GUIDs.
//
// Source and Target are not checked against any entity set when a
// relation is parsed.
type Relation struct {
	GUID       string         `json:"guid"`
	Type       string         `json:"type"`
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Properties map[string]any `json:"properties"`
}

// ForceGraph is the node/link projection of an EntityGraph consumed by
// force-directed renderers.
type ForceGraph struct {
	Nodes []ForceNode `json:"nodes"`
	Links []ForceLink `json:"links"`
}

// ForceNode is a graph node. Label is the display text: the entity name,
// or the id when the name is empty or the node is a placeholder.
type ForceNode struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

type ForceLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}
