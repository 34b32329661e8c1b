package graph

import (
	"github.com/graphview/backend/pkg/common"
	"github.com/graphview/backend/pkg/loader"
)

// EntityFromRecord converts an entity snapshot row. guid, name and type
// become fields; every other column goes into Properties.
func EntityFromRecord(record loader.Record) common.Entity {
	properties := make(map[string]any, len(record))
	for k, v := range record {
		switch k {
		case "guid", "name", "type":
		default:
			properties[k] = v
		}
	}

	return common.Entity{
		GUID:       record["guid"],
		Name:       record["name"],
		Type:       record["type"],
		Properties: properties,
	}
}

// RelationFromRecord converts a relation snapshot row. The relation type
// is read from the name column and the endpoints from source_guid and
// target_guid. source_type and target_type are always kept as properties.
func RelationFromRecord(record loader.Record) common.Relation {
	properties := make(map[string]any, len(record))
	properties["source_type"] = record["source_type"]
	properties["target_type"] = record["target_type"]
	for k, v := range record {
		switch k {
		case "guid", "name", "source_guid", "target_guid", "source_type", "target_type":
		default:
			properties[k] = v
		}
	}

	return common.Relation{
		GUID:       record["guid"],
		Type:       record["name"],
		Source:     record["source_guid"],
		Target:     record["target_guid"],
		Properties: properties,
	}
}

func entitiesFromRecords(records []loader.Record) []common.Entity {
	entities := make([]common.Entity, 0, len(records))
	for _, r := range records {
		entities = append(entities, EntityFromRecord(r))
	}
	return entities
}

func relationsFromRecords(records []loader.Record) []common.Relation {
	relations := make([]common.Relation, 0, len(records))
	for _, r := range records {
		relations = append(relations, RelationFromRecord(r))
	}
	return relations
}
