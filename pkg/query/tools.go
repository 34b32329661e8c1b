package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphview/backend/pkg/ai"
	"github.com/graphview/backend/pkg/common"
	"github.com/graphview/backend/pkg/logger"
)

const defaultFindLimit = 10

// CreateEntityArgs are the arguments of a proposed create_entity call.
type CreateEntityArgs struct {
	Name       string            `json:"name" jsonschema_description:"Display name of the new entity."`
	Type       string            `json:"type" jsonschema_description:"Entity type. Prefer a type that already exists in the graph."`
	Properties map[string]string `json:"properties,omitempty" jsonschema_description:"Additional attributes of the entity."`
}

// UpdateEntityArgs are the arguments of a proposed update_entity call.
// Empty fields stay unchanged.
type UpdateEntityArgs struct {
	GUID       string            `json:"guid" jsonschema_description:"GUID of the entity to update."`
	Name       string            `json:"name,omitempty" jsonschema_description:"New display name."`
	Type       string            `json:"type,omitempty" jsonschema_description:"New entity type."`
	Properties map[string]string `json:"properties,omitempty" jsonschema_description:"Attributes to set on the entity."`
}

// DeleteEntityArgs are the arguments of a proposed delete_entity call.
type DeleteEntityArgs struct {
	GUID string `json:"guid" jsonschema_description:"GUID of the entity to delete."`
}

// FindEntitiesArgs are the arguments of a find_entities call.
type FindEntitiesArgs struct {
	Query string `json:"query"`
	Type  string `json:"type,omitempty"`
	Limit int    `json:"limit,omitempty"`
}

// ChatTools returns the tools offered to the chat model. find_entities runs
// on the server against entities; the mutating tools are client tools.
func ChatTools(entities []common.Entity) []ai.Tool {
	return []ai.Tool{
		toolFindEntities(entities),
		toolCreateEntity(),
		toolUpdateEntity(),
		toolDeleteEntity(),
	}
}

func toolCreateEntity() ai.Tool {
	return ai.Tool{
		Name:        "create_entity",
		Description: "Propose a new entity node. The user reviews and applies the change.",
		Parameters:  ai.ToolParameters(CreateEntityArgs{}),
		Execution:   ai.ToolExecutionClient,
	}
}

func toolUpdateEntity() ai.Tool {
	return ai.Tool{
		Name:        "update_entity",
		Description: "Propose changes to an existing entity node, identified by its GUID.",
		Parameters:  ai.ToolParameters(UpdateEntityArgs{}),
		Execution:   ai.ToolExecutionClient,
	}
}

func toolDeleteEntity() ai.Tool {
	return ai.Tool{
		Name:        "delete_entity",
		Description: "Propose the removal of an existing entity node, identified by its GUID.",
		Parameters:  ai.ToolParameters(DeleteEntityArgs{}),
		Execution:   ai.ToolExecutionClient,
	}
}

func toolFindEntities(entities []common.Entity) ai.Tool {
	return ai.Tool{
		Name:        "find_entities",
		Description: "Search the current entities by name or GUID (case-insensitive substring match). Use this to look up GUIDs before proposing updates or deletions.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Text to look for in entity names and GUIDs.",
				},
				"type": map[string]any{
					"type":        "string",
					"description": "Only return entities of this type.",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of entities to return (default: 10).",
					"default":     defaultFindLimit,
				},
			},
			"required": []string{"query"},
		},
		Execution: ai.ToolExecutionServer,
		Handler: func(ctx context.Context, args string) (string, error) {
			var params FindEntitiesArgs
			if err := ai.UnmarshalFlexible(args, &params); err != nil {
				return "", fmt.Errorf("failed to parse arguments: %w", err)
			}

			limit := params.Limit
			if limit <= 0 {
				limit = defaultFindLimit
			}

			logger.Debug("[Tool] find_entities", "query", params.Query, "type", params.Type, "limit", limit)

			found := FindEntities(entities, params.Query, params.Type, limit)

			var result strings.Builder
			result.WriteString("## Entities\n")
			if len(found) == 0 {
				result.WriteString("No entities found matching the query.\n")
			} else {
				for i, e := range found {
					fmt.Fprintf(&result, "%d. [GUID: %s] %s (%s)\n", i+1, e.GUID, e.Name, e.Type)
				}
			}

			return result.String(), nil
		},
	}
}

// FindEntities returns up to limit entities whose name or GUID contains
// query, ignoring case. An empty query matches every entity. When
// entityType is set only entities of that type are considered.
func FindEntities(entities []common.Entity, query string, entityType string, limit int) []common.Entity {
	query = strings.ToLower(strings.TrimSpace(query))
	entityType = strings.TrimSpace(entityType)

	found := make([]common.Entity, 0)
	for _, e := range entities {
		if limit > 0 && len(found) >= limit {
			break
		}
		if entityType != "" && !strings.EqualFold(e.Type, entityType) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(e.Name), query) &&
			!strings.Contains(strings.ToLower(e.GUID), query) {
			continue
		}
		found = append(found, e)
	}
	return found
}
