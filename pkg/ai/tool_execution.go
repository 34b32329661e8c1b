package ai

import "fmt"

// ToolExecution defines where a tool is executed.
//
//   - ToolExecutionServer: executed by the backend loop immediately.
//   - ToolExecutionClient: returned to the caller so the client can execute it.
type ToolExecution string

const (
	ToolExecutionServer ToolExecution = "server"
	ToolExecutionClient ToolExecution = "client"
)

const DefaultMaxRounds = 8

// NormalizedToolExecution returns a normalized execution mode where empty or
// unknown values default to server execution.
func (t Tool) NormalizedToolExecution() ToolExecution {
	if t.Execution == ToolExecutionClient {
		return ToolExecutionClient
	}

	return ToolExecutionServer
}

// FindTool returns the tool with the given name.
func FindTool(tools []Tool, name string) (Tool, bool) {
	for _, tool := range tools {
		if tool.Name == name {
			return tool, true
		}
	}
	return Tool{}, false
}

// SplitToolCalls separates the calls a backend must run itself from the
// calls handed back to the caller. Unknown tools are an error.
func SplitToolCalls(tools []Tool, calls []ToolCall) (server []ToolCall, client []ToolCall, err error) {
	for _, call := range calls {
		tool, ok := FindTool(tools, call.Name)
		if !ok {
			return nil, nil, fmt.Errorf("no handler found for tool: %s", call.Name)
		}
		if tool.NormalizedToolExecution() == ToolExecutionClient {
			client = append(client, call)
			continue
		}
		if tool.Handler == nil {
			return nil, nil, fmt.Errorf("no handler found for tool: %s", call.Name)
		}
		server = append(server, call)
	}
	return server, client, nil
}
