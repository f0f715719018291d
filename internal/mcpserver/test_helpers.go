package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CallTool invokes a registered tool's handler directly with params
// marshaled the same way the real transport would decode them,
// without going through StdioTransport. It exists for tests.
func (s *Server) CallTool(toolName string, params map[string]interface{}) (string, error) {
	ctx := context.Background()

	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}

	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{
			Name:      toolName,
			Arguments: paramsJSON,
		},
	}

	var result *mcp.CallToolResult
	switch toolName {
	case "keel/compile":
		result, err = s.handleCompile(ctx, req)
	case "keel/map":
		result, err = s.handleMap(ctx, req)
	case "keel/discover":
		result, err = s.handleDiscover(ctx, req)
	case "keel/where":
		result, err = s.handleWhere(ctx, req)
	case "keel/explain":
		result, err = s.handleExplain(ctx, req)
	default:
		return "", fmt.Errorf("unknown tool %q", toolName)
	}
	if err != nil {
		return "", err
	}
	if len(result.Content) == 0 {
		return "", nil
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		return "", fmt.Errorf("tool %q returned non-text content", toolName)
	}
	return text.Text, nil
}
