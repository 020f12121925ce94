package tools

import (
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

// resultText returns the first text content of a tool result
func resultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	for _, c := range result.Content {
		if text, ok := c.(mcp.TextContent); ok {
			return text.Text
		}
	}
	return ""
}

func assertErrorResult(t *testing.T, result *mcp.CallToolResult, message string) {
	t.Helper()
	if result == nil || !result.IsError {
		t.Error(message)
	}
}

func assertSuccessResult(t *testing.T, result *mcp.CallToolResult, message string) {
	t.Helper()
	if result == nil {
		t.Fatalf("%s: nil result", message)
	}
	if result.IsError {
		t.Fatalf("%s. Got error: %s", message, resultText(result))
	}
}

func parseResultJSON(t *testing.T, result *mcp.CallToolResult, out any) {
	t.Helper()
	if err := json.Unmarshal([]byte(resultText(result)), out); err != nil {
		t.Fatalf("failed to parse result %q: %v", resultText(result), err)
	}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}
