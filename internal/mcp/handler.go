package mcp

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
)

// --------------------------------------------------------------------------
// Parameter extraction helpers
// --------------------------------------------------------------------------

// optionalString extracts an optional string argument from the tool request.
func optionalString(request mcp.CallToolRequest, key string) string {
	return request.GetString(key, "")
}

// requireID extracts the integer "id" argument. JSON numbers arrive as
// float64, so fractional values are rejected explicitly.
func requireID(request mcp.CallToolRequest) (int64, error) {
	args := request.GetArguments()
	raw, ok := args["id"]
	if !ok {
		return 0, fmt.Errorf("missing required parameter %q", "id")
	}
	f, ok := raw.(float64)
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("parameter %q must be an integer, got %v", "id", raw)
	}
	return int64(f), nil
}

// --------------------------------------------------------------------------
// Response builders
// --------------------------------------------------------------------------

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data interface{}) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. The model sees the message
// and can retry; the MCP session stays open.
func toolError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}
