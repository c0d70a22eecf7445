// Package tools implements the MCP tool handlers for planward.
//
// Each tool is a struct that receives its dependencies at construction
// (DIP) and exposes a Definition for registration plus a Handle method
// compatible with mcp-go's CallToolRequest signature.
//
// Design principles:
// - SRP: each file = one tool
// - DIP: tools depend on the planning machine and stores, not globals
// - OCP: new tools are added without modifying existing ones
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/planward/planward/internal/planning"
)

// planningResult serializes a machine result as the tool response. Error
// results keep the full metadata payload so the caller can see which
// session and phase the failure relates to.
func planningResult(r *planning.Result) *mcp.CallToolResult {
	text := jsonText(r)
	if r.IsError {
		return mcp.NewToolResultError(text)
	}
	return mcp.NewToolResultText(text)
}

// jsonText marshals v as indented JSON for a tool response.
func jsonText(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"status":"error","message":"encoding response: %v"}`, err)
	}
	return string(data)
}
