// Package resources implements MCP resource handlers for planward.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (planward://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/planward/planward/internal/plans"
)

// Handler manages planward resource endpoints.
type Handler struct {
	store *plans.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *plans.Store) *Handler {
	return &Handler{store: store}
}

// IndexResource returns the MCP resource definition for the plan index.
func (h *Handler) IndexResource() mcp.Resource {
	return mcp.NewResource(
		"planward://plans/index",
		"Plan Index",
		mcp.WithResourceDescription("Every saved planning session: problem, phase, selected branch, and file locations"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleIndex returns the plan index as JSON.
func (h *Handler) HandleIndex(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	idx := h.store.ReadIndex()

	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling plan index: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
