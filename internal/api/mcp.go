package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/scena/internal/assistant"
	"github.com/kalambet/scena/internal/intent"
	"github.com/kalambet/scena/internal/matching"
	"github.com/kalambet/scena/internal/session"
	"github.com/kalambet/scena/internal/talent"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Assistant *assistant.Assistant
	Catalog   *talent.Catalog
	Engine    *matching.Engine
	Extractor intent.Extractor
}

// NewMCPServer creates an MCP server exposing the matching core as tools so
// an MCP-capable client can drive the casting assistant.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"scena",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("scena — casting assistant: rank talent profiles against a role description."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("match_talents",
			mcp.WithDescription("Rank the talent catalog against a free-text role description and return the top matches."),
			mcp.WithString("role_description", mcp.Description("Free-text description of the role to cast"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of matches to return (default 5)")),
		),
		mcpMatchTalents(deps),
	)

	s.AddTool(
		mcp.NewTool("list_talents",
			mcp.WithDescription("List all talent profiles in the catalog."),
		),
		mcpListTalents(deps),
	)

	s.AddTool(
		mcp.NewTool("get_session",
			mcp.WithDescription("Fetch a conversation session's history and metadata."),
			mcp.WithString("session_id", mcp.Description("Session identifier"), mcp.Required()),
		),
		mcpGetSession(deps),
	)

	return s
}

func mcpMatchTalents(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		role, err := req.RequireString("role_description")
		if err != nil {
			return mcpError("role_description is required"), nil
		}

		limit := req.GetInt("limit", 5)
		if limit <= 0 {
			limit = 5
		}
		if limit > 10 {
			limit = 10
		}

		requirements := deps.Extractor.Extract(ctx, role)
		candidates, err := deps.Catalog.List()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to load catalog: %v", err)), nil
		}

		report := deps.Engine.MatchTalents(ctx, requirements, candidates)
		matches := report.AllMatches
		if len(matches) > limit {
			matches = matches[:limit]
		}

		out := struct {
			Requirements intent.Requirements `json:"requirements"`
			Matches      []matching.Match    `json:"matches"`
			Insights     []string            `json:"insights"`
		}{requirements, matches, report.Insights}

		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListTalents(deps MCPDeps) server.ToolHandlerFunc {
	return func(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		profiles, err := deps.Catalog.List()
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list talents: %v", err)), nil
		}

		b, err := json.Marshal(profiles)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal talents: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGetSession(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}

		s, err := deps.Assistant.GetSession(ctx, id)
		if errors.Is(err, session.ErrNotFound) {
			return mcpError("session not found"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to get session: %v", err)), nil
		}

		b, err := json.Marshal(s)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal session: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
