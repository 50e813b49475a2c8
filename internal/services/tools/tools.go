// Package tools exposes pagegen operations as MCP tools served over stdio.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/temirov/pagegen/internal/commands"
	"github.com/temirov/pagegen/internal/output"
	"github.com/temirov/pagegen/internal/utils"
)

const (
	serverName = "pagegen"

	ToolNotionTree   = "notion_tree"
	ToolNotionPrompt = "notion_prompt"
	ToolExtractFiles = "extract_files"

	pageIDSeparator = ","
)

// TreeArguments are the arguments of the notion_tree tool.
type TreeArguments struct {
	PageID string `json:"pageId"`
	Depth  *int   `json:"depth,omitempty"`
}

// PromptArguments are the arguments of the notion_prompt tool.
type PromptArguments struct {
	PageIDs     string `json:"pageIds"`
	ProjectType string `json:"projectType,omitempty"`
	Depth       *int   `json:"depth,omitempty"`
}

// ExtractArguments are the arguments of the extract_files tool.
type ExtractArguments struct {
	Completion string `json:"completion"`
}

// NewServer registers the pagegen tools on a new MCP server.
func NewServer(environment commands.Environment) *server.MCPServer {
	mcpServer := server.NewMCPServer(
		serverName,
		utils.GetApplicationVersion(),
		server.WithToolCapabilities(false),
	)

	treeTool := mcp.NewTool(ToolNotionTree,
		mcp.WithDescription("Fetch a Notion page and its subpages and return the page outline as JSON"),
		mcp.WithString("pageId",
			mcp.Required(),
			mcp.Description("Notion page id or page URL"),
		),
		mcp.WithNumber("depth",
			mcp.Description("Levels of subpages to follow below the page"),
		),
	)
	mcpServer.AddTool(treeTool, mcp.NewTypedToolHandler(treeHandler(environment)))

	promptTool := mcp.NewTool(ToolNotionPrompt,
		mcp.WithDescription("Flatten Notion pages into markdown documentation and build the code generation prompt"),
		mcp.WithString("pageIds",
			mcp.Required(),
			mcp.Description("Comma separated Notion page ids or page URLs"),
		),
		mcp.WithString("projectType",
			mcp.Description("Kind of project to generate, for example React"),
		),
		mcp.WithNumber("depth",
			mcp.Description("Levels of subpages to follow below each page"),
		),
	)
	mcpServer.AddTool(promptTool, mcp.NewTypedToolHandler(promptHandler(environment)))

	extractTool := mcp.NewTool(ToolExtractFiles,
		mcp.WithDescription("Recover a path to content map of files from a model completion"),
		mcp.WithString("completion",
			mcp.Required(),
			mcp.Description("Raw completion text"),
		),
	)
	mcpServer.AddTool(extractTool, mcp.NewTypedToolHandler(extractHandler(environment)))

	return mcpServer
}

// ServeStdio serves the tools over standard input and output until the input closes.
func ServeStdio(environment commands.Environment) error {
	return server.ServeStdio(NewServer(environment))
}

func treeHandler(environment commands.Environment) func(context.Context, mcp.CallToolRequest, TreeArguments) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args TreeArguments) (*mcp.CallToolResult, error) {
		if strings.TrimSpace(args.PageID) == "" {
			return mcp.NewToolResultError("pageId is required"), nil
		}
		result, treeErr := commands.Tree(ctx, environment, "", commands.TreeRequest{PageID: args.PageID, Depth: args.Depth})
		if treeErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to fetch page tree: %v", treeErr)), nil
		}
		return jsonResult(result)
	}
}

func promptHandler(environment commands.Environment) func(context.Context, mcp.CallToolRequest, PromptArguments) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args PromptArguments) (*mcp.CallToolResult, error) {
		pageIDs := splitPageIDs(args.PageIDs)
		if len(pageIDs) == 0 {
			return mcp.NewToolResultError("pageIds is required"), nil
		}
		result, promptErr := commands.Prompt(ctx, environment, "", commands.GenerationRequest{
			PageIDs:     pageIDs,
			ProjectType: args.ProjectType,
			Depth:       args.Depth,
		})
		if promptErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to build prompt: %v", promptErr)), nil
		}
		return jsonResult(result)
	}
}

func extractHandler(environment commands.Environment) func(context.Context, mcp.CallToolRequest, ExtractArguments) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args ExtractArguments) (*mcp.CallToolResult, error) {
		result, extractErr := commands.Extract(ctx, environment, commands.ExtractRequest{Completion: args.Completion})
		if extractErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to extract files: %v", extractErr)), nil
		}
		return jsonResult(result)
	}
}

func jsonResult(value interface{}) (*mcp.CallToolResult, error) {
	rendered, renderErr := output.RenderJSON(value)
	if renderErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", renderErr)), nil
	}
	return mcp.NewToolResultText(rendered), nil
}

func splitPageIDs(raw string) []string {
	var pageIDs []string
	for _, candidate := range strings.Split(raw, pageIDSeparator) {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			pageIDs = append(pageIDs, trimmed)
		}
	}
	return pageIDs
}
