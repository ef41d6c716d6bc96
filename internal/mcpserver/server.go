// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Stele tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/okvist/stele/internal/apperr"
	"github.com/okvist/stele/internal/postservice"
	"github.com/okvist/stele/internal/resolver"
)

// Server wraps the MCP server with Stele tools.
type Server struct {
	mcp *server.MCPServer
	svc *postservice.Service
}

// New creates a new MCP server with all Stele tools registered.
func New(svc *postservice.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Stele",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Full-text search through post titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithBoolean("preview", mcp.Description("Include unpublished drafts in results")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("read_post",
		mcp.WithDescription("Read a post by slug: full metadata plus the Markdown body."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug (e.g. topics/redux)")),
		mcp.WithBoolean("preview", mcp.Description("Allow reading unpublished drafts")),
	), s.readPost)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List post summaries, newest first."),
		mcp.WithString("category", mcp.Description("Optional category filter")),
		mcp.WithBoolean("preview", mcp.Description("Include unpublished drafts")),
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("resolve_path",
		mcp.WithDescription("Resolve a site path the way the public server would: "+
			"content, a permanent redirect, or not found."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Site-relative path (e.g. /old/url)")),
	), s.resolvePath)

	s.mcp.AddTool(mcp.NewTool("get_article_contract",
		mcp.WithDescription("Returns the canonical Stele article format contract. "+
			"Call this before authoring post sources to ensure correct structure."),
	), s.getArticleContract)

	// Resource: article format contract.
	s.mcp.AddResource(
		mcp.NewResource("stele://frontmatter-format", "Article Format Contract",
			mcp.WithResourceDescription("Canonical Markdown article format that all posts must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20, req.GetBool("preview", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post, err := s.svc.GetPost(ctx, slug, req.GetBool("preview", false))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(post, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := ""
	if c, err := req.RequireString("category"); err == nil {
		category = c
	}
	items, _, err := s.svc.ListPosts(ctx, 0, 0, category, "", req.GetBool("preview", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(items, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) resolvePath(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res := s.svc.Resolve(ctx, path, false)
	switch res.Kind {
	case resolver.KindContent:
		return mcp.NewToolResultText(fmt.Sprintf("content: %s", res.Post.Slug)), nil
	case resolver.KindRedirect:
		return mcp.NewToolResultText(fmt.Sprintf("redirect: %s (permanent=%t)", res.Target, res.Permanent)), nil
	default:
		return mcp.NewToolResultText("not found"), nil
	}
}

func (s *Server) getArticleContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FrontmatterContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "stele://frontmatter-format",
			MIMEType: "text/markdown",
			Text:     FrontmatterContract,
		},
	}, nil
}
