// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes parasync tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/parasync/internal/apperr"
	"github.com/starford/parasync/internal/index"
	"github.com/starford/parasync/internal/noteservice"
)

const contractURI = "parasync://frontmatter-format"

// Server wraps the MCP server with parasync tools.
type Server struct {
	mcp *server.MCPServer
	svc *noteservice.Service
}

// New creates a new MCP server with all parasync tools registered.
func New(svc *noteservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"parasync",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("preview_note",
		mcp.WithDescription("Show the canonical form of a note and where a sync would move it, without writing anything. "+
			"Pass content to preview a draft; omit it to preview the note stored at path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path of the note inside the vault (e.g. 02 - Areas/Family/note.md)")),
		mcp.WithString("content", mcp.Description("Optional draft content to reconcile instead of the stored note")),
	), s.previewNote)

	s.mcp.AddTool(mcp.NewTool("sync_vault",
		mcp.WithDescription("Normalize the frontmatter of every note in the vault and move notes to their canonical folders. "+
			"Use dry_run to see the report without touching files."),
		mcp.WithBoolean("dry_run", mcp.Description("Report what would change without writing")),
	), s.syncVault)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List indexed notes with their PARA classification, optionally filtered."),
		mcp.WithString("para", mcp.Description("Filter by para: project, area, resource, journal or inbox")),
		mcp.WithString("category", mcp.Description("Filter by category")),
		mcp.WithString("tag", mcp.Description("Filter by tag")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("get_frontmatter_contract",
		mcp.WithDescription("Returns the canonical frontmatter contract. "+
			"Call this before writing notes so they need no rewriting on the next sync."),
	), s.getFrontmatterContract)

	// Resource: frontmatter contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Frontmatter Contract",
			mcp.WithResourceDescription("Canonical frontmatter block and inline tag conventions for PARA notes."),
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

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) previewNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.Preview(ctx, path, req.GetString("content", ""))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(p), nil
}

func (s *Server) syncVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.Sync(ctx, req.GetBool("dry_run", false))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report), nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notes, err := s.svc.ListNotes(ctx, index.NoteFilter{
		Para:     req.GetString("para", ""),
		Category: req.GetString("category", ""),
		Tag:      req.GetString("tag", ""),
	})
	if err != nil {
		if errors.Is(err, apperr.ErrLedgerDisabled) {
			return mcp.NewToolResultError("note index unavailable: ledger is disabled in config"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("no notes found"), nil
	}
	return jsonResult(notes), nil
}

func (s *Server) getFrontmatterContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(FrontmatterContract), nil
}

func (s *Server) readContractResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     FrontmatterContract,
		},
	}, nil
}
