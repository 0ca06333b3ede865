// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes log-book tools for LLM integration via stdio transport. The
// server is bound to a single principal resolved at startup; every tool
// call runs under that user's ownership scope.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/laguz/internal/bookservice"
	"github.com/starford/laguz/internal/models"
	"github.com/starford/laguz/internal/payload"
)

// Server wraps the MCP server with Laguz tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *bookservice.Service
	userID string
}

// New creates a new MCP server with all Laguz tools registered, acting as
// the given user.
func New(svc *bookservice.Service, userID string) *Server {
	s := &Server{svc: svc, userID: userID}

	s.mcp = server.NewMCPServer(
		"Laguz",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_log_books",
		mcp.WithDescription("List the user's log books with their slugs."),
	), s.listLogBooks)

	s.mcp.AddTool(mcp.NewTool("read_log_book",
		mcp.WithDescription("Read a log book and its entries, newest first."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Log book slug (e.g. trip-notes)")),
	), s.readLogBook)

	s.mcp.AddTool(mcp.NewTool("create_log_book",
		mcp.WithDescription("Create a new log book. The slug is derived from the title."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Book title")),
		mcp.WithString("description", mcp.Description("Optional description")),
	), s.createLogBook)

	s.mcp.AddTool(mcp.NewTool("add_entry",
		mcp.WithDescription("Append an entry holding one payload variant to a log book. "+
			"Read the contract first via the get_entry_contract tool or the "+
			"laguz://entry-format resource."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Parent log book slug")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Payload kind: number, number_array, short_text, or long_text")),
		mcp.WithNumber("number", mcp.Description("Decimal value for kind=number")),
		mcp.WithString("number_array", mcp.Description("Comma/newline separated decimals for kind=number_array")),
		mcp.WithString("text", mcp.Description("Text value for kind=short_text or kind=long_text")),
	), s.addEntry)

	s.mcp.AddTool(mcp.NewTool("get_entry_contract",
		mcp.WithDescription("Returns the canonical entry payload contract. "+
			"Call this before adding entries to ensure correct arguments."),
	), s.getEntryContract)

	// Resource: entry format contract.
	s.mcp.AddResource(
		mcp.NewResource("laguz://entry-format", "Entry Format Contract",
			mcp.WithResourceDescription("Canonical payload rules for log book entries."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEntryFormatResource,
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

func (s *Server) listLogBooks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	books, err := s.svc.ListBooks(ctx, s.userID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(books) == 0 {
		return mcp.NewToolResultText("no log books"), nil
	}
	var lines []string
	for _, b := range books {
		lines = append(lines, fmt.Sprintf("%s\t%s", b.Slug, b.Title))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readLogBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	book, err := s.svc.GetBook(ctx, s.userID, slug)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
	}
	out, _ := json.MarshalIndent(book, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createLogBook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	description := req.GetString("description", "")

	book, err := s.svc.CreateBook(ctx, s.userID, title, description)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", book.Slug)), nil
}

func (s *Server) addEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	kind, err := req.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	in := bookservice.EntryInput{
		Payload: payload.Input{Kind: models.Kind(kind)},
	}
	switch models.Kind(kind) {
	case models.KindNumber:
		n, err := req.RequireFloat("number")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		in.Payload.Number = &n
	case models.KindNumberArray:
		in.Payload.NumberArrayText = req.GetString("number_array", "")
	case models.KindShortText:
		in.Payload.ShortText = req.GetString("text", "")
	case models.KindLongText:
		in.Payload.LongText = req.GetString("text", "")
	}

	entry, err := s.svc.CreateEntry(ctx, s.userID, slug, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("added entry %d to %s", entry.ID, slug)), nil
}

func (s *Server) getEntryContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EntryFormatContract), nil
}

func (s *Server) readEntryFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "laguz://entry-format",
			MIMEType: "text/markdown",
			Text:     EntryFormatContract,
		},
	}, nil
}
