// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Reboard board operations as tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/reboard/internal/boardservice"
	"github.com/starford/reboard/internal/storage"
)

// Server wraps the MCP server with Reboard tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *boardservice.Service
	store storage.Provider
}

// New creates a new MCP server with all Reboard tools registered.
func New(svc *boardservice.Service, store storage.Provider) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"Reboard",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_boards",
		mcp.WithDescription("List all boards (folders containing notes) with their note counts."),
	), s.listBoards)

	s.mcp.AddTool(mcp.NewTool("get_board",
		mcp.WithDescription("Get the cards of one board, sorted by modification time (newest first). "+
			"Snoozed notes are hidden unless include_snoozed is true."),
		mcp.WithString("folder", mcp.Description("Board folder path (empty for the vault root)")),
		mcp.WithBoolean("include_snoozed", mcp.Description("Include currently snoozed notes")),
	), s.getBoard)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a Markdown note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the note (e.g. folder/note.md)")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new empty note on a board. The name is made unique "+
			"automatically (New Note.md, New Note 1.md, ...)."),
		mcp.WithString("folder", mcp.Description("Board folder for the new note (empty for the vault root)")),
		mcp.WithString("name", mcp.Description("Optional base name for the note")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("snooze_note",
		mcp.WithDescription("Snooze a note so it disappears from its board until the expiry passes. "+
			"Omit hours (or pass 0) to use the incremental escalation policy."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name, e.g. note.md")),
		mcp.WithNumber("hours", mcp.Description("Explicit snooze duration in hours")),
	), s.snoozeNote)

	s.mcp.AddTool(mcp.NewTool("wake_note",
		mcp.WithDescription("Clear a note's snooze so it reappears on its board."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Note name, e.g. note.md")),
	), s.wakeNote)

	s.mcp.AddTool(mcp.NewTool("sweep_board",
		mcp.WithDescription("Clear all expired snoozes within a board scope, earliest expiry first."),
		mcp.WithString("folder", mcp.Description("Board folder path (empty for the vault root)")),
	), s.sweepBoard)

	// Resource: snooze frontmatter contract.
	s.mcp.AddResource(
		mcp.NewResource("reboard://snooze-format", "Snooze Frontmatter Contract",
			mcp.WithResourceDescription("How snooze state is persisted inside a note's frontmatter."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSnoozeFormatResource,
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

func (s *Server) listBoards(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.svc.Boards(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}
	includeSnoozed := false
	if v, ok := req.GetArguments()["include_snoozed"].(bool); ok {
		includeSnoozed = v
	}

	notes, err := s.svc.Board(folder, includeSnoozed)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(notes, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}
	name := ""
	if n, err := req.RequireString("name"); err == nil {
		name = n
	}

	card, err := s.svc.CreateNote(folder, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", card.Path)), nil
}

func (s *Server) snoozeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hours := 0
	if v, ok := req.GetArguments()["hours"].(float64); ok {
		hours = int(v)
	}
	if hours < 0 {
		return mcp.NewToolResultError("hours must not be negative"), nil
	}

	rec, err := s.svc.SnoozeNote(name, hours)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("snoozed %s for %d hour(s)", rec.Name, rec.Snooze.Interval)), nil
}

func (s *Server) wakeNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.WakeNote(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("woken: %s", rec.Name)), nil
}

func (s *Server) sweepBoard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}
	cleared, err := s.svc.SweepExpired(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(cleared) == 0 {
		return mcp.NewToolResultText("no expired snoozes"), nil
	}
	return mcp.NewToolResultText(strings.Join(cleared, "\n")), nil
}

func (s *Server) readSnoozeFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "reboard://snooze-format",
			MIMEType: "text/markdown",
			Text:     SnoozeFormatContract,
		},
	}, nil
}
