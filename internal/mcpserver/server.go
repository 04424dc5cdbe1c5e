// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes launcher catalog tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/launchpad/internal/apperr"
	"github.com/starford/launchpad/internal/launcher"
	"github.com/starford/launchpad/internal/models"
)

// Actor is recorded in the audit log for changes made over MCP.
const Actor = "mcp"

const catalogFormatURI = "launchpad://catalog-format"

// Server wraps the MCP server with launcher tools.
type Server struct {
	mcp *server.MCPServer
	svc *launcher.Service
}

// New creates a new MCP server with all launcher tools registered.
func New(svc *launcher.Service) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Launchpad",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_apps",
		mcp.WithDescription("List every app in the launcher catalog, in display order."),
	), s.listApps)

	s.mcp.AddTool(mcp.NewTool("get_app",
		mcp.WithDescription("Read a single app entry by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("App identifier")),
	), s.getApp)

	s.mcp.AddTool(mcp.NewTool("save_app",
		mcp.WithDescription("Create or replace an app entry. An entry with the same id is replaced in place; "+
			"otherwise the entry is appended. Every field must be non-empty. Read the contract first via "+
			"the get_catalog_contract tool or the "+catalogFormatURI+" resource."),
		mcp.WithString("id", mcp.Description("App identifier (generated when omitted)")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Display name")),
		mcp.WithString("shortDescription", mcp.Required(), mcp.Description("One-line summary shown on the tile")),
		mcp.WithString("longDescription", mcp.Required(), mcp.Description("Text shown in the info dialog")),
		mcp.WithString("icon", mcp.Required(), mcp.Description("Icon path, usually returned by upload_icon")),
		mcp.WithString("url", mcp.Required(), mcp.Description("Launch target URL")),
		mcp.WithString("iconBg", mcp.Description("Tile background: primary, secondary, accent or neutral (default neutral)")),
	), s.saveApp)

	s.mcp.AddTool(mcp.NewTool("remove_app",
		mcp.WithDescription("Remove an app entry by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("App identifier")),
	), s.removeApp)

	s.mcp.AddTool(mcp.NewTool("upload_icon",
		mcp.WithDescription("Upload an app icon from an http(s) URL or a base64 data URI. "+
			"Only png and svg are accepted. Returns the public path to use as the app's icon."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:image/...;base64,... URI")),
		mcp.WithString("app_id", mcp.Description("App the icon belongs to; used to namespace the stored file")),
		mcp.WithString("filename", mcp.Description("Optional filename hint (extension decides the type)")),
	), s.uploadIcon)

	s.mcp.AddTool(mcp.NewTool("get_catalog_contract",
		mcp.WithDescription("Returns the launcher catalog format contract. "+
			"Call this before saving apps to ensure correct structure."),
	), s.getCatalogContract)

	s.mcp.AddResource(
		mcp.NewResource(catalogFormatURI, "Catalog Format Contract",
			mcp.WithResourceDescription("Format of the apps document that drives the launcher page."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCatalogFormatResource,
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

func (s *Server) listApps(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc := s.svc.Catalog(ctx)
	out, _ := json.MarshalIndent(doc.Apps, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	app, err := s.svc.App(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(app, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

type saveResult struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
}

func (s *Server) saveApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	app := models.AppEntry{
		ID:               req.GetString("id", ""),
		Title:            req.GetString("title", ""),
		ShortDescription: req.GetString("shortDescription", ""),
		LongDescription:  req.GetString("longDescription", ""),
		Icon:             req.GetString("icon", ""),
		URL:              req.GetString("url", ""),
		IconBg:           req.GetString("iconBg", models.IconBgNeutral),
	}
	if app.ID == "" {
		app.ID = "app-" + uuid.New().String()[:8]
	}

	created, err := s.svc.UpsertApp(ctx, app, Actor)
	switch {
	case errors.Is(err, apperr.ErrMissingFields):
		return mcp.NewToolResultError(fmt.Sprintf("missing required fields: %v", err)), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("failed to save catalog: %v", err)), nil
	}

	out, _ := json.Marshal(saveResult{ID: app.ID, Created: created})
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) removeApp(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.RemoveApp(ctx, id, Actor); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed: %s", id)), nil
}

func (s *Server) getCatalogContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CatalogFormatContract), nil
}

func (s *Server) readCatalogFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      catalogFormatURI,
			MIMEType: "text/markdown",
			Text:     CatalogFormatContract,
		},
	}, nil
}
