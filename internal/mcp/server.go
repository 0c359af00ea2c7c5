package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/gospelstudy/gospellib/internal/usecase"
	"github.com/gospelstudy/gospellib/lib/catalog"
	"github.com/gospelstudy/gospellib/lib/record"
)

// Server exposes the library read operations as MCP tools.
type Server struct {
	server  *mcp.Server
	library *usecase.Library
}

// NewServer creates a new MCP server instance
func NewServer(library *usecase.Library, version string) *Server {
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "gospellib",
		Version: version,
	}, nil)

	s := &Server{
		server:  mcpServer,
		library: library,
	}
	s.registerTools()
	return s
}

// Run starts the MCP server with stdio transport
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "catalog_version",
		Description: "Resolve the catalog version currently published for the configured language",
	}, s.handleCatalogVersion)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "catalog_item",
		Description: "Look up a catalog item by uri or by id",
	}, s.handleCatalogItem)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "catalog_nodes",
		Description: "List the collections and items under library sections, ordered by position",
	}, s.handleCatalogNodes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "package_subitems",
		Description: "List the subitems (chapters, talks) of an item",
	}, s.handlePackageSubitems)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "package_html",
		Description: "Read the HTML of a subitem, or of one paragraph of it",
	}, s.handlePackageHTML)
}

type CatalogVersionInput struct{}

type CatalogVersionOutput struct {
	CatalogVersion int `json:"catalogVersion"`
}

type CatalogItemInput struct {
	URI string `json:"uri,omitempty" jsonschema:"Item uri such as /scriptures/bofm"`
	ID  int64  `json:"id,omitempty" jsonschema:"Catalog item id"`
}

type CatalogItemOutput struct {
	Item record.Item `json:"item"`
}

type CatalogNodesInput struct {
	SectionIDs []int64 `json:"sectionIds" jsonschema:"Library section ids"`
}

type CatalogNodesOutput struct {
	Nodes []record.Node `json:"nodes"`
}

type PackageSubitemsInput struct {
	ItemURI string `json:"itemUri" jsonschema:"Item uri such as /scriptures/bofm"`
}

type PackageSubitemsOutput struct {
	Subitems []record.Subitem `json:"subitems"`
}

type PackageHTMLInput struct {
	ItemURI     string `json:"itemUri" jsonschema:"Item uri such as /scriptures/bofm"`
	SubitemURI  string `json:"subitemUri" jsonschema:"Subitem uri such as /scriptures/bofm/1-ne/11"`
	ParagraphID string `json:"paragraphId,omitempty" jsonschema:"Paragraph id such as p17; the whole subitem when omitted"`
}

type PackageHTMLOutput struct {
	HTML string `json:"html"`
}

// Tool handlers

func (s *Server) handleCatalogVersion(ctx context.Context, req *mcp.CallToolRequest, input CatalogVersionInput) (*mcp.CallToolResult, CatalogVersionOutput, error) {
	version, err := s.library.CatalogVersion(ctx)
	if err != nil {
		return nil, CatalogVersionOutput{}, fmt.Errorf("failed to resolve catalog version: %w", err)
	}
	return nil, CatalogVersionOutput{CatalogVersion: version}, nil
}

func (s *Server) handleCatalogItem(ctx context.Context, req *mcp.CallToolRequest, input CatalogItemInput) (*mcp.CallToolResult, CatalogItemOutput, error) {
	item, err := s.library.Item(ctx, catalog.ItemQuery{ID: input.ID, URI: input.URI})
	if err != nil {
		return nil, CatalogItemOutput{}, fmt.Errorf("failed to look up item: %w", err)
	}
	return nil, CatalogItemOutput{Item: *item}, nil
}

func (s *Server) handleCatalogNodes(ctx context.Context, req *mcp.CallToolRequest, input CatalogNodesInput) (*mcp.CallToolResult, CatalogNodesOutput, error) {
	if len(input.SectionIDs) == 0 {
		return nil, CatalogNodesOutput{}, fmt.Errorf("at least one section id is required")
	}
	nodes, err := s.library.Nodes(ctx, input.SectionIDs)
	if err != nil {
		return nil, CatalogNodesOutput{}, fmt.Errorf("failed to list nodes: %w", err)
	}
	return nil, CatalogNodesOutput{Nodes: nodes}, nil
}

func (s *Server) handlePackageSubitems(ctx context.Context, req *mcp.CallToolRequest, input PackageSubitemsInput) (*mcp.CallToolResult, PackageSubitemsOutput, error) {
	subitems, err := s.library.Subitems(ctx, input.ItemURI)
	if err != nil {
		return nil, PackageSubitemsOutput{}, fmt.Errorf("failed to list subitems: %w", err)
	}
	return nil, PackageSubitemsOutput{Subitems: subitems}, nil
}

func (s *Server) handlePackageHTML(ctx context.Context, req *mcp.CallToolRequest, input PackageHTMLInput) (*mcp.CallToolResult, PackageHTMLOutput, error) {
	html, err := s.library.HTML(ctx, input.ItemURI, input.SubitemURI, input.ParagraphID)
	if err != nil {
		return nil, PackageHTMLOutput{}, fmt.Errorf("failed to read html: %w", err)
	}
	return nil, PackageHTMLOutput{HTML: html}, nil
}
