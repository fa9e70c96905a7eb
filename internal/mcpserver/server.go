// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the linkograph engine and store via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/linkograph/internal/analysis"
	"github.com/starford/linkograph/internal/linkograph"
	"github.com/starford/linkograph/internal/store"
)

const contractURI = "linkograph://protocol-format"

var (
	linkItems = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"move1": map[string]any{"type": "integer"},
			"move2": map[string]any{"type": "integer"},
		},
		"required": []string{"move1", "move2"},
	}
	rowItems = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"n1":        map[string]any{"type": "integer"},
			"n2":        map[string]any{"type": "integer"},
			"run_count": map[string]any{"type": "integer"},
		},
		"required": []string{"n1", "n2", "run_count"},
	}
)

// Server wraps the MCP server with linkograph tools.
type Server struct {
	mcp *server.MCPServer
	svc *analysis.Service
}

// New creates a new MCP server with all linkograph tools registered.
func New(svc *analysis.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Linkograph",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("compute_entropy",
		mcp.WithDescription("Entropy of a linkograph: Shannon entropy over per-row link counts "+
			"and the empty points, each divided by the full point space N(N-1)/2."),
		mcp.WithNumber("move_count", mcp.Required(), mcp.Description("Number of moves N (>= 2)")),
		mcp.WithArray("links", mcp.Required(), mcp.Description("Selected links, move1 < move2"), mcp.Items(linkItems)),
		mcp.WithBoolean("zero_based", mcp.Description("Links are numbered from 0 instead of 1")),
	), s.computeEntropy)

	s.mcp.AddTool(mcp.NewTool("compute_run_test",
		mcp.WithDescription("Wald-Wolfowitz runs test. Returns z (null when degenerate) and the two-tailed p-value."),
		mcp.WithNumber("n1", mcp.Required(), mcp.Description("Count of the first outcome kind")),
		mcp.WithNumber("n2", mcp.Required(), mcp.Description("Count of the second outcome kind")),
		mcp.WithNumber("run_count", mcp.Required(), mcp.Description("Observed number of runs")),
	), s.computeRunTest)

	s.mcp.AddTool(mcp.NewTool("compute_creativity_score",
		mcp.WithDescription("Logistic creativity score from per-row run statistics."),
		mcp.WithNumber("move_count", mcp.Required(), mcp.Description("Number of moves N")),
		mcp.WithArray("rows", mcp.Required(), mcp.Description("Per-row run statistics"), mcp.Items(rowItems)),
	), s.computeCreativityScore)

	s.mcp.AddTool(mcp.NewTool("compute_row_statistics",
		mcp.WithDescription("Per-row run statistics (n1 linked slots, n2 empty slots, run_count) of a link set. "+
			"The result can be passed to compute_creativity_score."),
		mcp.WithNumber("move_count", mcp.Required(), mcp.Description("Number of moves N (>= 2)")),
		mcp.WithArray("links", mcp.Description("Selected links, move1 < move2"), mcp.Items(linkItems)),
		mcp.WithBoolean("zero_based", mcp.Description("Links are numbered from 0 instead of 1")),
	), s.computeRowStatistics)

	s.mcp.AddTool(mcp.NewTool("list_linkographs",
		mcp.WithDescription("List stored linkographs, most recently updated first."),
		mcp.WithString("query", mcp.Description("Optional case-insensitive name filter")),
	), s.listLinkographs)

	s.mcp.AddTool(mcp.NewTool("analyze_linkograph",
		mcp.WithDescription("Full analysis report (entropy, row statistics, creativity score) of a stored linkograph."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Linkograph ID")),
	), s.analyzeLinkograph)

	s.mcp.AddTool(mcp.NewTool("import_protocol",
		mcp.WithDescription("Import a design protocol file into the protocol directory and store its linkograph. "+
			"Provide either content or url. Content MUST follow the protocol format contract; read it "+
			"first via the get_protocol_contract tool or the "+contractURI+" resource."),
		mcp.WithString("name", mcp.Description("File name for the protocol (\".md\" is appended when missing)")),
		mcp.WithString("content", mcp.Description("Protocol Markdown")),
		mcp.WithString("url", mcp.Description("http(s) or data: URL to fetch the protocol from")),
	), s.importProtocol)

	s.mcp.AddTool(mcp.NewTool("get_protocol_contract",
		mcp.WithDescription("Returns the design protocol file format. Call this before importing protocols."),
	), s.getProtocolContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Protocol Format Contract",
			mcp.WithResourceDescription("Markdown format of design protocol files."),
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

// bind decodes the tool arguments into dst through their JSON form, so
// integer fields reject fractional numbers.
func bind(req mcp.CallToolRequest, dst any) error {
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

type linksArgs struct {
	MoveCount *int              `json:"move_count"`
	Links     []linkograph.Link `json:"links"`
	ZeroBased bool              `json:"zero_based"`
}

// links returns the argument links numbered from 1.
func (a linksArgs) links() []linkograph.Link {
	if a.ZeroBased {
		return linkograph.FromZeroBased(a.Links)
	}
	return a.Links
}

func (a linksArgs) moveCount() (int, error) {
	if a.MoveCount == nil {
		return 0, fmt.Errorf("move_count is required")
	}
	return *a.MoveCount, nil
}

func (s *Server) computeEntropy(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args linksArgs
	if err := bind(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := args.moveCount()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	e, err := s.svc.ComputeEntropy(n, args.links())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]float64{"creativity": e})
}

func (s *Server) computeRunTest(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		N1       *int `json:"n1"`
		N2       *int `json:"n2"`
		RunCount *int `json:"run_count"`
	}
	if err := bind(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.N1 == nil || args.N2 == nil || args.RunCount == nil {
		return mcp.NewToolResultError("n1, n2 and run_count are required"), nil
	}
	res, err := s.svc.ComputeRunTest(*args.N1, *args.N2, *args.RunCount)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) computeCreativityScore(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		MoveCount *int                 `json:"move_count"`
		Rows      []linkograph.RowStat `json:"rows"`
	}
	if err := bind(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.MoveCount == nil {
		return mcp.NewToolResultError("move_count is required"), nil
	}
	res, err := s.svc.ComputeCreativityScore(*args.MoveCount, args.Rows)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) computeRowStatistics(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args linksArgs
	if err := bind(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := args.moveCount()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rows, err := s.svc.RowStatistics(n, args.links())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"rows": rows})
}

func (s *Server) listLinkographs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, total, err := s.svc.ListLinkographs(ctx, store.ListOptions{Query: req.GetString("query", "")})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"linkographs": items, "total": total})
}

func (s *Server) analyzeLinkograph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rep, err := s.svc.Analyze(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rep)
}

func (s *Server) getProtocolContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ProtocolFormatContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     ProtocolFormatContract,
		},
	}, nil
}
