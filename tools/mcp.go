package tools

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/aitools/extractlog"
	"github.com/hazyhaar/aitools/kit"
	"github.com/hazyhaar/aitools/pdfpage"
)

// RegisterMCP registers the tools on an MCP server. extraction_history is
// only registered when an audit store is configured.
func (s *Service) RegisterMCP(srv *mcp.Server) {
	s.registerReadFileTool(srv)
	s.registerReadPDFTool(srv)
	if s.audit != nil {
		s.registerHistoryTool(srv)
	}
}

func (s *Service) chain(ep kit.Endpoint) kit.Endpoint {
	return kit.Chain(
		kit.Recovery(s.logger),
		kit.Transport(s.transport),
		kit.RequestID(nil),
		kit.Logging(s.logger),
	)(ep)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func unmarshalArgs(req *mcp.CallToolRequest, v any) error {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	return json.Unmarshal(req.Params.Arguments, v)
}

// --- read_file ---

type readFileReq struct {
	Path string `json:"path"`
}

func (s *Service) registerReadFileTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "read_file",
		Description: "Read a UTF-8 or UTF-16 text file from the workspace.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "Path relative to the workspace root"},
		}, []string{"path"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*readFileReq)
		return s.ReadFile(ctx, r.Path)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r readFileReq
		if err := unmarshalArgs(req, &r); err != nil {
			return nil, err
		}
		if r.Path == "" {
			return nil, errors.New("path is required")
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.chain(endpoint), decode)
}

// --- read_pdf ---

type readPDFArgs struct {
	Path string   `json:"path"`
	Page *float64 `json:"page,omitempty"`
}

type readPDFReq struct {
	Path string
	Page int
}

func (s *Service) registerReadPDFTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name: "read_pdf",
		Description: "Extract the text of one PDF page in reading order, with layout-quality flags " +
			"(rotation, skew, vertical text, jitter, fragmented items) and metrics. " +
			"Pages are 1-based; hasMore tells whether later pages exist.",
		InputSchema: inputSchema(map[string]any{
			"path": map[string]any{"type": "string", "description": "PDF path relative to the workspace root"},
			"page": map[string]any{"type": "number", "default": 1, "description": "1-based page number"},
		}, []string{"path"}),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*readPDFReq)
		return s.ReadPDF(ctx, r.Path, r.Page)
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var a readPDFArgs
		if err := unmarshalArgs(req, &a); err != nil {
			return nil, err
		}
		if a.Path == "" {
			return nil, errors.New("path is required")
		}
		page := 1
		if a.Page != nil {
			n, err := pdfpage.PageNumber(*a.Page)
			if err != nil {
				return nil, err
			}
			page = n
		}
		return &kit.MCPDecodeResult{Request: &readPDFReq{Path: a.Path, Page: page}}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.chain(endpoint), decode)
}

// --- extraction_history ---

type historyReq struct {
	Limit int `json:"limit"`
}

type historyResp struct {
	Entries []*extractlog.Entry `json:"entries"`
	Count   int                 `json:"count"`
}

func (s *Service) registerHistoryTool(srv *mcp.Server) {
	tool := &mcp.Tool{
		Name:        "extraction_history",
		Description: "List recent read_pdf extractions with their quality flags, newest first.",
		InputSchema: inputSchema(map[string]any{
			"limit": map[string]any{"type": "integer", "default": extractlog.DefaultRecentLimit},
		}, nil),
	}

	endpoint := func(ctx context.Context, req any) (any, error) {
		r := req.(*historyReq)
		entries, err := s.History(ctx, r.Limit)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []*extractlog.Entry{}
		}
		return &historyResp{Entries: entries, Count: len(entries)}, nil
	}

	decode := func(req *mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		var r historyReq
		if err := unmarshalArgs(req, &r); err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &r}, nil
	}

	kit.RegisterMCPTool(srv, tool, s.chain(endpoint), decode)
}
