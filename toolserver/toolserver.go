// Package toolserver exposes rpc.Handlers as MCP tools over HTTP
// (MCP_PORT), the surface actual model clients talk to — the gRPC side
// (rpc.GRPCServer) only carries health/reflection, since no .proto-generated
// service stubs exist to dispatch real gRPC calls against.
package toolserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ladybug-space/ladybug/model"
	"github.com/ladybug-space/ladybug/rpc"
)

// resultEnvelope is satisfied by every rpc response struct via its embedded
// envelope, letting toolResponse fold success/error into one MCP result
// without a type switch per tool.
type resultEnvelope interface {
	IsError() bool
}

func toolResponse(data resultEnvelope) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(body)}},
		IsError: data.IsError(),
	}, nil
}

// Server hosts the MCP tool surface over one HTTP listener.
type Server struct {
	handlers *rpc.Handlers
	mcp      *mcp.Server
	http     *http.Server
	logger   *slog.Logger
}

// New builds a Server listening on addr (typically ":"+MCP_PORT).
func New(addr string, handlers *rpc.Handlers, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		handlers: handlers,
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    "ladybugd",
			Version: "0.1.0",
		}, nil),
		logger: logger,
	}
	s.registerTools()
	s.http = &http.Server{
		Addr:    addr,
		Handler: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil),
	}
	return s
}

// Start blocks serving HTTP until the listener errors or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("tool server listening", slog.String("addr", s.http.Addr))
	err := s.http.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the HTTP listener.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func stringSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func intSchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: description}
}

func stringArraySchema(description string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "array",
		Description: description,
		Items:       &jsonschema.Schema{Type: "string"},
	}
}

func (s *Server) registerTools() {
	s.addCypherQueryTool()
	s.addKeywordSearchTool()
	s.addSemanticSearchTool()
	s.addHybridSearchTool()
	s.addReadPageTool()
	s.addGetFolderContextTool()
	s.addGetProjectContextTool()
	s.addProposeChangeTool()
	s.addListProposalsTool()
	s.addWithdrawProposalTool()
	s.addGetGraphSchemaTool()
}

type cypherQueryParams struct {
	Query string `json:"query"`
}

func (s *Server) addCypherQueryTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "cypher_query",
		Description: "Run an opaque parameterized SQL query against the knowledge graph store.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"query": stringSchema("SQL query text")},
			Required:   []string{"query"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args cypherQueryParams) (*mcp.CallToolResult, any, error) {
		resp := s.handlers.Query(ctx, args.Query)
		result, err := toolResponse(resp)
		return result, nil, err
	})
}

type keywordSearchParams struct {
	Keyword string `json:"keyword"`
	Limit   int    `json:"limit"`
}

func (s *Server) addKeywordSearchTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "keyword_search",
		Description: "BM25 keyword-only search over indexed chunks, no semantic fusion.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"keyword": stringSchema("Search terms"),
				"limit":   intSchema("Maximum results, defaults to 10"),
			},
			Required: []string{"keyword"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args keywordSearchParams) (*mcp.CallToolResult, any, error) {
		resp := s.handlers.Search(ctx, args.Keyword, args.Limit)
		result, err := toolResponse(resp)
		return result, nil, err
	})
}

type semanticSearchParams struct {
	Query       string   `json:"query"`
	Limit       int      `json:"limit"`
	FilterTags  []string `json:"filter_tags"`
	FilterPages []string `json:"filter_pages"`
}

func (s *Server) addSemanticSearchTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "semantic_search",
		Description: "Vector-only similarity search over indexed chunks, no keyword fusion.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query":        stringSchema("Natural language query"),
				"limit":        intSchema("Maximum results, defaults to 10"),
				"filter_tags":  stringArraySchema("Restrict to chunks carrying any of these tags"),
				"filter_pages": stringArraySchema("Restrict to chunks from these file paths, e.g. \"Note.md\""),
			},
			Required: []string{"query"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args semanticSearchParams) (*mcp.CallToolResult, any, error) {
		resp := s.handlers.SemanticSearch(ctx, args.Query, args.Limit, args.FilterTags, args.FilterPages)
		result, err := toolResponse(resp)
		return result, nil, err
	})
}

type hybridSearchParams struct {
	Query          string   `json:"query"`
	Limit          int      `json:"limit"`
	FilterTags     []string `json:"filter_tags"`
	FilterPages    []string `json:"filter_pages"`
	FusionMethod   string   `json:"fusion_method"`
	WeightKeyword  *float64 `json:"weight_keyword"`
	WeightSemantic *float64 `json:"weight_semantic"`
}

func (s *Server) addHybridSearchTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "hybrid_search_tool",
		Description: "Fused keyword+semantic search, combined by reciprocal rank fusion or weighted score blending.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query":           stringSchema("Natural language query"),
				"limit":           intSchema("Maximum results, defaults to 10"),
				"filter_tags":     stringArraySchema("Restrict to chunks carrying any of these tags"),
				"filter_pages":    stringArraySchema("Restrict to chunks from these file paths, e.g. \"Note.md\""),
				"fusion_method":   stringSchema("\"rrf\" (default) or \"weighted\""),
				"weight_keyword":  &jsonschema.Schema{Type: "number", Description: "Weighted-fusion keyword weight, defaults to 0.5"},
				"weight_semantic": &jsonschema.Schema{Type: "number", Description: "Weighted-fusion semantic weight, defaults to 0.5"},
			},
			Required: []string{"query"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args hybridSearchParams) (*mcp.CallToolResult, any, error) {
		fusion := model.FusionMode(args.FusionMethod)
		resp := s.handlers.HybridSearch(ctx, args.Query, rpc.HybridSearchParams{
			Limit:          args.Limit,
			FilterTags:     args.FilterTags,
			FilterPages:    args.FilterPages,
			Fusion:         fusion,
			WeightKeyword:  args.WeightKeyword,
			WeightSemantic: args.WeightSemantic,
		})
		result, err := toolResponse(resp)
		return result, nil, err
	})
}

type readPageParams struct {
	PageName string `json:"page_name"`
}

func (s *Server) addReadPageTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "read_page",
		Description: "Read the raw content of one page by name.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"page_name": stringSchema("Page name, without .md extension")},
			Required:   []string{"page_name"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args readPageParams) (*mcp.CallToolResult, any, error) {
		resp := s.handlers.ReadPage(ctx, args.PageName)
		result, err := toolResponse(resp)
		return result, nil, err
	})
}

type getFolderContextParams struct {
	FolderPath string `json:"folder_path"`
}

func (s *Server) addGetFolderContextTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_folder_context",
		Description: "Look up a folder's sibling index page, if the space follows that convention.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"folder_path": stringSchema("Folder path relative to the space root")},
			Required:   []string{"folder_path"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args getFolderContextParams) (*mcp.CallToolResult, any, error) {
		resp := s.handlers.GetFolderContext(ctx, args.FolderPath)
		result, err := toolResponse(resp)
		return result, nil, err
	})
}

type getProjectContextParams struct {
	GithubRemote string `json:"github_remote"`
	FolderPath   string `json:"folder_path"`
}

func (s *Server) addGetProjectContextTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_project_context",
		Description: "Fetch a project page's frontmatter summary and folder-mates, by github remote or folder path.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"github_remote": stringSchema("github remote to match against frontmatter"),
				"folder_path":   stringSchema("Folder path to match instead of github_remote"),
			},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args getProjectContextParams) (*mcp.CallToolResult, any, error) {
		resp := s.handlers.GetProjectContext(ctx, args.GithubRemote, args.FolderPath)
		result, err := toolResponse(resp)
		return result, nil, err
	})
}

type proposeChangeParams struct {
	PageName string `json:"page_name"`
	Content  string `json:"content"`
}

func (s *Server) addProposeChangeTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "propose_change",
		Description: "Stage a proposed replacement for a page without touching the live file.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"page_name": stringSchema("Page name the proposal targets"),
				"content":   stringSchema("Proposed replacement content"),
			},
			Required: []string{"page_name", "content"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args proposeChangeParams) (*mcp.CallToolResult, any, error) {
		resp := s.handlers.ProposeChange(args.PageName, args.Content)
		result, err := toolResponse(resp)
		return result, nil, err
	})
}

func (s *Server) addListProposalsTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_proposals",
		Description: "List every pending proposed change.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, any, error) {
		resp := s.handlers.ListProposals()
		result, err := toolResponse(resp)
		return result, nil, err
	})
}

type withdrawProposalParams struct {
	PageName string `json:"page_name"`
}

func (s *Server) addWithdrawProposalTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "withdraw_proposal",
		Description: "Delete a pending proposed change.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"page_name": stringSchema("Page name whose proposal should be withdrawn")},
			Required:   []string{"page_name"},
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args withdrawProposalParams) (*mcp.CallToolResult, any, error) {
		resp := s.handlers.WithdrawProposal(args.PageName)
		result, err := toolResponse(resp)
		return result, nil, err
	})
}

func (s *Server) addGetGraphSchemaTool() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_graph_schema",
		Description: "List the node and edge types the graph store persists, for building cypher_query statements.",
		InputSchema: &jsonschema.Schema{Type: "object"},
	}, func(ctx context.Context, req *mcp.CallToolRequest, args struct{}) (*mcp.CallToolResult, any, error) {
		resp := s.handlers.GetGraphSchema()
		result, err := toolResponse(resp)
		return result, nil, err
	})
}
