// ABOUTME: MCP method handling shared by every transport
// ABOUTME: Routes JSON-RPC requests to the tool registry, telemetry resources and prompts

package mcp

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/2389/kachaka-mcp/internal/auth"
	"github.com/2389/kachaka-mcp/internal/packs"
	"github.com/2389/kachaka-mcp/internal/prompts"
	"github.com/2389/kachaka-mcp/internal/telemetry"
)

// Config holds configuration for the MCP server.
type Config struct {
	// Name and Version are reported in serverInfo.
	Name    string
	Version string

	Registry  *packs.Registry
	Telemetry *telemetry.Accessor
	// Gate guards the HTTP transport. Nil admits every request.
	Gate   *auth.Gate
	Logger *slog.Logger
}

// Server implements the MCP methods over any transport.
type Server struct {
	name      string
	version   string
	registry  *packs.Registry
	telemetry *telemetry.Accessor
	gate      *auth.Gate
	logger    *slog.Logger
	sessions  *sessionStore
	replay    *replayGuard
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Registry == nil {
		return nil, errors.New("registry is required")
	}
	if cfg.Telemetry == nil {
		return nil, errors.New("telemetry is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := cfg.Name
	if name == "" {
		name = "Kachaka Robot"
	}
	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	return &Server{
		name:      name,
		version:   version,
		registry:  cfg.Registry,
		telemetry: cfg.Telemetry,
		gate:      cfg.Gate,
		logger:    logger,
		sessions:  newSessionStore(),
		replay:    newReplayGuard(defaultReplayWindow, defaultReplayMax),
	}, nil
}

// handle executes one request. It returns nil for notifications.
func (s *Server) handle(ctx context.Context, req JSONRPCRequest) *JSONRPCResponse {
	if req.JSONRPC != "2.0" {
		return errorResponse(req.ID, JSONRPCInvalidRequest, "invalid JSON-RPC version")
	}

	if req.isNotification() {
		if strings.HasPrefix(req.Method, "notifications/") {
			s.logger.Debug("accepted MCP notification", "method", req.Method)
		} else {
			s.logger.Warn("received notification for non-notification method", "method", req.Method)
		}
		return nil
	}

	s.logger.Debug("MCP request", "method", req.Method)

	var (
		result any
		rpcErr *JSONRPCError
	)
	switch req.Method {
	case "initialize":
		result, rpcErr = s.initialize(req.Params)
	case "ping":
		result = map[string]any{}
	case "tools/list":
		result = s.toolsList()
	case "tools/call":
		result, rpcErr = s.toolsCall(ctx, req.Params)
	case "resources/list":
		result = s.resourcesList()
	case "resources/templates/list":
		result = s.resourceTemplatesList()
	case "resources/read":
		result, rpcErr = s.resourcesRead(ctx, req.Params)
	case "prompts/list":
		result, rpcErr = s.promptsList()
	case "prompts/get":
		result, rpcErr = s.promptsGet(req.Params)
	default:
		rpcErr = &JSONRPCError{Code: JSONRPCMethodNotFound, Message: "method not found"}
	}

	if rpcErr != nil {
		return &JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Error: rpcErr}
	}
	return &JSONRPCResponse{JSONRPC: "2.0", ID: req.ID, Result: result}
}

// negotiateVersion echoes a supported client version, else offers ours.
func negotiateVersion(requested string) string {
	if supportedProtocolVersions[requested] {
		return requested
	}
	return latestProtocolVersion
}

func (s *Server) initialize(raw json.RawMessage) (any, *JSONRPCError) {
	var params MCPInitializeParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, &JSONRPCError{Code: JSONRPCInvalidParams, Message: "invalid params"}
		}
	}

	version := negotiateVersion(params.ProtocolVersion)
	s.logger.Info("MCP client initialized",
		"client", params.ClientInfo.Name,
		"client_version", params.ClientInfo.Version,
		"protocol_version", version,
	)

	return map[string]any{
		"protocolVersion": version,
		"capabilities": map[string]any{
			"tools":     map[string]any{},
			"resources": map[string]any{},
			"prompts":   map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    s.name,
			"version": s.version,
		},
	}, nil
}

func (s *Server) toolsList() MCPListToolsResult {
	tools := s.registry.ListTools()
	result := MCPListToolsResult{Tools: make([]MCPToolInfo, len(tools))}
	for i, tool := range tools {
		result.Tools[i] = MCPToolInfo{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema(),
		}
	}
	return result
}

func (s *Server) toolsCall(ctx context.Context, raw json.RawMessage) (any, *JSONRPCError) {
	var params MCPCallToolParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, &JSONRPCError{Code: JSONRPCInvalidParams, Message: "invalid params"}
		}
	}
	if params.Name == "" {
		return nil, &JSONRPCError{Code: JSONRPCInvalidParams, Message: "tool name is required"}
	}

	out, err := s.registry.Execute(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool execution failed", "tool_name", params.Name, "error", err)
		if errors.Is(err, packs.ErrToolNotFound) {
			return nil, &JSONRPCError{Code: JSONRPCInvalidParams, Message: "tool not found"}
		}
		return nil, &JSONRPCError{Code: JSONRPCInternalError, Message: "tool execution failed"}
	}

	return MCPCallToolResult{
		Content: []MCPContent{{Type: "text", Text: out}},
		// Robot rejections ("Failed to ...") are results; only faults that
		// kept the command from reaching the robot are flagged.
		IsError: strings.HasPrefix(out, "Error: "),
	}, nil
}

func (s *Server) resourcesList() MCPListResourcesResult {
	res := s.telemetry.Resources()
	result := MCPListResourcesResult{Resources: make([]MCPResourceInfo, len(res))}
	for i, r := range res {
		result.Resources[i] = MCPResourceInfo{URI: r.URI, Name: r.Name, Description: r.Description, MIMEType: r.MIMEType}
	}
	return result
}

func (s *Server) resourceTemplatesList() MCPListResourceTemplatesResult {
	tmpls := s.telemetry.Templates()
	result := MCPListResourceTemplatesResult{ResourceTemplates: make([]MCPResourceTemplateInfo, len(tmpls))}
	for i, r := range tmpls {
		result.ResourceTemplates[i] = MCPResourceTemplateInfo{URITemplate: r.URI, Name: r.Name, Description: r.Description, MIMEType: r.MIMEType}
	}
	return result
}

func (s *Server) resourcesRead(ctx context.Context, raw json.RawMessage) (any, *JSONRPCError) {
	var params MCPReadResourceParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, &JSONRPCError{Code: JSONRPCInvalidParams, Message: "invalid params"}
		}
	}
	if params.URI == "" {
		return nil, &JSONRPCError{Code: JSONRPCInvalidParams, Message: "uri is required"}
	}

	res, err := s.telemetry.Read(ctx, params.URI)
	if err != nil {
		return nil, &JSONRPCError{
			Code:    MCPResourceNotFound,
			Message: "resource not found",
			Data:    map[string]string{"uri": params.URI},
		}
	}

	contents := MCPResourceContents{URI: params.URI, MIMEType: res.MIMEType}
	if res.Kind == telemetry.KindBlob {
		contents.Blob = base64.StdEncoding.EncodeToString(res.Blob)
	} else {
		contents.Text = res.Text
	}
	return MCPReadResourceResult{Contents: []MCPResourceContents{contents}}, nil
}

func (s *Server) promptsList() (any, *JSONRPCError) {
	ps, err := prompts.List()
	if err != nil {
		s.logger.Error("failed to load prompts", "error", err)
		return nil, &JSONRPCError{Code: JSONRPCInternalError, Message: "prompts unavailable"}
	}
	result := MCPListPromptsResult{Prompts: make([]MCPPromptInfo, len(ps))}
	for i, p := range ps {
		result.Prompts[i] = MCPPromptInfo{Name: p.Name, Description: p.Description}
	}
	return result, nil
}

func (s *Server) promptsGet(raw json.RawMessage) (any, *JSONRPCError) {
	var params MCPGetPromptParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, &JSONRPCError{Code: JSONRPCInvalidParams, Message: "invalid params"}
		}
	}

	p, err := prompts.Get(params.Name)
	if errors.Is(err, prompts.ErrPromptNotFound) {
		return nil, &JSONRPCError{Code: JSONRPCInvalidParams, Message: "prompt not found"}
	}
	if err != nil {
		s.logger.Error("failed to load prompts", "error", err)
		return nil, &JSONRPCError{Code: JSONRPCInternalError, Message: "prompts unavailable"}
	}

	result := MCPGetPromptResult{Description: p.Description, Messages: make([]MCPPromptMessage, len(p.Messages))}
	for i, m := range p.Messages {
		// MCP prompts carry only user and assistant turns.
		role := m.Role
		if role == prompts.RoleSystem {
			role = prompts.RoleUser
		}
		result.Messages[i] = MCPPromptMessage{Role: role, Content: MCPContent{Type: "text", Text: m.Text}}
	}
	return result, nil
}

func errorResponse(id json.RawMessage, code int, message string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message},
	}
}
