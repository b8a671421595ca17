package mcpservice

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/widgethq/widgetmcp/internal/jsonrpc"
	"github.com/widgethq/widgetmcp/internal/logctx"
	"github.com/widgethq/widgetmcp/mcp"
)

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithInstructions sets the instructions string returned from initialize.
func WithInstructions(s string) ServerOption {
	return func(srv *Server) { srv.instructions = s }
}

// WithLogger sets the slog logger. Logs are discarded if not provided.
func WithLogger(log *slog.Logger) ServerOption {
	return func(srv *Server) { srv.log = log }
}

// Server is the protocol server instance: a request dispatcher over the tool
// and resource registries. One Server is created per session at handshake
// time and exclusively owned by that session.
//
// Centralizing validation, dispatch, and error classification here is what
// keeps new tools pluggable: a tool supplies a descriptor and a pure
// function, and protocol compliance comes for free.
type Server struct {
	info         mcp.ImplementationInfo
	instructions string
	tools        *ToolRegistry
	resources    *ResourceRegistry
	log          *slog.Logger
}

// NewServer builds a protocol server instance over read-only registries.
func NewServer(info mcp.ImplementationInfo, tools *ToolRegistry, resources *ResourceRegistry, opts ...ServerOption) *Server {
	srv := &Server{
		info:      info,
		tools:     tools,
		resources: resources,
		log:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// Initialize performs the handshake and returns the negotiated result.
func (s *Server) Initialize(ctx context.Context, req *mcp.InitializeRequest) *mcp.InitializeResult {
	s.log.InfoContext(ctx, "session.initialize",
		slog.String("client", req.ClientInfo.Name),
		slog.String("client_version", req.ClientInfo.Version),
		slog.String("client_protocol", req.ProtocolVersion),
	)
	return &mcp.InitializeResult{
		ProtocolVersion: mcp.LatestProtocolVersion,
		Capabilities: mcp.ServerCapabilities{
			Tools: &struct {
				ListChanged bool `json:"listChanged"`
			}{},
			Resources: &struct {
				ListChanged bool `json:"listChanged"`
				Subscribe   bool `json:"subscribe"`
			}{},
		},
		ServerInfo:   s.info,
		Instructions: s.instructions,
	}
}

// Handle dispatches one inbound request. The method set is closed: the four
// registry operations plus ping. Errors are classified, logged at the point
// of detection, and translated into protocol-compliant error responses; the
// returned error is reserved for failures to produce a response at all.
func (s *Server) Handle(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	switch mcp.Method(req.Method) {
	case mcp.PingMethod:
		return jsonrpc.NewResultResponse(req.ID, &mcp.EmptyResult{})

	case mcp.ToolsListMethod:
		return jsonrpc.NewResultResponse(req.ID, &mcp.ListToolsResult{Tools: s.tools.Snapshot()})

	case mcp.ToolsCallMethod:
		var callReq mcp.CallToolRequest
		if err := json.Unmarshal(req.Params, &callReq); err != nil {
			s.log.WarnContext(ctx, "tools.call.params.invalid", slog.String("err", err.Error()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid tools/call params", nil), nil
		}
		ctx := logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: callReq.Name})
		res, err := s.tools.Call(ctx, &callReq)
		if err != nil {
			return s.errorResponse(ctx, req.ID, err), nil
		}
		s.log.InfoContext(ctx, "tools.call.ok")
		return jsonrpc.NewResultResponse(req.ID, res)

	case mcp.ResourcesListMethod:
		return jsonrpc.NewResultResponse(req.ID, &mcp.ListResourcesResult{Resources: s.resources.Snapshot()})

	case mcp.ResourcesReadMethod:
		var readReq mcp.ReadResourceRequest
		if err := json.Unmarshal(req.Params, &readReq); err != nil {
			s.log.WarnContext(ctx, "resources.read.params.invalid", slog.String("err", err.Error()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "invalid resources/read params", nil), nil
		}
		res, err := s.resources.Read(ctx, readReq.URI)
		if err != nil {
			return s.errorResponse(ctx, req.ID, err), nil
		}
		s.log.InfoContext(ctx, "resources.read.ok", slog.String("uri", readReq.URI))
		return jsonrpc.NewResultResponse(req.ID, res)

	case mcp.InitializeMethod:
		// The transport performs the handshake before a session exists; an
		// initialize on a live session is a protocol violation.
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "session already initialized", nil), nil

	default:
		s.log.WarnContext(ctx, "rpc.method.unknown", slog.String("method", req.Method))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "method not found", nil), nil
	}
}

// HandleNotification processes an inbound notification. Only
// notifications/initialized is meaningful today; everything else is logged
// and ignored.
func (s *Server) HandleNotification(ctx context.Context, req *jsonrpc.Request) error {
	switch mcp.Method(req.Method) {
	case mcp.InitializedNotificationMethod:
		s.log.InfoContext(ctx, "session.initialized")
	default:
		s.log.DebugContext(ctx, "notification.ignored", slog.String("method", req.Method))
	}
	return nil
}

// errorResponse logs a classified failure with full context and translates
// it into a protocol error. Collaborator failures surface as generic errors;
// client errors carry actionable detail.
func (s *Server) errorResponse(ctx context.Context, id *jsonrpc.RequestID, err error) *jsonrpc.Response {
	var invalidInput *InvalidInputError
	var execErr *ToolExecutionError
	var loadErr *ResourceLoadError

	switch {
	case errors.Is(err, ErrUnknownTool):
		s.log.InfoContext(ctx, "tools.call.unknown")
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInvalidParams, "unknown tool", nil)

	case errors.As(err, &invalidInput):
		s.log.InfoContext(ctx, "tools.call.invalid_input", slog.Int("field_errors", len(invalidInput.Fields)))
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInvalidParams, "invalid tool input",
			map[string]any{"fieldErrors": invalidInput.Fields})

	case errors.As(err, &execErr):
		s.log.ErrorContext(ctx, "tools.call.fail", slog.String("err", execErr.Err.Error()))
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInternalError, "tool execution failed", nil)

	case errors.Is(err, ErrUnknownResource):
		s.log.InfoContext(ctx, "resources.read.unknown")
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeResourceNotFound, "resource not found", nil)

	case errors.As(err, &loadErr):
		s.log.ErrorContext(ctx, "resources.read.fail",
			slog.String("uri", loadErr.URI), slog.String("err", loadErr.Err.Error()))
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInternalError, "resource load failed", nil)

	default:
		s.log.ErrorContext(ctx, "rpc.handle.fail", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInternalError, "internal server error", nil)
	}
}
