package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/scorm"
	"github.com/aretw0/scorm/internal/logging"
	"github.com/aretw0/scorm/pkg/cmi"
	"github.com/aretw0/scorm/pkg/domain"
	"github.com/aretw0/scorm/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DataModelURI is the resource listing every data model element.
const DataModelURI = "scorm://datamodel"

// CallResponse is the structured result of every RTE tool.
type CallResponse struct {
	SessionID string `json:"session_id" jsonschema_description:"The live session the call ran against"`
	Result    string `json:"result" jsonschema_description:"The string the SCORM API returned"`
	Error     string `json:"error" jsonschema_description:"The error code left by the call, 0 on success"`
	ErrorText string `json:"error_text,omitempty" jsonschema_description:"The standard text of a non-zero error code"`
}

// LaunchArgs are the arguments of scorm_launch.
type LaunchArgs struct {
	LearnerID      string `json:"learner_id"`
	LearnerName    string `json:"learner_name,omitempty"`
	ScoID          string `json:"sco_id"`
	RegistrationID string `json:"registration_id,omitempty"`
	LaunchData     string `json:"launch_data,omitempty"`
}

// SessionArgs address a live session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// GetValueArgs are the arguments of scorm_get_value.
type GetValueArgs struct {
	SessionID string `json:"session_id"`
	Element   string `json:"element"`
}

// SetValueArgs are the arguments of scorm_set_value.
type SetValueArgs struct {
	SessionID string `json:"session_id"`
	Element   string `json:"element"`
	Value     string `json:"value"`
}

// Server wraps a session Manager and exposes the SCORM API as an MCP Server,
// so agents can drive content the way a SCO would.
type Server struct {
	manager   *session.Manager
	registry  *cmi.Registry
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRegistry sets the data model described by the datamodel resource.
// It should match the registry of the Manager.
func WithRegistry(reg *cmi.Registry) Option {
	return func(s *Server) {
		s.registry = reg
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(manager *session.Manager, opts ...Option) *Server {
	s := &Server{
		manager:   manager,
		registry:  cmi.DefaultRegistry(),
		mcpServer: server.NewMCPServer("scorm-mcp", strings.TrimSpace(scorm.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID returned by scorm_launch"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("scorm_launch",
		mcp.WithDescription("Launch a SCO for a learner. Resumes a suspended attempt of the same registration."),
		mcp.WithString("learner_id", mcp.Required(), mcp.Description("Learner identifier (cmi.learner_id)")),
		mcp.WithString("sco_id", mcp.Required(), mcp.Description("SCO identifier")),
		mcp.WithString("learner_name", mcp.Description("Learner display name (cmi.learner_name)")),
		mcp.WithString("registration_id", mcp.Description("Attempt key; defaults to <learner_id>-<sco_id>")),
		mcp.WithString("launch_data", mcp.Description("Value of cmi.launch_data")),
		mcp.WithOutputSchema[session.Info](),
	), mcp.NewStructuredToolHandler(s.handleLaunch))

	s.mcpServer.AddTool(mcp.NewTool("scorm_initialize",
		mcp.WithDescription("Call Initialize(\"\") on a launched session."),
		sessionParam(),
		mcp.WithOutputSchema[CallResponse](),
	), mcp.NewStructuredToolHandler(s.lifecycle((*scorm.API).Initialize)))

	s.mcpServer.AddTool(mcp.NewTool("scorm_get_value",
		mcp.WithDescription("Call GetValue(element)."),
		sessionParam(),
		mcp.WithString("element", mcp.Required(), mcp.Description("Data model element, e.g. cmi.location")),
		mcp.WithOutputSchema[CallResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetValue))

	s.mcpServer.AddTool(mcp.NewTool("scorm_set_value",
		mcp.WithDescription("Call SetValue(element, value)."),
		sessionParam(),
		mcp.WithString("element", mcp.Required(), mcp.Description("Data model element, e.g. cmi.score.raw")),
		mcp.WithString("value", mcp.Required(), mcp.Description("Value to store")),
		mcp.WithOutputSchema[CallResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetValue))

	s.mcpServer.AddTool(mcp.NewTool("scorm_commit",
		mcp.WithDescription("Call Commit(\"\"), persisting the attempt."),
		sessionParam(),
		mcp.WithOutputSchema[CallResponse](),
	), mcp.NewStructuredToolHandler(s.lifecycle((*scorm.API).Commit)))

	s.mcpServer.AddTool(mcp.NewTool("scorm_terminate",
		mcp.WithDescription("Call Terminate(\"\"), ending the session."),
		sessionParam(),
		mcp.WithOutputSchema[CallResponse](),
	), mcp.NewStructuredToolHandler(s.lifecycle((*scorm.API).Terminate)))

	s.mcpServer.AddTool(mcp.NewTool("scorm_last_error",
		mcp.WithDescription("Call GetLastError() and describe the code with GetErrorString and GetDiagnostic."),
		sessionParam(),
	), s.handleLastError)
}

func (s *Server) handleLaunch(ctx context.Context, request mcp.CallToolRequest, args LaunchArgs) (session.Info, error) {
	req := session.LaunchRequest{
		LearnerID:      args.LearnerID,
		LearnerName:    args.LearnerName,
		ScoID:          args.ScoID,
		RegistrationID: args.RegistrationID,
	}
	if args.LaunchData != "" {
		req.Seed = map[string]string{"cmi.launch_data": args.LaunchData}
	}
	info, err := s.manager.Launch(ctx, req)
	if err != nil {
		return session.Info{}, fmt.Errorf("launch failed: %w", err)
	}
	return info, nil
}

func (s *Server) lifecycle(call func(*scorm.API, string) string) func(context.Context, mcp.CallToolRequest, SessionArgs) (CallResponse, error) {
	return func(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (CallResponse, error) {
		return s.call(ctx, args.SessionID, func(api *scorm.API) string {
			return call(api, "")
		})
	}
}

func (s *Server) handleGetValue(ctx context.Context, request mcp.CallToolRequest, args GetValueArgs) (CallResponse, error) {
	return s.call(ctx, args.SessionID, func(api *scorm.API) string {
		return api.GetValue(args.Element)
	})
}

func (s *Server) handleSetValue(ctx context.Context, request mcp.CallToolRequest, args SetValueArgs) (CallResponse, error) {
	return s.call(ctx, args.SessionID, func(api *scorm.API) string {
		return api.SetValue(args.Element, args.Value)
	})
}

func (s *Server) call(ctx context.Context, sessionID string, fn func(*scorm.API) string) (CallResponse, error) {
	resp := CallResponse{SessionID: sessionID}
	err := s.manager.Call(ctx, sessionID, func(api *scorm.API) error {
		resp.Result = fn(api)
		code := api.LastError()
		resp.Error = code.String()
		if code != domain.NoError {
			resp.ErrorText = scorm.ErrorString(code)
		}
		return nil
	})
	if err != nil {
		return CallResponse{}, fmt.Errorf("call failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleLastError(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var text string
	err = s.manager.Call(ctx, sessionID, func(api *scorm.API) error {
		code := api.GetLastError()
		diagnostic := api.GetDiagnostic(code)
		text = fmt.Sprintf("%s %s: %s", code, api.GetErrorString(code), diagnostic)
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("call failed: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(DataModelURI, "SCORM 2004 data model",
		mcp.WithResourceDescription("Every element the runtime accepts, with access mode and default"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.registry.Describe())
		if err != nil {
			return nil, fmt.Errorf("failed to describe data model: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      DataModelURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
