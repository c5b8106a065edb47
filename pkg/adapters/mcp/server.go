package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/buddy/internal/logging"
	httpAdapter "github.com/aretw0/buddy/pkg/adapters/http"
	"github.com/aretw0/buddy/pkg/domain"
	"github.com/aretw0/buddy/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DepthURI is the resource exposing the number of undisplayed results.
const DepthURI = "buddy://relay/depth"

// RelayArgs are the arguments of the relay_text tool. They mirror the extension payload.
type RelayArgs struct {
	Action string `json:"action"`
	Text   string `json:"text"`
	HTML   string `json:"html"`
}

// RelayResponse aligns with the HTTP ingress reply and adds the relayed result.
type RelayResponse struct {
	Reply  string `json:"reply" jsonschema_description:"Acknowledgement for the action"`
	Result string `json:"result" jsonschema_description:"Text relayed to the display"`
}

// Server exposes the dispatcher as an MCP tool, a second ingress next to HTTP.
type Server struct {
	dispatcher ports.Dispatcher
	queue      ports.RelayQueue
	logger     *slog.Logger
	version    string
	mcpServer  *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithQueue exposes the relay depth as a resource.
func WithQueue(q ports.RelayQueue) Option {
	return func(s *Server) {
		s.queue = q
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion sets the version advertised during initialization.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(version)
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(dispatcher ports.Dispatcher, opts ...Option) *Server {
	s := &Server{
		dispatcher: dispatcher,
		logger:     logging.NewNop(),
		version:    "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer = server.NewMCPServer("buddy-mcp", s.version)
	s.registerTools()
	if s.queue != nil {
		s.registerResources()
	}
	return s
}

// MCPServer returns the underlying server, mostly for tests and custom transports.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("mcp sse listen: %w", err)
	}
	baseURL := "http://" + ln.Addr().String()
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	r := chi.NewRouter()
	r.Handle("/sse", sseServer.SSEHandler())
	r.Handle("/message", sseServer.MessageHandler())

	return httpAdapter.Serve(ctx, &http.Server{Handler: r}, ln, s.logger)
}

func (s *Server) registerTools() {
	var actions []string
	for _, a := range domain.Actions() {
		if a.Wire() != "" {
			actions = append(actions, a.Wire())
		}
	}

	// TOOL: relay_text
	relayTool := mcp.NewTool("relay_text",
		mcp.WithDescription("Transform text with one of the extension actions and show the result on the Buddy display."),
		mcp.WithString("action", mcp.Description("One of "+strings.Join(actions, ", ")+"; anything else relays the text unchanged")),
		mcp.WithString("text", mcp.Description("Selected or page text")),
		mcp.WithString("html", mcp.Description("Page markup, read by showAllLinks")),
		mcp.WithOutputSchema[RelayResponse](),
	)
	s.mcpServer.AddTool(relayTool, mcp.NewStructuredToolHandler(s.handleRelayText))
}

func (s *Server) handleRelayText(ctx context.Context, request mcp.CallToolRequest, args RelayArgs) (RelayResponse, error) {
	payload := domain.NewPayload(args.Action, args.Text, args.HTML)
	s.logger.Debug("MCP relay_text", "action", payload.Action.String(), "size", len(args.Text))

	result, reply := s.dispatcher.Dispatch(ctx, payload)
	return RelayResponse{Reply: reply, Result: result}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: buddy://relay/depth
	s.mcpServer.AddResource(mcp.NewResource(DepthURI, "Relay Depth",
		mcp.WithResourceDescription("Number of results waiting for the display"),
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		n, err := s.queue.Len(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read relay depth: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      DepthURI,
				MIMEType: "text/plain",
				Text:     strconv.Itoa(n),
			},
		}, nil
	})
}

// ErrNoDispatcher is returned by Validate when the server was built without a dispatcher.
var ErrNoDispatcher = errors.New("mcp: no dispatcher configured")

// Validate reports configuration errors before serving.
func (s *Server) Validate() error {
	if s.dispatcher == nil {
		return ErrNoDispatcher
	}
	return nil
}
