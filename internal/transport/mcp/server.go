package mcp

import (
	"net/http"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/brightdoor/leadrouter/internal/service/allocator"
	metricssvc "github.com/brightdoor/leadrouter/internal/service/metrics"
)

// Server exposes the assignment engine as MCP tools so assistant tooling in
// the surrounding CRM can route leads without going through the REST layer.
type Server struct {
	httpSrv *mcpserver.StreamableHTTPServer
}

func New(svc *allocator.Service, metrics *metricssvc.Service) *Server {
	mcpSrv := mcpserver.NewMCPServer(
		"leadrouter",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	RegisterTools(mcpSrv, svc, metrics)

	return &Server{httpSrv: mcpserver.NewStreamableHTTPServer(mcpSrv)}
}

// Handler returns an http.Handler that serves the MCP endpoint.
func (s *Server) Handler() http.Handler {
	return s.httpSrv
}
