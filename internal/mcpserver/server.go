// Package mcpserver exposes the log store and analytics of a single user as
// MCP tools for a local assistant.
package mcpserver

import (
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/service"
	"github.com/mark3labs/mcp-go/server"
)

// Services are the application services the tools call into
type Services struct {
	Logs     service.LogService
	History  service.HistoryService
	Insights service.InsightService
	Nudges   service.NudgeService
	Reports  service.ReportService
}

// Server is an MCP server bound to one user
type Server struct {
	mcp    *server.MCPServer
	svc    Services
	userID string
	now    func() time.Time
}

// New creates a server that acts as userID and registers every tool
func New(svc Services, userID, version string) *Server {
	s := &Server{
		mcp: server.NewMCPServer(
			"healthlog",
			version,
			server.WithLogging(),
			server.WithRecovery(),
		),
		svc:    svc,
		userID: userID,
		now:    time.Now,
	}
	s.registerTools()
	return s
}

// ServeStdio runs the stdio event loop until stdin closes
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer exposes the underlying mcp-go server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}
