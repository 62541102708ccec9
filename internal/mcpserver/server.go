package mcpserver

import (
	"encoding/json"
	"fmt"

	"stackprobe/internal/repository"
	"stackprobe/internal/suite"
	"stackprobe/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server exposes harness operations as MCP tools.
type Server struct {
	harness      suite.Harness
	repos        *repository.Syncer
	loader       suite.Loader
	scenarioPath string
	mcp          *server.MCPServer
}

// New creates a Server. scenarioPath is used by run_scenarios when the
// caller does not pass a path.
func New(harness suite.Harness, repos *repository.Syncer, scenarioPath, version string) *Server {
	s := &Server{
		harness:      harness,
		repos:        repos,
		loader:       suite.NewLoader(),
		scenarioPath: scenarioPath,
	}

	s.mcp = server.NewMCPServer(
		"stackprobe",
		version,
		server.WithToolCapabilities(false),
	)
	s.mcp.AddTools(s.Tools()...)
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves the tools over stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	logging.Info("MCPServer", "Serving %d tools over stdio", len(s.Tools()))
	return server.ServeStdio(s.mcp)
}

// Tools returns every tool with its handler.
func (s *Server) Tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("execute",
				mcp.WithDescription("Run the driven CLI once and check its output for markers"),
				mcp.WithString("command",
					mcp.Required(),
					mcp.Description("CLI arguments, split like a shell would"),
				),
				mcp.WithArray("expect",
					mcp.Description("Markers that must appear in the output"),
					mcp.Items(map[string]any{"type": "string"}),
				),
				mcp.WithString("dir",
					mcp.Description("Working directory overriding the configured one"),
				),
			),
			Handler: s.handleExecute,
		},
		{
			Tool: mcp.NewTool("wait_until",
				mcp.WithDescription("Re-run a command until its output contains a marker"),
				mcp.WithString("command", mcp.Required(), mcp.Description("CLI arguments")),
				mcp.WithString("expected", mcp.Required(), mcp.Description("Marker to wait for")),
				mcp.WithNumber("max_attempts", mcp.Description("Maximum number of attempts")),
				mcp.WithString("delay", mcp.Description("Delay between attempts, e.g. 2s")),
			),
			Handler: s.handleWaitUntil,
		},
		{
			Tool: mcp.NewTool("scaffold_endpoint",
				mcp.WithDescription("Generate the skeleton files of a new endpoint"),
				mcp.WithString("project", mcp.Required(), mcp.Description("Project name")),
				mcp.WithString("endpoint", mcp.Required(), mcp.Description("Endpoint name")),
			),
			Handler: s.handleScaffold,
		},
		{
			Tool: mcp.NewTool("ensure_repository",
				mcp.WithDescription("Make sure a repository is present locally, cloning it if allowed"),
				mcp.WithString("name", mcp.Required(), mcp.Description("Repository name")),
				mcp.WithString("path", mcp.Description("Local path; defaults to the name")),
				mcp.WithBoolean("clone", mcp.Description("Clone when the path is missing")),
			),
			Handler: s.handleEnsureRepository,
		},
		{
			Tool: mcp.NewTool("run_scenarios",
				mcp.WithDescription("Run scenario files and return the suite result"),
				mcp.WithString("path", mcp.Description("Scenario file or directory")),
				mcp.WithString("scenario", mcp.Description("Only run the scenario with this name")),
				mcp.WithString("tags", mcp.Description("Comma separated tags; any match selects a scenario")),
				mcp.WithBoolean("fail_fast", mcp.Description("Stop after the first failing scenario")),
			),
			Handler: s.handleRunScenarios,
		},
	}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

