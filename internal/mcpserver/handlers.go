package mcpserver

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"stackprobe/internal/executor"
	"stackprobe/internal/poller"
	"stackprobe/internal/suite"

	"github.com/mark3labs/mcp-go/mcp"
)

// handleExecute handles the execute tool
func (s *Server) handleExecute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := request.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError("command parameter is required"), nil
	}
	args := request.GetArguments()

	expect, err := stringList(args["expect"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cmd := executor.NewCommand(command, expect...)
	if dir, ok := args["dir"].(string); ok && dir != "" {
		cmd = cmd.In(dir)
	}

	result, err := s.harness.Commands.Execute(ctx, cmd)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(result)
}

// handleWaitUntil handles the wait_until tool
func (s *Server) handleWaitUntil(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := request.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError("command parameter is required"), nil
	}
	expected, err := request.RequireString("expected")
	if err != nil {
		return mcp.NewToolResultError("expected parameter is required"), nil
	}
	args := request.GetArguments()

	policy := s.harness.Retry
	if policy.MaxAttempts == 0 {
		policy = poller.DefaultPolicy()
	}
	if attempts, ok := args["max_attempts"].(float64); ok {
		if attempts < 1 {
			return mcp.NewToolResultError("max_attempts must be at least 1"), nil
		}
		policy.MaxAttempts = int(attempts)
	}
	if raw, ok := args["delay"].(string); ok && raw != "" {
		delay, err := time.ParseDuration(raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid delay '%s': %v", raw, err)), nil
		}
		policy.Delay = delay
	}

	if _, err := poller.New(s.harness.Commands).Poll(ctx, executor.NewCommand(command), expected, policy); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Found %q in the output of %q", expected, command)), nil
}

// handleScaffold handles the scaffold_endpoint tool
func (s *Server) handleScaffold(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := request.RequireString("project")
	if err != nil {
		return mcp.NewToolResultError("project parameter is required"), nil
	}
	endpoint, err := request.RequireString("endpoint")
	if err != nil {
		return mcp.NewToolResultError("endpoint parameter is required"), nil
	}
	if s.harness.Scaffold == nil {
		return mcp.NewToolResultError("scaffolding is not available"), nil
	}

	job, err := s.harness.Scaffold.Generate(project, endpoint, s.harness.Templates)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Scaffolding failed: %v", err)), nil
	}
	return jsonResult(job)
}

// handleEnsureRepository handles the ensure_repository tool
func (s *Server) handleEnsureRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}
	if s.repos == nil {
		return mcp.NewToolResultError("repositories are not available"), nil
	}
	args := request.GetArguments()

	path := name
	if p, ok := args["path"].(string); ok && p != "" {
		path = p
	}
	clone, _ := args["clone"].(bool)

	handle, err := s.repos.Ensure(ctx, name, path, clone)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(handle)
}

// handleRunScenarios handles the run_scenarios tool
func (s *Server) handleRunScenarios(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	config := suite.DefaultConfiguration()
	config.Verbose = true
	if s.scenarioPath != "" {
		config.ScenarioPath = s.scenarioPath
	}
	if path, ok := args["path"].(string); ok && path != "" {
		config.ScenarioPath = path
	}
	if scenario, ok := args["scenario"].(string); ok {
		config.Scenario = scenario
	}
	if tags, ok := args["tags"].(string); ok && tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				config.Tags = append(config.Tags, tag)
			}
		}
	}
	if failFast, ok := args["fail_fast"].(bool); ok {
		config.FailFast = failFast
	}

	scenarios, err := s.loader.LoadScenarios(config.ScenarioPath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load scenarios: %v", err)), nil
	}
	if len(scenarios) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No scenarios found in %s", config.ScenarioPath)), nil
	}

	runner := suite.NewRunner(s.harness, s.loader, suite.NewQuietReporter(io.Discard))
	result, err := runner.Run(ctx, config, scenarios)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Scenario execution failed: %v", err)), nil
	}
	return jsonResult(result)
}

// stringList accepts a JSON array of strings or a single string.
func stringList(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expect must be a list of strings")
			}
			items = append(items, s)
		}
		return items, nil
	default:
		return nil, fmt.Errorf("expect must be a list of strings")
	}
}
