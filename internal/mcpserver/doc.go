// Package mcpserver exposes the harness to MCP clients.
//
// The server speaks MCP over stdio and offers five tools: execute,
// wait_until, scaffold_endpoint, ensure_repository and run_scenarios. Tool
// failures, including unmet expectations, are returned as tool errors with
// the captured output in the message; protocol errors are reserved for
// transport problems.
package mcpserver
