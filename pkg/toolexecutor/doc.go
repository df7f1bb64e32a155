// Package toolexecutor dispatches model tool-use requests to an MCP session.
//
// Invariants:
// - Dispatch never returns an error: every outcome, including session
//   failures, is a ToolResult carrying the originating ToolUse ID.
// - Failures are rendered as "Error: <message>" with IsError set.
// - Arguments are checked against the tool's input schema only when
//   argument validation is enabled and the schema compiles.
//
// Usage:
//
//	exec := toolexecutor.New(client, toolexecutor.Config{ValidateArguments: true}, logger)
//	exec.RegisterCatalog(tools)
//	result := exec.Dispatch(ctx, use)
package toolexecutor
