// Package orchestrator runs one request end to end against a connected MCP
// session: gather schema context, snapshot the tool catalog, plan, optionally
// review the plan, execute, and record artifacts.
//
// Process never returns an error. Every failure, including a panic in a
// collaborator, is reported as text prefixed with "Error in process_prompt: ".
package orchestrator
