// Package mcp is the session boundary to a Model Context Protocol server.
//
// It wraps the official go-sdk client and narrows it to the four operations
// the agent needs: list tools, call a tool, list resources and read a
// resource. Results are flattened to text because that is all the model
// conversation carries.
//
// Usage:
//
//	client := mcp.NewClient(logger)
//	if err := client.Connect(ctx, "stdio://python server.py"); err != nil {
//		return err
//	}
//	defer client.Close()
//	tools, err := client.ListTools(ctx)
package mcp
