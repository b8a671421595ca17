// Package mcp contains the wire-level types for the subset of the Model
// Context Protocol this server speaks: the initialize handshake, tool
// listing and invocation, resource listing and reads, and ping.
//
// It also pins the widget rendering contract shared with the UI host: the
// ui:// resource URI scheme, the host-renderable content kind, and the _meta
// key that binds a tool result to the widget that renders it. These values
// are load-bearing; a host that receives any other content kind on a widget
// resource read must treat the response as a contract violation.
package mcp
