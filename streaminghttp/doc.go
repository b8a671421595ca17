// Package streaminghttp terminates the MCP streaming HTTP transport.
//
// One endpoint accepts all protocol traffic, keyed by the Mcp-Session-Id
// header. A POST without the header must be an initialize handshake: the
// handler builds a fresh protocol server instance, mints a session ID, and
// registers the session before responding, so a rapid follow-up request is
// guaranteed to find it. Requests on established sessions are answered over
// a server-sent event stream whose event IDs are the session's event-log
// sequence numbers; a GET with Last-Event-ID resumes delivery without gaps
// or duplicates. DELETE closes a session explicitly.
//
// A separate read-only health endpoint reports process status and the live
// session count.
package streaminghttp
