package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/widgethq/widgetmcp/mcp"
	"github.com/widgethq/widgetmcp/mcpservice"
)

func TestEchoTool(t *testing.T) {
	t.Parallel()
	reg, err := mcpservice.NewToolRegistry(newEchoTool())
	if err != nil {
		t.Fatalf("registry build failed: %v", err)
	}

	res, err := reg.Call(context.Background(), &mcp.CallToolRequest{
		Name:      "echo",
		Arguments: json.RawMessage(`{"message":"hi"}`),
	})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}

	if got := res.StructuredContent["echoedMessage"]; got != "hi" {
		t.Fatalf("echoedMessage = %v", got)
	}
	ts, ok := res.StructuredContent["timestamp"].(string)
	if !ok {
		t.Fatalf("timestamp missing: %+v", res.StructuredContent)
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Fatalf("timestamp %q is not RFC3339: %v", ts, err)
	}
	if got := res.Meta[mcp.MetaOutputTemplate]; got != echoWidget.URI() {
		t.Fatalf("widget binding = %v, want %v", got, echoWidget.URI())
	}
}

func TestEchoToolRejectsEmptyMessage(t *testing.T) {
	t.Parallel()
	reg, err := mcpservice.NewToolRegistry(newEchoTool())
	if err != nil {
		t.Fatalf("registry build failed: %v", err)
	}

	_, err = reg.Call(context.Background(), &mcp.CallToolRequest{
		Name:      "echo",
		Arguments: json.RawMessage(`{"message":""}`),
	})
	var invalid *mcpservice.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidInputError", err)
	}
}
