package mcpservice

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/widgethq/widgetmcp/internal/jsonrpc"
	"github.com/widgethq/widgetmcp/mcp"
	"github.com/widgethq/widgetmcp/widgets"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	tool := NewTool[echoArgs, echoOut](
		"echo",
		testWidget,
		func(ctx context.Context, args echoArgs) (echoOut, error) {
			return echoOut{EchoedMessage: args.Message}, nil
		},
	)
	tools, err := NewToolRegistry(tool)
	if err != nil {
		t.Fatalf("tool registry build failed: %v", err)
	}

	wreg, err := widgets.NewRegistry(testWidget)
	if err != nil {
		t.Fatalf("widget registry build failed: %v", err)
	}
	resources := NewResourceRegistry(wreg, &fakeAssets{html: map[string]string{"echo": "<html></html>"}})

	return NewServer(
		mcp.ImplementationInfo{Name: "widgetmcp-test", Version: "0.0.1"},
		tools,
		resources,
		WithInstructions("test instructions"),
	)
}

func mustRequest(t *testing.T, method string, params string) *jsonrpc.Request {
	t.Helper()
	raw := `{"jsonrpc":"2.0","id":1,"method":"` + method + `"`
	if params != "" {
		raw += `,"params":` + params
	}
	raw += `}`
	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal([]byte(raw), &msg); err != nil {
		t.Fatalf("build request: %v", err)
	}
	return msg.AsRequest()
}

func resultOf(t *testing.T, res *jsonrpc.Response, into any) {
	t.Helper()
	if res.Error != nil {
		t.Fatalf("unexpected error response: %+v", res.Error)
	}
	if err := json.Unmarshal(res.Result, into); err != nil {
		t.Fatalf("decode result: %v", err)
	}
}

func TestInitializeAdvertisesCapabilities(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	res := srv.Initialize(context.Background(), &mcp.InitializeRequest{
		ProtocolVersion: mcp.LatestProtocolVersion,
		ClientInfo:      mcp.ImplementationInfo{Name: "client", Version: "1.0"},
	})

	if res.ProtocolVersion != mcp.LatestProtocolVersion {
		t.Fatalf("protocolVersion = %q", res.ProtocolVersion)
	}
	if res.Capabilities.Tools == nil || res.Capabilities.Resources == nil {
		t.Fatal("tools and resources capabilities must both be advertised")
	}
	if res.ServerInfo.Name != "widgetmcp-test" {
		t.Fatalf("serverInfo.name = %q", res.ServerInfo.Name)
	}
	if res.Instructions != "test instructions" {
		t.Fatalf("instructions = %q", res.Instructions)
	}
}

func TestHandlePing(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	res, err := srv.Handle(context.Background(), mustRequest(t, "ping", ""))
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if res.Error != nil {
		t.Fatalf("ping returned error: %+v", res.Error)
	}
}

func TestHandleToolsList(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	res, err := srv.Handle(context.Background(), mustRequest(t, "tools/list", ""))
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	var out mcp.ListToolsResult
	resultOf(t, res, &out)
	if len(out.Tools) != 1 || out.Tools[0].Name != "echo" {
		t.Fatalf("unexpected tools: %+v", out.Tools)
	}
}

func TestHandleToolsCall(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	res, err := srv.Handle(context.Background(), mustRequest(t, "tools/call", `{"name":"echo","arguments":{"message":"hi"}}`))
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	var out mcp.CallToolResult
	resultOf(t, res, &out)
	if out.StructuredContent["echoedMessage"] != "hi" {
		t.Fatalf("structuredContent = %+v", out.StructuredContent)
	}
	if out.Meta[mcp.MetaOutputTemplate] != "ui://widget/echo.html" {
		t.Fatalf("meta = %+v", out.Meta)
	}
}

func TestHandleErrorTaxonomy(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	cases := []struct {
		name     string
		method   string
		params   string
		wantCode jsonrpc.ErrorCode
	}{
		{"unknown tool", "tools/call", `{"name":"nope","arguments":{}}`, jsonrpc.ErrorCodeInvalidParams},
		{"invalid input", "tools/call", `{"name":"echo","arguments":{}}`, jsonrpc.ErrorCodeInvalidParams},
		{"malformed call params", "tools/call", `"not an object"`, jsonrpc.ErrorCodeInvalidParams},
		{"unknown resource", "resources/read", `{"uri":"ui://widget/nope.html"}`, jsonrpc.ErrorCodeResourceNotFound},
		{"unknown method", "bogus/method", "", jsonrpc.ErrorCodeMethodNotFound},
		{"redundant initialize", "initialize", `{}`, jsonrpc.ErrorCodeInvalidRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res, err := srv.Handle(context.Background(), mustRequest(t, tc.method, tc.params))
			if err != nil {
				t.Fatalf("handle failed: %v", err)
			}
			if res.Error == nil {
				t.Fatalf("expected error response, got result %s", res.Result)
			}
			if res.Error.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", res.Error.Code, tc.wantCode)
			}
		})
	}
}

func TestHandleInvalidInputCarriesFieldErrors(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	res, err := srv.Handle(context.Background(), mustRequest(t, "tools/call", `{"name":"echo","arguments":{"message":""}}`))
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if res.Error == nil {
		t.Fatal("expected error response")
	}
	data, ok := res.Error.Data.(map[string]any)
	if !ok {
		t.Fatalf("error data = %T, want map", res.Error.Data)
	}
	if _, ok := data["fieldErrors"]; !ok {
		t.Fatalf("error data missing fieldErrors: %+v", data)
	}
}

func TestHandleResourcesReadAndList(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	res, err := srv.Handle(context.Background(), mustRequest(t, "resources/list", ""))
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	var list mcp.ListResourcesResult
	resultOf(t, res, &list)
	if len(list.Resources) != 1 {
		t.Fatalf("got %d resources, want 1", len(list.Resources))
	}

	res, err = srv.Handle(context.Background(), mustRequest(t, "resources/read", `{"uri":"ui://widget/echo.html"}`))
	if err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	var read mcp.ReadResourceResult
	resultOf(t, res, &read)
	if len(read.Contents) != 1 || read.Contents[0].MimeType != mcp.WidgetContentType {
		t.Fatalf("unexpected contents: %+v", read.Contents)
	}
}

func TestHandleNotificationInitialized(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`), &msg); err != nil {
		t.Fatalf("build notification: %v", err)
	}
	if err := srv.HandleNotification(context.Background(), msg.AsRequest()); err != nil {
		t.Fatalf("notification failed: %v", err)
	}

	// Unknown notifications are ignored, not errors.
	if err := json.Unmarshal([]byte(`{"jsonrpc":"2.0","method":"notifications/cancelled"}`), &msg); err != nil {
		t.Fatalf("build notification: %v", err)
	}
	if err := srv.HandleNotification(context.Background(), msg.AsRequest()); err != nil {
		t.Fatalf("unknown notification failed: %v", err)
	}
}
