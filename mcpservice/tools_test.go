package mcpservice

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/widgethq/widgetmcp/mcp"
	"github.com/widgethq/widgetmcp/widgets"
)

var testWidget = widgets.Widget{Key: "echo", Title: "Echo", Description: "Echoes a message."}

type echoArgs struct {
	Message string `json:"message" jsonschema:"minLength=1,description=Message to echo"`
}

type echoOut struct {
	EchoedMessage string `json:"echoedMessage"`
}

func newEchoRegistry(t *testing.T, calls *int) *ToolRegistry {
	t.Helper()
	tool := NewTool[echoArgs, echoOut](
		"echo",
		testWidget,
		func(ctx context.Context, args echoArgs) (echoOut, error) {
			if calls != nil {
				*calls++
			}
			return echoOut{EchoedMessage: args.Message}, nil
		},
		WithToolDescription("Echoes the provided message back."),
	)
	reg, err := NewToolRegistry(tool)
	if err != nil {
		t.Fatalf("registry build failed: %v", err)
	}
	return reg
}

func TestNewTool_DescriptorCarriesWidgetBinding(t *testing.T) {
	t.Parallel()
	reg := newEchoRegistry(t, nil)

	descs := reg.Snapshot()
	if len(descs) != 1 {
		t.Fatalf("got %d descriptors, want 1", len(descs))
	}
	d := descs[0]
	if d.Name != "echo" {
		t.Fatalf("name = %q", d.Name)
	}
	if got := d.Meta[mcp.MetaOutputTemplate]; got != "ui://widget/echo.html" {
		t.Fatalf("widget binding = %v, want ui://widget/echo.html", got)
	}
	if d.InputSchema.Type != "object" {
		t.Fatalf("schema type = %q", d.InputSchema.Type)
	}
	prop, ok := d.InputSchema.Properties["message"]
	if !ok {
		t.Fatal("schema missing message property")
	}
	if prop.Type != "string" {
		t.Fatalf("message type = %q", prop.Type)
	}
	if prop.MinLength == nil || *prop.MinLength != 1 {
		t.Fatalf("message minLength = %v, want 1", prop.MinLength)
	}
	if len(d.InputSchema.Required) != 1 || d.InputSchema.Required[0] != "message" {
		t.Fatalf("required = %v, want [message]", d.InputSchema.Required)
	}
}

func TestCall_ReturnsThreePartResult(t *testing.T) {
	t.Parallel()
	reg := newEchoRegistry(t, nil)

	res, err := reg.Call(context.Background(), &mcp.CallToolRequest{
		Name:      "echo",
		Arguments: json.RawMessage(`{"message":"hello"}`),
	})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}

	if len(res.Content) != 1 || res.Content[0].Type != "text" || res.Content[0].Text == "" {
		t.Fatalf("unexpected content: %+v", res.Content)
	}
	if got := res.StructuredContent["echoedMessage"]; got != "hello" {
		t.Fatalf("structuredContent.echoedMessage = %v, want hello", got)
	}
	if got := res.Meta[mcp.MetaOutputTemplate]; got != "ui://widget/echo.html" {
		t.Fatalf("result widget binding = %v", got)
	}
	if res.IsError {
		t.Fatal("result marked as error")
	}
}

func TestCall_UnknownToolNeverExecutes(t *testing.T) {
	t.Parallel()
	calls := 0
	reg := newEchoRegistry(t, &calls)

	_, err := reg.Call(context.Background(), &mcp.CallToolRequest{
		Name:      "nope",
		Arguments: json.RawMessage(`{"message":"hello"}`),
	})
	if !errors.Is(err, ErrUnknownTool) {
		t.Fatalf("err = %v, want ErrUnknownTool", err)
	}
	if calls != 0 {
		t.Fatalf("tool executed %d times for unknown name", calls)
	}
}

func TestCall_InvalidInputFailsBeforeExecution(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		args      string
		wantField string
	}{
		{"missing required", `{}`, "message"},
		{"wrong type", `{"message":42}`, "message"},
		{"below min length", `{"message":""}`, "message"},
		{"unknown field", `{"message":"hi","bogus":true}`, "bogus"},
		{"not an object", `[1,2]`, "(arguments)"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			calls := 0
			reg := newEchoRegistry(t, &calls)

			_, err := reg.Call(context.Background(), &mcp.CallToolRequest{
				Name:      "echo",
				Arguments: json.RawMessage(tc.args),
			})
			var invalid *InvalidInputError
			if !errors.As(err, &invalid) {
				t.Fatalf("err = %v, want InvalidInputError", err)
			}
			found := false
			for _, f := range invalid.Fields {
				if f.Field == tc.wantField {
					found = true
				}
			}
			if !found {
				t.Fatalf("field errors %+v missing %q", invalid.Fields, tc.wantField)
			}
			if calls != 0 {
				t.Fatal("tool executed despite invalid input")
			}
		})
	}
}

func TestCall_ExecutionErrorIsWrapped(t *testing.T) {
	t.Parallel()
	boom := errors.New("backend down")
	tool := NewTool[echoArgs, echoOut](
		"echo",
		testWidget,
		func(ctx context.Context, args echoArgs) (echoOut, error) {
			return echoOut{}, boom
		},
	)
	reg, err := NewToolRegistry(tool)
	if err != nil {
		t.Fatalf("registry build failed: %v", err)
	}

	_, err = reg.Call(context.Background(), &mcp.CallToolRequest{
		Name:      "echo",
		Arguments: json.RawMessage(`{"message":"hi"}`),
	})
	var execErr *ToolExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want ToolExecutionError", err)
	}
	if !errors.Is(err, boom) {
		t.Fatal("wrapped error lost the cause")
	}
}

func TestCall_PanicBecomesExecutionError(t *testing.T) {
	t.Parallel()
	tool := NewTool[echoArgs, echoOut](
		"echo",
		testWidget,
		func(ctx context.Context, args echoArgs) (echoOut, error) {
			panic("tool bug")
		},
	)
	reg, err := NewToolRegistry(tool)
	if err != nil {
		t.Fatalf("registry build failed: %v", err)
	}

	_, err = reg.Call(context.Background(), &mcp.CallToolRequest{
		Name:      "echo",
		Arguments: json.RawMessage(`{"message":"hi"}`),
	})
	var execErr *ToolExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want ToolExecutionError", err)
	}
}

func TestCall_CustomSummary(t *testing.T) {
	t.Parallel()
	tool := NewTool[echoArgs, echoOut](
		"echo",
		testWidget,
		func(ctx context.Context, args echoArgs) (echoOut, error) {
			return echoOut{EchoedMessage: args.Message}, nil
		},
		WithSummary(func(structured map[string]any) string {
			return "Echoed: " + structured["echoedMessage"].(string)
		}),
	)
	reg, err := NewToolRegistry(tool)
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
	if res.Content[0].Text != "Echoed: hi" {
		t.Fatalf("summary = %q", res.Content[0].Text)
	}
}

func TestNewToolRegistry_RejectsDuplicates(t *testing.T) {
	t.Parallel()
	tool := NewTool[echoArgs, echoOut]("echo", testWidget, func(ctx context.Context, args echoArgs) (echoOut, error) {
		return echoOut{}, nil
	})
	if _, err := NewToolRegistry(tool, tool); err == nil {
		t.Fatal("expected duplicate tool name error")
	}
}
