package main

import (
	"context"
	"time"

	"github.com/widgethq/widgetmcp/mcpservice"
	"github.com/widgethq/widgetmcp/widgets"
)

// EchoArgs is the input contract for the echo tool.
type EchoArgs struct {
	Message string `json:"message" jsonschema:"minLength=1,description=Message to echo back"`
}

// EchoResult is rendered by the echo widget.
type EchoResult struct {
	EchoedMessage string `json:"echoedMessage"`
	Timestamp     string `json:"timestamp"`
}

var echoWidget = widgets.Widget{
	Key:         "echo",
	Title:       "Echo",
	Description: "Displays a message echoed back by the server.",
}

func newEchoTool() mcpservice.Tool {
	return mcpservice.NewTool[EchoArgs, EchoResult](
		"echo",
		echoWidget,
		func(ctx context.Context, args EchoArgs) (EchoResult, error) {
			return EchoResult{
				EchoedMessage: args.Message,
				Timestamp:     time.Now().UTC().Format(time.RFC3339),
			}, nil
		},
		mcpservice.WithToolDescription("Echoes the provided message back, rendered in the echo widget."),
	)
}
