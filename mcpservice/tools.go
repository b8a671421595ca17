package mcpservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/widgethq/widgetmcp/mcp"
	"github.com/widgethq/widgetmcp/widgets"
)

// Tool pairs a declarative descriptor with the pure function that executes
// it and the widget that renders its output. Descriptors are immutable after
// construction.
type Tool struct {
	descriptor mcp.Tool
	widget     widgets.Widget
	handler    func(ctx context.Context, raw json.RawMessage) (structured map[string]any, summary string, err error)
}

// Descriptor returns the tool's wire descriptor, including the widget
// binding in _meta.
func (t Tool) Descriptor() mcp.Tool { return t.descriptor }

// Widget returns the widget that renders this tool's results.
func (t Tool) Widget() widgets.Widget { return t.widget }

// ToolOption configures NewTool.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description               string
	allowAdditionalProperties bool
	summarize                 func(structured map[string]any) string
}

// WithToolDescription sets the tool description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// WithToolAllowAdditionalProperties permits unknown argument fields. The
// default is strict: unknown fields fail validation.
func WithToolAllowAdditionalProperties() ToolOption {
	return func(c *toolConfig) { c.allowAdditionalProperties = true }
}

// WithSummary sets the function that renders the human-readable text block
// from the tool's structured output. Without it a generic summary is used.
func WithSummary(fn func(structured map[string]any) string) ToolOption {
	return func(c *toolConfig) { c.summarize = fn }
}

// NewTool builds a Tool from a typed args struct A and output struct O. The
// input schema is reflected from A (honoring json and jsonschema struct
// tags); at call time arguments are validated against that schema, decoded
// strictly, and handed to fn. The output O is erased to a generic structured
// map at the boundary.
func NewTool[A, O any](name string, widget widgets.Widget, fn func(ctx context.Context, args A) (O, error), opts ...ToolOption) Tool {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	schema := reflectInputSchema[A](cfg.allowAdditionalProperties)
	desc := mcp.Tool{
		Name:        name,
		Description: cfg.description,
		InputSchema: schema,
		BaseMetadata: mcp.BaseMetadata{
			Meta: map[string]any{mcp.MetaOutputTemplate: widget.URI()},
		},
	}

	handler := func(ctx context.Context, raw json.RawMessage) (map[string]any, string, error) {
		if fieldErrs := validateArguments(schema, raw); len(fieldErrs) > 0 {
			return nil, "", &InvalidInputError{Tool: name, Fields: fieldErrs}
		}

		var args A
		if len(raw) > 0 {
			dec := json.NewDecoder(bytes.NewReader(raw))
			if !cfg.allowAdditionalProperties {
				dec.DisallowUnknownFields()
			}
			if err := dec.Decode(&args); err != nil {
				return nil, "", &InvalidInputError{Tool: name, Fields: []FieldError{{Field: "(arguments)", Message: err.Error()}}}
			}
		}

		out, err := invoke(ctx, name, fn, args)
		if err != nil {
			return nil, "", err
		}

		structured, err := eraseOutput(out)
		if err != nil {
			return nil, "", &ToolExecutionError{Tool: name, Err: err}
		}

		summary := fmt.Sprintf("Tool %q completed.", name)
		if cfg.summarize != nil {
			summary = cfg.summarize(structured)
		}
		return structured, summary, nil
	}

	return Tool{descriptor: desc, widget: widget, handler: handler}
}

// invoke runs the tool function, converting both returned errors and panics
// into ToolExecutionError so a misbehaving tool never takes the session down.
func invoke[A, O any](ctx context.Context, name string, fn func(ctx context.Context, args A) (O, error), args A) (out O, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ToolExecutionError{Tool: name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	out, ferr := fn(ctx, args)
	if ferr != nil {
		return out, &ToolExecutionError{Tool: name, Err: ferr}
	}
	return out, nil
}

// eraseOutput converts a typed output struct to the generic structured-data
// map handed to the UI host.
func eraseOutput(out any) (map[string]any, error) {
	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("marshal structured output: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("structured output must be a JSON object: %w", err)
	}
	return m, nil
}

// reflectInputSchema reflects the typed args struct into the simplified MCP
// input schema, inlining definitions and keeping minLength/enum constraints
// the runtime validator understands.
func reflectInputSchema[A any](allowAdditional bool) mcp.ToolInputSchema {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: allowAdditional,
	}
	s := r.Reflect(new(A))

	if s == nil || s.Type != "object" {
		return mcp.ToolInputSchema{
			Type:                 "object",
			Properties:           map[string]mcp.SchemaProperty{},
			AdditionalProperties: allowAdditional,
		}
	}

	props := make(map[string]mcp.SchemaProperty)
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			props[el.Key] = toSchemaProperty(el.Value)
		}
	}
	var required []string
	required = append(required, s.Required...)

	return mcp.ToolInputSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: allowAdditional,
	}
}

func toSchemaProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
		MinLength:   s.MinLength,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if s.Type == "array" && s.Items != nil {
		item := toSchemaProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		m := make(map[string]mcp.SchemaProperty, s.Properties.Len())
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m[el.Key] = toSchemaProperty(el.Value)
		}
		p.Properties = m
		p.Required = append(p.Required, s.Required...)
	}
	return p
}

// ToolRegistry is the read-only tool lookup table. It is populated once at
// startup and requires no synchronization at request time.
type ToolRegistry struct {
	tools  []Tool
	byName map[string]Tool
}

// NewToolRegistry builds a registry. Duplicate tool names are a
// configuration error.
func NewToolRegistry(defs ...Tool) (*ToolRegistry, error) {
	r := &ToolRegistry{byName: make(map[string]Tool, len(defs))}
	for _, t := range defs {
		name := t.descriptor.Name
		if name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if _, dup := r.byName[name]; dup {
			return nil, fmt.Errorf("duplicate tool name %q", name)
		}
		r.byName[name] = t
		r.tools = append(r.tools, t)
	}
	return r, nil
}

// Snapshot returns the full set of tool descriptors in registration order.
func (r *ToolRegistry) Snapshot() []mcp.Tool {
	out := make([]mcp.Tool, len(r.tools))
	for i, t := range r.tools {
		out[i] = t.descriptor
	}
	return out
}

// Lookup resolves a tool by name.
func (r *ToolRegistry) Lookup(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Call validates and executes the named tool, wrapping the result with the
// three parts the host requires: text summary, structured content, and the
// widget binding metadata.
func (r *ToolRegistry) Call(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tool, ok := r.byName[req.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, req.Name)
	}

	structured, summary, err := tool.handler(ctx, req.Arguments)
	if err != nil {
		return nil, err
	}

	return &mcp.CallToolResult{
		Content:           []mcp.ContentBlock{{Type: "text", Text: summary}},
		StructuredContent: structured,
		BaseMetadata: mcp.BaseMetadata{
			Meta: map[string]any{mcp.MetaOutputTemplate: tool.widget.URI()},
		},
	}, nil
}
