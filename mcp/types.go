package mcp

// Method is an MCP method identifier used in JSON-RPC messages.
type Method string

// Method names understood by the server. The dispatch switch in mcpservice
// is exhaustive over this set; adding a method means adding a constant here
// and a case there.
const (
	InitializeMethod              Method = "initialize"
	InitializedNotificationMethod Method = "notifications/initialized"
	PingMethod                    Method = "ping"

	ToolsListMethod Method = "tools/list"
	ToolsCallMethod Method = "tools/call"

	ResourcesListMethod Method = "resources/list"
	ResourcesReadMethod Method = "resources/read"
)

// LatestProtocolVersion is the protocol revision this server negotiates.
const LatestProtocolVersion = "2025-06-18"

// Widget rendering contract. The UI host keys its rendering behavior off
// these exact strings; the server must never alter or omit them.
const (
	// WidgetURIScheme prefixes every widget resource URI (e.g.
	// "ui://widget/echo.html"). The widget:// spelling seen in some hosts is
	// deliberately not accepted.
	WidgetURIScheme = "ui://"

	// WidgetContentType is the fixed content kind that marks resource
	// contents as host-renderable widget UI.
	WidgetContentType = "text/html+widget"

	// MetaOutputTemplate is the _meta key on tool descriptors and tool call
	// results whose value names the widget resource that renders the result.
	MetaOutputTemplate = "ui/outputTemplate"
)

// ImplementationInfo describes an implementation name and version.
type ImplementationInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Title   string `json:"title,omitzero"`
}

// ClientCapabilities advertises client features. The server does not consume
// any of them today but echoes structure for protocol compliance.
type ClientCapabilities struct {
	Roots *struct {
		ListChanged bool `json:"listChanged"`
	} `json:"roots,omitempty"`
	Sampling    *struct{} `json:"sampling,omitempty"`
	Elicitation *struct{} `json:"elicitation,omitempty"`
}

// ServerCapabilities advertises server features.
type ServerCapabilities struct {
	Tools *struct {
		ListChanged bool `json:"listChanged"`
	} `json:"tools,omitempty"`
	Resources *struct {
		ListChanged bool `json:"listChanged"`
		Subscribe   bool `json:"subscribe"`
	} `json:"resources,omitempty"`
}

// Tool describes a callable tool and its input schema.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema ToolInputSchema `json:"inputSchema"`
	BaseMetadata
}

// ToolInputSchema is a JSON-schema-like description of tool input. Input is
// always an object.
type ToolInputSchema struct {
	Type                 string                    `json:"type"`
	Properties           map[string]SchemaProperty `json:"properties,omitempty"`
	Required             []string                  `json:"required,omitempty"`
	AdditionalProperties bool                      `json:"additionalProperties,omitzero"`
}

// SchemaProperty is a simplified schema node used in tool input schemas.
type SchemaProperty struct {
	Type        string                    `json:"type,omitempty"`
	Description string                    `json:"description,omitzero"`
	Items       *SchemaProperty           `json:"items,omitempty"`
	Properties  map[string]SchemaProperty `json:"properties,omitempty"`
	Required    []string                  `json:"required,omitempty"`
	Enum        []any                     `json:"enum,omitempty"`
	MinLength   *uint64                   `json:"minLength,omitempty"`
}

// Resource represents an addressable resource. Every resource this server
// exposes is a widget document under the ui:// scheme.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitzero"`
	MimeType    string `json:"mimeType,omitzero"`
}

// ResourceContents is the value of a resource read.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitzero"`
	Text     string `json:"text,omitzero"`
}

// ContentBlock is a typed content part of a tool result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitzero"`
}

// BaseMetadata carries optional out-of-band metadata for descriptors and
// results.
type BaseMetadata struct {
	Meta map[string]any `json:"_meta,omitempty"`
}
