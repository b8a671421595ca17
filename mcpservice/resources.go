package mcpservice

import (
	"context"
	"fmt"

	"github.com/widgethq/widgetmcp/mcp"
	"github.com/widgethq/widgetmcp/widgets"
)

// ResourceRegistry exposes the widget registry as MCP resources. Listing is
// static; reads invoke the asset provider's lazy content loader.
type ResourceRegistry struct {
	widgets *widgets.Registry
	assets  widgets.AssetProvider
}

// NewResourceRegistry binds widget descriptors to their asset provider.
func NewResourceRegistry(reg *widgets.Registry, assets widgets.AssetProvider) *ResourceRegistry {
	return &ResourceRegistry{widgets: reg, assets: assets}
}

// Snapshot returns the static descriptors for every registered resource.
func (r *ResourceRegistry) Snapshot() []mcp.Resource {
	defs := r.widgets.All()
	out := make([]mcp.Resource, len(defs))
	for i, w := range defs {
		out[i] = mcp.Resource{
			URI:         w.URI(),
			Name:        w.Title,
			Description: w.Description,
			MimeType:    mcp.WidgetContentType,
		}
	}
	return out
}

// Read loads the widget document for uri. The contents are always tagged
// with the fixed host-renderable content kind.
func (r *ResourceRegistry) Read(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	w, ok := r.widgets.Lookup(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, uri)
	}

	html, err := r.assets.WidgetHTML(ctx, w.Key)
	if err != nil {
		return nil, &ResourceLoadError{URI: uri, Err: err}
	}

	return &mcp.ReadResourceResult{
		Contents: []mcp.ResourceContents{{
			URI:      uri,
			MimeType: mcp.WidgetContentType,
			Text:     html,
		}},
	}, nil
}
