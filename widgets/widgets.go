// Package widgets describes the browser-rendered UI fragments this server
// serves as MCP resources, and the asset provider that loads their HTML.
package widgets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/widgethq/widgetmcp/mcp"
)

// Widget is the declarative descriptor of one UI fragment. Descriptors are
// immutable after process start.
type Widget struct {
	// Key names the built asset, e.g. "echo" loads "echo.html".
	Key string
	// Title is the human-readable widget name surfaced in resource listings.
	Title string
	// Description explains what the widget renders.
	Description string
}

// URI returns the widget's resource identifier under the fixed ui:// scheme.
func (w Widget) URI() string {
	return mcp.WidgetURIScheme + "widget/" + w.Key + ".html"
}

// Registry is a read-only widget lookup table. It requires no
// synchronization: it is populated once at startup and only read at request
// time.
type Registry struct {
	byURI map[string]Widget
	order []string
}

// NewRegistry builds a registry from descriptors. Duplicate keys are a
// configuration error.
func NewRegistry(defs ...Widget) (*Registry, error) {
	r := &Registry{byURI: make(map[string]Widget, len(defs))}
	for _, w := range defs {
		if w.Key == "" {
			return nil, fmt.Errorf("widget with empty key")
		}
		uri := w.URI()
		if _, dup := r.byURI[uri]; dup {
			return nil, fmt.Errorf("duplicate widget key %q", w.Key)
		}
		r.byURI[uri] = w
		r.order = append(r.order, uri)
	}
	sort.Strings(r.order)
	return r, nil
}

// Lookup resolves a resource URI to its widget descriptor.
func (r *Registry) Lookup(uri string) (Widget, bool) {
	w, ok := r.byURI[uri]
	return w, ok
}

// All returns the descriptors in stable URI order.
func (r *Registry) All() []Widget {
	out := make([]Widget, 0, len(r.order))
	for _, uri := range r.order {
		out = append(out, r.byURI[uri])
	}
	return out
}

// IsWidgetURI reports whether uri uses the fixed widget scheme. URIs under
// any other scheme are unknown resources by definition.
func IsWidgetURI(uri string) bool {
	return strings.HasPrefix(uri, mcp.WidgetURIScheme)
}
