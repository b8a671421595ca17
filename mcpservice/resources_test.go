package mcpservice

import (
	"context"
	"errors"
	"testing"

	"github.com/widgethq/widgetmcp/mcp"
	"github.com/widgethq/widgetmcp/widgets"
)

type fakeAssets struct {
	html map[string]string
	err  error
}

func (f *fakeAssets) WidgetHTML(ctx context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.html[key], nil
}

func newResourceFixture(t *testing.T, assets widgets.AssetProvider) *ResourceRegistry {
	t.Helper()
	reg, err := widgets.NewRegistry(
		widgets.Widget{Key: "echo", Title: "Echo", Description: "Echoes a message."},
		widgets.Widget{Key: "chart", Title: "Chart", Description: "Renders a chart."},
	)
	if err != nil {
		t.Fatalf("widget registry build failed: %v", err)
	}
	return NewResourceRegistry(reg, assets)
}

func TestSnapshotListsWidgetsAsResources(t *testing.T) {
	t.Parallel()
	rr := newResourceFixture(t, &fakeAssets{})

	resources := rr.Snapshot()
	if len(resources) != 2 {
		t.Fatalf("got %d resources, want 2", len(resources))
	}
	// Stable URI order.
	if resources[0].URI != "ui://widget/chart.html" || resources[1].URI != "ui://widget/echo.html" {
		t.Fatalf("unexpected order: %q, %q", resources[0].URI, resources[1].URI)
	}
	for _, r := range resources {
		if r.MimeType != mcp.WidgetContentType {
			t.Fatalf("mimeType = %q, want %q", r.MimeType, mcp.WidgetContentType)
		}
		if r.Name == "" {
			t.Fatalf("resource %q has no name", r.URI)
		}
	}
}

func TestReadReturnsWidgetDocument(t *testing.T) {
	t.Parallel()
	rr := newResourceFixture(t, &fakeAssets{html: map[string]string{"echo": "<html>echo</html>"}})

	res, err := rr.Read(context.Background(), "ui://widget/echo.html")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(res.Contents))
	}
	c := res.Contents[0]
	if c.URI != "ui://widget/echo.html" {
		t.Fatalf("uri = %q", c.URI)
	}
	if c.MimeType != mcp.WidgetContentType {
		t.Fatalf("mimeType = %q", c.MimeType)
	}
	if c.Text != "<html>echo</html>" {
		t.Fatalf("text = %q", c.Text)
	}
}

func TestReadUnknownURI(t *testing.T) {
	t.Parallel()
	rr := newResourceFixture(t, &fakeAssets{})

	for _, uri := range []string{
		"ui://widget/missing.html",
		"widget://widget/echo.html",
		"file:///etc/passwd",
	} {
		if _, err := rr.Read(context.Background(), uri); !errors.Is(err, ErrUnknownResource) {
			t.Fatalf("Read(%q) = %v, want ErrUnknownResource", uri, err)
		}
	}
}

func TestReadLoadFailure(t *testing.T) {
	t.Parallel()
	rr := newResourceFixture(t, &fakeAssets{err: errors.New("disk gone")})

	_, err := rr.Read(context.Background(), "ui://widget/echo.html")
	var loadErr *ResourceLoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("err = %v, want ResourceLoadError", err)
	}
	if loadErr.URI != "ui://widget/echo.html" {
		t.Fatalf("loadErr.URI = %q", loadErr.URI)
	}
}
