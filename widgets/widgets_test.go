package widgets

import (
	"testing"
)

func TestWidgetURI(t *testing.T) {
	t.Parallel()
	w := Widget{Key: "echo"}
	if got := w.URI(); got != "ui://widget/echo.html" {
		t.Fatalf("URI() = %q", got)
	}
}

func TestRegistryLookupAndOrder(t *testing.T) {
	t.Parallel()
	reg, err := NewRegistry(
		Widget{Key: "zebra", Title: "Zebra"},
		Widget{Key: "alpha", Title: "Alpha"},
	)
	if err != nil {
		t.Fatalf("registry build failed: %v", err)
	}

	w, ok := reg.Lookup("ui://widget/alpha.html")
	if !ok || w.Key != "alpha" {
		t.Fatalf("lookup = (%+v, %v)", w, ok)
	}
	if _, ok := reg.Lookup("ui://widget/missing.html"); ok {
		t.Fatal("lookup of unknown URI succeeded")
	}

	all := reg.All()
	if len(all) != 2 || all[0].Key != "alpha" || all[1].Key != "zebra" {
		t.Fatalf("All() order = %+v", all)
	}
}

func TestNewRegistryRejectsDuplicatesAndEmptyKeys(t *testing.T) {
	t.Parallel()
	if _, err := NewRegistry(Widget{Key: "echo"}, Widget{Key: "echo"}); err == nil {
		t.Fatal("expected duplicate key error")
	}
	if _, err := NewRegistry(Widget{}); err == nil {
		t.Fatal("expected empty key error")
	}
}

func TestIsWidgetURI(t *testing.T) {
	t.Parallel()
	if !IsWidgetURI("ui://widget/echo.html") {
		t.Fatal("ui:// URI not recognized")
	}
	for _, uri := range []string{"widget://widget/echo.html", "https://example.com", ""} {
		if IsWidgetURI(uri) {
			t.Fatalf("IsWidgetURI(%q) = true", uri)
		}
	}
}
