package widgets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// AssetProvider loads the rendered HTML document for a widget key. Loads may
// involve disk or network I/O and are invoked per resource read.
type AssetProvider interface {
	WidgetHTML(ctx context.Context, key string) (string, error)
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithDevServer points the provider at a live bundler endpoint (e.g. a Vite
// dev server). When set, loads try the dev server first and fall back to the
// static build directory.
func WithDevServer(baseURL string) ProviderOption {
	return func(p *Provider) { p.devServerURL = baseURL }
}

// WithHTTPClient overrides the client used for dev server fetches.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) { p.client = c }
}

// WithProviderLogger sets the slog logger. Logs are discarded if not provided.
func WithProviderLogger(log *slog.Logger) ProviderOption {
	return func(p *Provider) { p.log = log }
}

// Provider reads widget HTML from a static build directory, optionally
// preferring a live bundler endpoint in development. Static reads are cached
// until the build directory changes on disk.
type Provider struct {
	staticDir    string
	devServerURL string
	client       *http.Client
	log          *slog.Logger

	mu    sync.RWMutex
	cache map[string]string
}

// NewProvider creates a provider rooted at the static build directory.
func NewProvider(staticDir string, opts ...ProviderOption) *Provider {
	p := &Provider{
		staticDir: staticDir,
		client:    &http.Client{Timeout: 5 * time.Second},
		log:       slog.New(slog.DiscardHandler),
		cache:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WidgetHTML implements AssetProvider.
func (p *Provider) WidgetHTML(ctx context.Context, key string) (string, error) {
	if p.devServerURL != "" {
		html, err := p.fetchDev(ctx, key)
		if err == nil {
			return html, nil
		}
		p.log.DebugContext(ctx, "assets.dev_fetch.fallback",
			slog.String("widget", key), slog.String("err", err.Error()))
	}
	return p.readStatic(key)
}

func (p *Provider) fetchDev(ctx context.Context, key string) (string, error) {
	u, err := url.JoinPath(p.devServerURL, key+".html")
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	res, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("dev server returned %s for %s", res.Status, u)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (p *Provider) readStatic(key string) (string, error) {
	p.mu.RLock()
	html, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		return html, nil
	}

	path := filepath.Join(p.staticDir, key+".html")
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("widget %q is not built: %w", key, err)
		}
		return "", fmt.Errorf("read widget %q: %w", key, err)
	}

	p.mu.Lock()
	p.cache[key] = string(b)
	p.mu.Unlock()
	return string(b), nil
}

// Invalidate drops any cached content for key. An empty key drops the whole
// cache.
func (p *Provider) Invalidate(key string) {
	p.mu.Lock()
	if key == "" {
		p.cache = make(map[string]string)
	} else {
		delete(p.cache, key)
	}
	p.mu.Unlock()
}

// Watch invalidates cached assets when the static build directory changes,
// so a rebuild is picked up without a restart. It blocks until ctx is
// canceled and then returns nil; cancellation is the normal way to stop
// watching, not a failure. Returns nil if the watch cannot be established;
// the cache is an optimization and reads fall through to disk once
// invalidated.
func (p *Provider) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		p.log.Debug("assets.watch.unavailable", slog.String("err", err.Error()))
		return nil
	}
	defer w.Close()

	if err := w.Add(p.staticDir); err != nil {
		p.log.Debug("assets.watch.add.fail", slog.String("dir", p.staticDir), slog.String("err", err.Error()))
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if filepath.Ext(name) != ".html" {
				continue
			}
			key := name[:len(name)-len(".html")]
			p.Invalidate(key)
			p.log.DebugContext(ctx, "assets.cache.invalidate", slog.String("widget", key))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			p.log.Debug("assets.watch.err", slog.String("err", err.Error()))
		}
	}
}

var _ AssetProvider = (*Provider)(nil)
