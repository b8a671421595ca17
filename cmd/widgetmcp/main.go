// Command widgetmcp serves widget-backed tools over the MCP streaming HTTP
// transport.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/widgethq/widgetmcp/eventstream"
	"github.com/widgethq/widgetmcp/eventstream/memorystream"
	"github.com/widgethq/widgetmcp/eventstream/redisstream"
	"github.com/widgethq/widgetmcp/internal/config"
	"github.com/widgethq/widgetmcp/mcp"
	"github.com/widgethq/widgetmcp/mcpservice"
	"github.com/widgethq/widgetmcp/sessions"
	"github.com/widgethq/widgetmcp/streaminghttp"
	"github.com/widgethq/widgetmcp/widgets"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server.exit", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(log)

	widgetRegistry, err := widgets.NewRegistry(echoWidget)
	if err != nil {
		return err
	}

	var providerOpts []widgets.ProviderOption
	providerOpts = append(providerOpts, widgets.WithProviderLogger(log))
	if cfg.WidgetDevServer != "" {
		providerOpts = append(providerOpts, widgets.WithDevServer(cfg.WidgetDevServer))
	}
	assets := widgets.NewProvider(cfg.WidgetAssetsDir, providerOpts...)
	go func() {
		if err := assets.Watch(ctx); err != nil {
			log.Warn("assets.watch.fail", slog.String("err", err.Error()))
		}
	}()

	toolRegistry, err := mcpservice.NewToolRegistry(newEchoTool())
	if err != nil {
		return err
	}
	resourceRegistry := mcpservice.NewResourceRegistry(widgetRegistry, assets)

	var stream eventstream.Log
	switch cfg.StreamBackend {
	case config.StreamBackendRedis:
		redisLog, err := redisstream.New(redisstream.Config{RedisAddr: cfg.RedisAddr})
		if err != nil {
			return err
		}
		defer redisLog.Close()
		stream = redisLog
	default:
		stream = memorystream.New()
	}

	manager := sessions.NewManager(sessions.WithLogger(log))
	go manager.Sweep(ctx, cfg.SessionSweepInterval, cfg.SessionMaxAge)

	serverInfo := mcp.ImplementationInfo{Name: "widgetmcp", Version: "0.1.0"}
	newInstance := func() *mcpservice.Server {
		return mcpservice.NewServer(serverInfo, toolRegistry, resourceRegistry,
			mcpservice.WithLogger(log),
			mcpservice.WithInstructions("Call the echo tool and render its result with the echo widget."),
		)
	}

	handlerOpts := []streaminghttp.Option{streaminghttp.WithLogger(log)}
	if cfg.AuthHS256Secret != "" {
		handlerOpts = append(handlerOpts, streaminghttp.WithBearerAuth([]byte(cfg.AuthHS256Secret)))
	}
	handler, err := streaminghttp.New(cfg.PublicEndpoint, manager, stream, newInstance, handlerOpts...)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server.listen", slog.String("addr", cfg.ListenAddr), slog.String("endpoint", cfg.PublicEndpoint))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server.shutdown.start")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server.shutdown.fail", slog.String("err", err.Error()))
	}
	manager.CloseAll(shutdownCtx)
	log.Info("server.shutdown.ok")
	return nil
}
