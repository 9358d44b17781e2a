package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/api"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/cluster"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/config"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/forge"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/linker"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/logging"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/server"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/storage"
	"github.com/wagnerlima/memory-cloud/mind-mcp/internal/tools"
)

const shutdownTimeout = 10 * time.Second

// app is the wired component graph for one process.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *storage.Store
	clusters *cluster.Engine
	tools    *tools.MindTools
}

func newApp(cfg config.Config, logger *zap.Logger) (*app, error) {
	store, err := storage.OpenDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	clusters := cluster.NewEngine(store, logger.Named("cluster"))
	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		clusters: clusters,
		tools: &tools.MindTools{
			Store:    store,
			Linker:   linker.New(store, logger.Named("linker")),
			Clusters: clusters,
			Logger:   logger.Named("tools"),
		},
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func run(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("The Mind starting",
		zap.String("transport", cfg.Transport),
		zap.String("db", a.store.Path()),
		zap.String("version", version),
	)

	switch cfg.Transport {
	case config.TransportStdio:
		return a.serveStdio(ctx)
	case config.TransportHTTP:
		return a.serveHTTP(ctx)
	default:
		return goerr.New("unknown transport", goerr.V("transport", cfg.Transport))
	}
}

// serveStdio runs the line protocol on stdin/stdout. A signal returns
// immediately; the blocked stdin read is abandoned with the process.
func (a *app) serveStdio(ctx context.Context) error {
	ls := server.NewLineServer(a.tools, version, a.logger.Named("protocol"))

	errc := make(chan error, 1)
	go func() { errc <- ls.Serve(ctx, os.Stdin, os.Stdout) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down")
		return nil
	}
}

// serveHTTP serves /mcp, /api, /health and /metrics until ctx is done.
func (a *app) serveHTTP(ctx context.Context) error {
	mcpServer := server.New(a.tools, version)
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	forgeSource := forge.New(a.cfg.ForgeDir, a.logger.Named("forge"))
	httpServer := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           api.New(a.store, a.clusters, forgeSource, a.logger.Named("api")).Handler(mcpHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("listening", zap.String("addr", a.cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return goerr.Wrap(err, "http server", goerr.V("addr", a.cfg.Addr))
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
