package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sitebuilder/internal/api"
)

// Serve runs the HTTP API (with MCP mounted at /mcp), the scheduler and
// the template watcher until ctx is cancelled or one of them fails.
func (a *App) Serve(ctx context.Context) error {
	return a.serve(ctx, nil)
}

// serve reports the bound address on ready when it is not nil.
func (a *App) serve(ctx context.Context, ready chan<- string) error {
	// approvals requested by a standalone `mcp` process show up here too
	a.approvalQ.WatchStore(a.approvals)

	router := api.NewRouter(api.Deps{
		Layouts:      a.layouts,
		Exports:      a.exports,
		Events:       a.events,
		Approvals:    a.approvalQ,
		MCP:          a.mcpServer().HTTPHandler(),
		Tokens:       a.cfg.Server.Tokens,
		JWTSecret:    a.cfg.Server.JWTSecret,
		DefaultStore: a.cfg.Server.DefaultStore,
		Logger:       a.logger,
	})

	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// cancelling gctx also ends open event streams
		BaseContext: func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		a.logger.Info("http server listening", zap.String("addr", ln.Addr().String()))
		if ready != nil {
			ready <- ln.Addr().String()
		}
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GetShutdownTimeout())
		defer cancel()
		a.logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return a.exports.Run(gctx, a.cfg.Export.Schedule, a.cfg.ExportStore())
	})
	if a.cfg.Templates.Watch {
		g.Go(func() error {
			return a.catalog.Watch(gctx)
		})
	}
	return g.Wait()
}
