package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"sitebuilder/internal/api"
	"sitebuilder/internal/config"
	"sitebuilder/internal/domain"
	mcpserver "sitebuilder/internal/mcp"
	"sitebuilder/internal/service"
	"sitebuilder/internal/storage"
	"sitebuilder/internal/template"
)

// App owns the storage handles and the services built on them. The serve,
// mcp and one-shot CLI commands all start from an App.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	db        *storage.DB // main SQL database, or the history sidecar for mongo
	routes    domain.RouteStore
	history   *storage.HistoryStore
	approvals *storage.ApprovalStore
	catalog   *template.Catalog

	events    *api.Broadcaster
	layouts   *service.LayoutService
	exports   *service.ExportService
	approvalQ *mcpserver.ApprovalQueue
}

// New opens storage per cfg and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}
	if err := a.openStorage(ctx); err != nil {
		return nil, err
	}

	catalog, err := template.New(cfg.Templates.Dir, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load templates: %w", err)
	}
	a.catalog = catalog

	a.events = api.NewBroadcaster(logger)
	a.layouts = service.NewLayoutService(a.routes, a.history, catalog, a.events,
		service.WithSanitizer(cfg.Server.SanitizeHTML),
		service.WithLogger(logger),
	)
	a.exports = service.NewExportService(a.routes, a.history, cfg.Storage.MaxHistory, cfg.Export.Dir, a.events, logger)
	a.approvalQ = mcpserver.NewApprovalQueue(a.events, cfg.GetApprovalTimeout())
	return a, nil
}

func (a *App) openStorage(ctx context.Context) error {
	switch a.cfg.Storage.Backend {
	case config.BackendMongo:
		routes, err := storage.OpenMongo(ctx, a.cfg.Storage.Mongo, a.logger)
		if err != nil {
			return err
		}
		db, err := storage.Open(storage.SQLite, a.cfg.Storage.HistoryPath)
		if err != nil {
			routes.Close()
			return fmt.Errorf("open history database: %w", err)
		}
		a.routes, a.db = routes, db
	default:
		dialect, dsn, err := a.cfg.Storage.SQL.DataSource()
		if err != nil {
			return err
		}
		db, err := storage.Open(dialect, dsn)
		if err != nil {
			return fmt.Errorf("open %s database: %w", dialect, err)
		}
		a.routes, a.db = storage.NewRouteStore(db), db
	}
	a.history = storage.NewHistoryStore(a.db, a.cfg.Storage.MaxHistory)
	a.approvals = storage.NewApprovalStore(a.db)
	a.logger.Info("storage ready",
		zap.String("backend", a.cfg.Storage.Backend),
		zap.String("dialect", string(a.db.Dialect())),
	)
	return nil
}

// Close releases the storage handles.
func (a *App) Close() error {
	var errs []error
	if a.routes != nil {
		errs = append(errs, a.routes.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) Layouts() *service.LayoutService { return a.layouts }

func (a *App) Exports() *service.ExportService { return a.exports }

// StoreID is the store used when a request names none.
func (a *App) StoreID() string { return a.cfg.Server.DefaultStore }

func (a *App) mcpServer() *mcpserver.Server {
	return mcpserver.New(mcpserver.Deps{
		Name:            a.cfg.MCP.Name,
		Layouts:         a.layouts,
		Approvals:       a.approvalQ,
		StoreID:         a.cfg.Server.DefaultStore,
		RequireApproval: a.cfg.MCP.RequireApproval,
		Logger:          a.logger,
	})
}
