// Package api serves the layout editor over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"sitebuilder/internal/domain"
	"sitebuilder/internal/service"
)

// Approvals is the approval queue shared with the MCP server.
type Approvals interface {
	Pending(ctx context.Context) ([]domain.PendingAction, error)
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id string) error
}

// Deps holds everything the HTTP layer needs from the app layer.
type Deps struct {
	Layouts      *service.LayoutService
	Exports      *service.ExportService
	Events       *Broadcaster
	Approvals    Approvals
	MCP          http.Handler // mounted at /mcp when set
	Tokens       []string
	JWTSecret    string
	DefaultStore string
	Logger       *zap.Logger
}

type handler struct {
	layouts      *service.LayoutService
	exports      *service.ExportService
	events       *Broadcaster
	approvals    Approvals
	auth         authenticator
	defaultStore string
	logger       *zap.Logger
}

// NewRouter builds the chi router with every endpoint mounted.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{
		layouts:      d.Layouts,
		exports:      d.Exports,
		events:       d.Events,
		approvals:    d.Approvals,
		auth:         newAuthenticator(d.JWTSecret, d.Tokens),
		defaultStore: d.DefaultStore,
		logger:       logger.Named("http"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Post("/api/verify-token", h.verifyToken)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.middleware)

		if d.MCP != nil {
			r.With(requireStore(h.defaultStore)).Handle("/mcp", d.MCP)
		}

		r.Route("/api", func(r chi.Router) {
			r.Get("/events", h.streamEvents)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Compress(5, "application/json"))
				r.Use(middleware.Timeout(30 * time.Second))

				r.Get("/routes", h.listRoutes)
				r.Post("/routes", h.createRoute)
				r.Delete("/routes/{route}", h.deleteRoute)

				r.Route("/layout", func(r chi.Router) {
					r.Get("/", h.getLayout)
					r.Put("/", h.saveLayout)
					r.Post("/sections", h.createSection)
					r.Delete("/sections/{id}", h.deleteSection)
					r.Patch("/sections/{id}", h.patchSection)
					r.Post("/sections/{id}/move", h.moveSection)
					r.Post("/sections/{id}/style", h.styleSection)
					r.Post("/sections/{id}/elements", h.addElement)
					r.Post("/undo", h.undo)
					r.Post("/redo", h.redo)
					r.Get("/history", h.history)
					r.Get("/outline", h.outline)
					r.Get("/stylesheet", h.stylesheet)
				})

				r.Get("/templates", h.listTemplates)
				r.Get("/animations", h.listAnimations)
				r.Post("/animations/css", h.animationCSS)
				r.Post("/export", h.export)

				r.Group(func(r chi.Router) {
					r.Use(requireStore(h.defaultStore))
					r.Get("/approvals", h.listApprovals)
					r.Post("/approvals/{id}/approve", h.resolveApproval(true))
					r.Post("/approvals/{id}/reject", h.resolveApproval(false))
				})
			})
		})
	})
	return r
}
