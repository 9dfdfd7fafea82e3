package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sitebuilder/internal/animation"
)

// ── Routes ─────────────────────────────────────────────────

func (h *handler) listRoutes(w http.ResponseWriter, r *http.Request) {
	store, err := h.storeID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	routes, err := h.layouts.ListRoutes(r.Context(), store)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, routes)
}

type createRouteRequest struct {
	Route string `json:"route"`
}

func (h *handler) createRoute(w http.ResponseWriter, r *http.Request) {
	store, err := h.storeID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req createRouteRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	doc, err := h.layouts.CreateRoute(r.Context(), store, req.Route)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *handler) deleteRoute(w http.ResponseWriter, r *http.Request) {
	store, err := h.storeID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.layouts.DeleteRoute(r.Context(), store, chi.URLParam(r, "route")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ── Catalogs ───────────────────────────────────────────────

func (h *handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.layouts.Templates())
}

func (h *handler) listAnimations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"animations":      animation.Catalog(),
		"timingFunctions": animation.TimingFunctions(),
		"effects":         animation.EffectTypes(),
	})
}

// animationCSSRequest carries either a bare animation or an effect.
type animationCSSRequest struct {
	Effect    string           `json:"effect"`
	Animation animation.Config `json:"animation"`
}

func (h *handler) animationCSS(w http.ResponseWriter, r *http.Request) {
	var req animationCSSRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Effect != "" {
		e := animation.Effect{Type: req.Effect, Animation: req.Animation}
		if err := animation.ValidateEffect(e); err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"css": animation.EffectCSS(e), "preview": animation.EffectPreview(e)})
		return
	}
	if err := animation.Validate(req.Animation); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"css": animation.CSS(req.Animation), "preview": animation.Preview(req.Animation.Type)})
}

// ── Export ─────────────────────────────────────────────────

func (h *handler) export(w http.ResponseWriter, r *http.Request) {
	if h.exports == nil {
		h.fail(w, r, fmt.Errorf("%w: export is not configured", errBadRequest))
		return
	}
	store, err := h.storeID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.exports.Export(r.Context(), store)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ── Approvals ──────────────────────────────────────────────

func (h *handler) listApprovals(w http.ResponseWriter, r *http.Request) {
	if h.approvals == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	pending, err := h.approvals.Pending(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pending)
}

func (h *handler) resolveApproval(approved bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.approvals == nil {
			writeError(w, http.StatusNotFound, "approvals are not enabled")
			return
		}
		id := chi.URLParam(r, "id")
		var err error
		if approved {
			err = h.approvals.Approve(r.Context(), id)
		} else {
			err = h.approvals.Reject(r.Context(), id)
		}
		if err != nil {
			h.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
