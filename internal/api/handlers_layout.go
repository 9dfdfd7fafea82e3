package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sitebuilder/internal/domain"
)

// Headers the editor sends with every request.
const (
	headerStore = "storeId"
	headerRoute = "selectedRoute"
	headerMode  = "activeMode"
)

// storeID reads the storeId header. A store-scoped token fixes the store
// and refuses any other.
func (h *handler) storeID(r *http.Request) (string, error) {
	return scopedStore(r.Context(), r.Header.Get(headerStore), h.defaultStore)
}

// docKey reads route and mode from the query, falling back to the editor
// headers and then to home/lg.
func (h *handler) docKey(r *http.Request) (domain.DocKey, error) {
	route := r.URL.Query().Get("route")
	if route == "" {
		route = r.Header.Get(headerRoute)
	}
	if route == "" {
		route = domain.HomeRoute
	}
	m := r.URL.Query().Get("mode")
	if m == "" {
		m = r.Header.Get(headerMode)
	}
	mode, err := domain.ParseMode(m)
	if err != nil {
		return domain.DocKey{}, err
	}
	store, err := h.storeID(r)
	if err != nil {
		return domain.DocKey{}, err
	}
	return domain.DocKey{StoreID: store, Route: route, Mode: mode}, nil
}

func (h *handler) getLayout(w http.ResponseWriter, r *http.Request) {
	key, err := h.docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	l, err := h.layouts.GetLayout(r.Context(), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *handler) saveLayout(w http.ResponseWriter, r *http.Request) {
	key, err := h.docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var l domain.Layout
	if err := decode(r, &l); err != nil {
		h.fail(w, r, err)
		return
	}
	saved, err := h.layouts.SaveLayout(r.Context(), key, &l)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type createSectionRequest struct {
	SectionName string `json:"sectionName"`
}

type sectionResponse struct {
	SectionID string         `json:"sectionId"`
	Layout    *domain.Layout `json:"layout"`
}

func (h *handler) createSection(w http.ResponseWriter, r *http.Request) {
	key, err := h.docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req createSectionRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.SectionName == "" {
		h.fail(w, r, fmt.Errorf("%w: sectionName is required", errBadRequest))
		return
	}
	l, id, err := h.layouts.CreateSection(r.Context(), key, req.SectionName)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sectionResponse{SectionID: id, Layout: l})
}

func (h *handler) deleteSection(w http.ResponseWriter, r *http.Request) {
	key, err := h.docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	l, err := h.layouts.DeleteSection(r.Context(), key, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type patchRequest struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

func (h *handler) patchSection(w http.ResponseWriter, r *http.Request) {
	key, err := h.docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req patchRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	l, err := h.layouts.PatchSection(r.Context(), key, chi.URLParam(r, "id"), req.Path, req.Value)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type moveRequest struct {
	Index *int `json:"index"`
}

func (h *handler) moveSection(w http.ResponseWriter, r *http.Request) {
	key, err := h.docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req moveRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Index == nil {
		h.fail(w, r, fmt.Errorf("%w: index is required", errBadRequest))
		return
	}
	l, err := h.layouts.MoveSection(r.Context(), key, chi.URLParam(r, "id"), *req.Index)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

type styleRequest struct {
	Instruction string `json:"instruction"`
}

type styleResponse struct {
	Applied map[string]any `json:"applied"`
	Layout  *domain.Layout `json:"layout"`
}

func (h *handler) styleSection(w http.ResponseWriter, r *http.Request) {
	key, err := h.docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req styleRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	l, applied, err := h.layouts.ApplyStyleInstruction(r.Context(), key, chi.URLParam(r, "id"), req.Instruction)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, styleResponse{Applied: applied, Layout: l})
}

type elementRequest struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

func (h *handler) addElement(w http.ResponseWriter, r *http.Request) {
	key, err := h.docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req elementRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	l, el, err := h.layouts.AddCanvasElement(r.Context(), key, chi.URLParam(r, "id"), req.Type, req.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"element": el, "layout": l})
}

func (h *handler) undo(w http.ResponseWriter, r *http.Request) {
	key, err := h.docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	l, err := h.layouts.Undo(r.Context(), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *handler) redo(w http.ResponseWriter, r *http.Request) {
	key, err := h.docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	l, err := h.layouts.Redo(r.Context(), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	key, err := h.docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tree, err := h.layouts.History(r.Context(), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (h *handler) outline(w http.ResponseWriter, r *http.Request) {
	key, err := h.docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out, err := h.layouts.Outline(r.Context(), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) stylesheet(w http.ResponseWriter, r *http.Request) {
	key, err := h.docKey(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	css, err := h.layouts.Stylesheet(r.Context(), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(css))
}
