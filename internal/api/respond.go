package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"sitebuilder/internal/animation"
	"sitebuilder/internal/canvas"
	"sitebuilder/internal/domain"
	"sitebuilder/internal/layout"
	"sitebuilder/internal/service"
	"sitebuilder/internal/stylecmd"
)

// maxBody bounds request bodies; a full layout with inline content fits.
const maxBody = 4 << 20

var errBadRequest = errors.New("bad request")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps err onto a status code and writes it.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrApprovalNotFound),
		errors.Is(err, layout.ErrSectionNotFound),
		errors.Is(err, layout.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrRouteExists),
		errors.Is(err, service.ErrNothingToUndo),
		errors.Is(err, service.ErrNothingToRedo),
		errors.Is(err, service.ErrExportRunning):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, layout.ErrInvalidPath),
		errors.Is(err, layout.ErrInvariant),
		errors.Is(err, animation.ErrInvalidConfig),
		errors.Is(err, stylecmd.ErrNoMatch),
		errors.Is(err, canvas.ErrNotCanvas),
		errors.Is(err, canvas.ErrUnknownElement):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, maxBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}
