package api

import (
	"net/http"
	"net/url"
	"strings"
)

// ArtistsHandler serves the per-artist read endpoints.
type ArtistsHandler struct {
	deps Dependencies
}

// NewArtistsHandler creates an artists handler.
func NewArtistsHandler(deps Dependencies) *ArtistsHandler {
	return &ArtistsHandler{deps: deps}
}

// HandleArtist handles GET /artists/{name}/albums and
// GET /artists/{name}/trajectory requests.
func (h *ArtistsHandler) HandleArtist(w http.ResponseWriter, r *http.Request) {
	const op = "api.artist"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/artists/")
	name, view, ok := strings.Cut(rest, "/")
	if !ok || name == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if decoded, err := url.PathUnescape(name); err == nil {
		name = decoded
	}

	switch view {
	case "albums":
		cmp := h.deps.AlbumsFor(r.Context(), name)
		if cmp == nil {
			writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
			return
		}
		writeJSON(w, http.StatusOK, cmp)
	case "trajectory":
		points := h.deps.Trajectory(r.Context(), name)
		if points == nil {
			writeError(w, http.StatusNotFound, "not_found", NewKind(op, ErrNotFound))
			return
		}
		writeJSON(w, http.StatusOK, points)
	default:
		http.NotFound(w, r)
	}
}
