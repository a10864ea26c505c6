package api

import "net/http"

// AwardsHandler serves the awards catalog.
type AwardsHandler struct {
	deps Dependencies
}

// NewAwardsHandler creates an awards handler.
func NewAwardsHandler(deps Dependencies) *AwardsHandler {
	return &AwardsHandler{deps: deps}
}

// HandleGetAwards handles GET /awards requests.
func (h *AwardsHandler) HandleGetAwards(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	awards := h.deps.Awards(r.Context())
	writeJSON(w, http.StatusOK, awards)
}
