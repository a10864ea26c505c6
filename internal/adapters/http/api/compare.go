package api

import (
	"net/http"
	"strings"
)

// CompareHandler handles multi-artist comparison requests.
type CompareHandler struct {
	deps Dependencies
}

// NewCompareHandler creates a compare handler.
func NewCompareHandler(deps Dependencies) *CompareHandler {
	return &CompareHandler{deps: deps}
}

// HandleCompare handles GET /compare?artists=a,b,c requests. Repeated
// artists parameters are accepted too.
func (h *CompareHandler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	const op = "api.compare"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	var names []string
	for _, raw := range r.URL.Query()["artists"] {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	writeJSON(w, http.StatusOK, h.deps.Compare(r.Context(), names))
}
