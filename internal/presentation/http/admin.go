package httppresentation

import "net/http"

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Stats.Execute(r.Context(), struct{}{})
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to fetch stats")
		return
	}
	writeJSON(w, http.StatusOK, newStatsResponse(s))
}
