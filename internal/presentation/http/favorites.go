package httppresentation

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Favorites.List(r.Context(), principalID(r))
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to fetch favorites")
		return
	}
	writeJSON(w, http.StatusOK, newProductResponses(products))
}

func (h *Handler) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	created, err := h.svc.Favorites.Add(r.Context(), principalID(r), chi.URLParam(r, "productId"))
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to add to favorites")
		return
	}
	if !created {
		writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Already in favorites"})
		return
	}
	writeJSON(w, http.StatusCreated, successResponse{Success: true})
}

func (h *Handler) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Favorites.Remove(r.Context(), principalID(r), chi.URLParam(r, "productId")); err != nil {
		h.writeDomainError(w, r, err, "Failed to remove from favorites")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) handleCheckFavorite(w http.ResponseWriter, r *http.Request) {
	ok, err := h.svc.Favorites.Check(r.Context(), principalID(r), chi.URLParam(r, "productId"))
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to check favorite")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"isFavorite": ok})
}
