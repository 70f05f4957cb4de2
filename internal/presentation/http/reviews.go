package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/shophub/internal/application"
	appreview "github.com/Zhima-Mochi/shophub/internal/application/review"

	"github.com/go-chi/chi/v5"
)

type reviewStatsResponse struct {
	AverageRating float64 `json:"averageRating"`
	TotalReviews  int     `json:"totalReviews"`
}

type reviewListResponse struct {
	Reviews    []reviewResponse       `json:"reviews"`
	Stats      reviewStatsResponse    `json:"stats"`
	Pagination application.Pagination `json:"pagination"`
}

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handler) handleListReviews(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Reviews.List(r.Context(), appreview.ListInput{
		ProductID: chi.URLParam(r, "productId"),
		Page:      pageRequest(r),
	})
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to fetch reviews")
		return
	}
	out := reviewListResponse{
		Reviews: make([]reviewResponse, 0, len(res.Reviews)),
		Stats: reviewStatsResponse{
			AverageRating: res.Stats.AverageRating,
			TotalReviews:  res.Stats.TotalReviews,
		},
		Pagination: res.Pagination,
	}
	for _, rv := range res.Reviews {
		out.Reviews = append(out.Reviews, newReviewResponse(rv))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err, "Failed to create review")
		return
	}
	rv, err := h.svc.Reviews.Create(r.Context(), appreview.CreateInput{
		ProductID: chi.URLParam(r, "productId"),
		WriteInput: appreview.WriteInput{
			UserID:  principalID(r),
			Rating:  req.Rating,
			Comment: req.Comment,
		},
	})
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to create review")
		return
	}
	writeJSON(w, http.StatusCreated, newReviewResponse(rv))
}

func (h *Handler) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err, "Failed to update review")
		return
	}
	rv, err := h.svc.Reviews.Update(r.Context(), appreview.UpdateInput{
		ReviewID: chi.URLParam(r, "id"),
		WriteInput: appreview.WriteInput{
			UserID:  principalID(r),
			Rating:  req.Rating,
			Comment: req.Comment,
		},
	})
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to update review")
		return
	}
	writeJSON(w, http.StatusOK, newReviewResponse(rv))
}

func (h *Handler) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Reviews.Delete(r.Context(), appreview.DeleteInput{
		ReviewID: chi.URLParam(r, "id"),
		UserID:   principalID(r),
	})
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to delete review")
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
