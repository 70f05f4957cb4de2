package httppresentation

import (
	"net/http"
	"strings"

	"github.com/Zhima-Mochi/shophub/internal/application"
	apporder "github.com/Zhima-Mochi/shophub/internal/application/order"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"

	"github.com/go-chi/chi/v5"
)

type orderLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type placeOrderRequest struct {
	CustomerEmail   string             `json:"customerEmail"`
	CustomerName    string             `json:"customerName"`
	CustomerPhone   string             `json:"customerPhone"`
	ShippingAddress string             `json:"shippingAddress"`
	ShippingCity    string             `json:"shippingCity"`
	ShippingZip     string             `json:"shippingZip"`
	ShippingCountry string             `json:"shippingCountry"`
	Items           []orderLineRequest `json:"items"`
	StripePaymentID string             `json:"stripePaymentId,omitempty"`
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err, "Failed to create order")
		return
	}

	lines := make([]apporder.LineInput, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, apporder.LineInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	order, err := h.svc.PlaceOrder.Execute(r.Context(), apporder.PlaceOrderInput{
		IdempotencyKey: strings.TrimSpace(r.Header.Get(headerIdempotencyKey)),
		UserID:         principalID(r),
		Customer: domorder.Customer{
			Email:           strings.TrimSpace(req.CustomerEmail),
			Name:            req.CustomerName,
			Phone:           req.CustomerPhone,
			ShippingAddress: req.ShippingAddress,
			ShippingCity:    req.ShippingCity,
			ShippingZip:     req.ShippingZip,
			ShippingCountry: req.ShippingCountry,
		},
		Items:      lines,
		PaymentRef: req.StripePaymentID,
	})
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to create order")
		return
	}
	writeJSON(w, http.StatusCreated, newOrderResponse(order))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, apporder.GetOrderInput{OrderID: chi.URLParam(r, "id")})
}

func (h *Handler) handleUserOrder(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, apporder.GetOrderInput{OrderID: chi.URLParam(r, "id"), OwnerID: principalID(r)})
}

func (h *Handler) handleAdminOrder(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, apporder.GetOrderInput{OrderID: chi.URLParam(r, "id")})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, in apporder.GetOrderInput) {
	order, err := h.svc.GetOrder.Execute(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to fetch order")
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}

type orderListResponse struct {
	Orders     []orderResponse        `json:"orders"`
	Pagination application.Pagination `json:"pagination"`
}

func (h *Handler) handleUserOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, h.svc.UserOrders, apporder.ListOrdersInput{
		UserID: principalID(r),
		Page:   pageRequest(r),
	})
}

func (h *Handler) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.listOrders(w, r, h.svc.AdminOrders, apporder.ListOrdersInput{
		Status:        q.Get("status"),
		PaymentStatus: q.Get("paymentStatus"),
		Search:        q.Get("search"),
		Page:          pageRequest(r),
	})
}

func (h *Handler) listOrders(
	w http.ResponseWriter,
	r *http.Request,
	uc application.UseCase[apporder.ListOrdersInput, *apporder.ListOrdersResult],
	in apporder.ListOrdersInput,
) {
	res, err := uc.Execute(r.Context(), in)
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to fetch orders")
		return
	}
	writeJSON(w, http.StatusOK, orderListResponse{
		Orders:     newOrderResponses(res.Orders),
		Pagination: res.Pagination,
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeDomainError(w, r, err, "Failed to update order status")
		return
	}
	order, err := h.svc.UpdateStatus.Execute(r.Context(), apporder.UpdateStatusInput{
		OrderID: chi.URLParam(r, "id"),
		Status:  req.Status,
	})
	if err != nil {
		h.writeDomainError(w, r, err, "Failed to update order status")
		return
	}
	writeJSON(w, http.StatusOK, newOrderResponse(order))
}
