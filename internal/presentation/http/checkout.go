package httppresentation

import (
	"errors"
	"io"
	"net/http"

	"github.com/Zhima-Mochi/shophub/internal/application"
	apppayment "github.com/Zhima-Mochi/shophub/internal/application/payment"
	"github.com/Zhima-Mochi/shophub/internal/observability"
	"github.com/Zhima-Mochi/shophub/internal/observability/logctx"

	"github.com/shopspring/decimal"
)

const headerStripeSignature = "Stripe-Signature"

type createIntentRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	OrderID string          `json:"orderId,omitempty"`
}

type createIntentResponse struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
}

func (h *Handler) handleCreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid amount")
		return
	}
	res, err := h.svc.CreateIntent.Execute(r.Context(), apppayment.CreateIntentInput{
		Amount:  req.Amount,
		OrderID: req.OrderID,
	})
	if err != nil {
		if v, ok := application.AsValidation(err); ok {
			writeMessage(w, http.StatusBadRequest, v.Message)
			return
		}
		h.writeDomainError(w, r, err, "Failed to create payment intent")
		return
	}
	writeJSON(w, http.StatusOK, createIntentResponse{
		ClientSecret:    res.ClientSecret,
		PaymentIntentID: res.PaymentIntentID,
	})
}

// handleWebhook needs the exact bytes the provider signed, so the body is read raw.
// Signature failures answer 400 so the provider does not retry; storage failures answer 500 so it does.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Webhook error")
		return
	}

	res, err := h.svc.HandleWebhook.Execute(r.Context(), apppayment.HandleWebhookInput{
		Payload:   payload,
		Signature: r.Header.Get(headerStripeSignature),
	})
	if err != nil {
		if errors.Is(err, apppayment.ErrInvalidSignature) {
			logctx.FromOr(r.Context(), h.log).Warn("webhook_rejected", observability.F("error", err.Error()))
			writeMessage(w, http.StatusBadRequest, "Webhook error")
			return
		}
		h.writeDomainError(w, r, err, "Webhook processing failed")
		return
	}
	logctx.FromOr(r.Context(), h.log).Info("webhook_processed",
		observability.F("event_id", res.EventID),
		observability.F("event_type", res.EventType),
		observability.F("order_id", res.OrderID),
		observability.F("duplicate", res.Duplicate),
		observability.F("ignored", res.Ignored),
	)
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
