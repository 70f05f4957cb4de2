package httppresentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Zhima-Mochi/shophub/internal/application"
	appaccount "github.com/Zhima-Mochi/shophub/internal/application/account"
	apporder "github.com/Zhima-Mochi/shophub/internal/application/order"
	appreview "github.com/Zhima-Mochi/shophub/internal/application/review"
	domcatalog "github.com/Zhima-Mochi/shophub/internal/domain/catalog"
	domorder "github.com/Zhima-Mochi/shophub/internal/domain/order"
	dompayment "github.com/Zhima-Mochi/shophub/internal/domain/payment"
	domreview "github.com/Zhima-Mochi/shophub/internal/domain/review"
	"github.com/Zhima-Mochi/shophub/internal/observability"
	"github.com/Zhima-Mochi/shophub/internal/observability/logctx"
)

const headerIdempotencyKey = "Idempotency-Key"

type errorBody struct {
	Error   string                   `json:"error"`
	Details []application.FieldError `json:"details,omitempty"`
}

// errMalformedBody answers bodies that are not exactly one JSON value of the expected shape.
var errMalformedBody = application.NewValidation("Validation failed",
	application.FieldError{Field: "body", Message: "must be a valid JSON object"},
)

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) {
			return application.NewValidation("Validation failed",
				application.FieldError{Field: ute.Field, Message: "has the wrong type"},
			)
		}
		return errMalformedBody
	}
	if decoder.More() {
		return errMalformedBody
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeDomainError maps use case errors onto HTTP responses. fallback is the message used for
// unexpected failures, which are logged and never echoed to the client.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if v, ok := application.AsValidation(err); ok {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: v.Message, Details: v.Details})
		return
	}

	status, msg := classify(err)
	if status == 0 {
		status, msg = http.StatusInternalServerError, fallback
	}
	if status >= http.StatusInternalServerError {
		logctx.FromOr(r.Context(), h.log).Error("http_request_failed",
			observability.F("route", patternFromContext(r.Context())),
			observability.F("status", status),
			observability.F("error", err.Error()),
		)
	}
	writeMessage(w, status, msg)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apporder.ErrProductNotFound):
		return http.StatusBadRequest, "One or more products not found"
	case errors.Is(err, domcatalog.ErrInsufficientStock):
		return http.StatusConflict, "Insufficient stock"
	case errors.Is(err, domcatalog.ErrNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, domorder.ErrNotFound):
		return http.StatusNotFound, "Order not found"
	case errors.Is(err, domorder.ErrAlreadyPaid):
		return http.StatusConflict, "Order already paid"
	case errors.Is(err, apporder.ErrIdempotencyKeyReused):
		return http.StatusUnprocessableEntity, "Idempotency-Key was already used for a different request"
	case errors.Is(err, domorder.ErrPaymentRefTaken):
		return http.StatusConflict, "Payment is already linked to another order"
	case errors.Is(err, domorder.ErrConflict):
		return http.StatusConflict, "Order conflict, please retry"
	case errors.Is(err, domreview.ErrNotFound):
		return http.StatusNotFound, "Review not found"
	case errors.Is(err, appreview.ErrNotAuthor):
		return http.StatusForbidden, "Not authorized"
	case errors.Is(err, appreview.ErrAlreadyReviewed):
		return http.StatusBadRequest, "You have already reviewed this product"
	case errors.Is(err, appaccount.ErrEmailTaken):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, appaccount.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, appaccount.ErrWrongPassword):
		return http.StatusBadRequest, "Current password is incorrect"
	case errors.Is(err, appaccount.ErrInvalidTokenType):
		return http.StatusUnauthorized, "Invalid token type"
	case errors.Is(err, appaccount.ErrInvalidToken):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, appaccount.ErrNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, dompayment.ErrInvalidSignature):
		return http.StatusBadRequest, "Webhook error"
	case errors.Is(err, dompayment.ErrGateway):
		return http.StatusBadGateway, "Payment provider unavailable"
	}
	return 0, ""
}

// pageRequest reads ?page= and ?limit=; anything unparsable falls back to the defaults.
func pageRequest(r *http.Request) application.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return application.PageRequest{Page: page, Limit: limit}
}

func principalID(r *http.Request) string {
	p, _ := principalFrom(r.Context())
	return p.ID
}
