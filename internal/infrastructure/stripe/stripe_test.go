package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	dompayment "github.com/Zhima-Mochi/shophub/internal/domain/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripego "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

type fakeStripe struct {
	mu   sync.Mutex
	form map[string]string
}

func (f *fakeStripe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/payment_intents"):
		_ = r.ParseForm()
		f.mu.Lock()
		f.form = map[string]string{}
		for k := range r.PostForm {
			f.form[k] = r.PostForm.Get(k)
		}
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "pi_123",
			"object":        "payment_intent",
			"client_secret": "pi_123_secret_abc",
			"status":        "requires_payment_method",
			"amount":        1999,
			"currency":      "usd",
			"metadata":      map[string]string{MetadataOrderID: r.PostForm.Get("metadata[orderId]")},
		})
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/payment_intents/pi_123"):
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":       "pi_123",
			"object":   "payment_intent",
			"status":   "succeeded",
			"amount":   1999,
			"currency": "usd",
			"metadata": map[string]string{MetadataOrderID: "order-1"},
		})
	case r.Method == http.MethodGet && strings.Contains(r.URL.Path, "/payment_intents/"):
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such payment_intent"}}`))
	default:
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
	}
}

func newTestGateway(t *testing.T, h http.Handler) *Gateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	backend := stripego.GetBackendWithConfig(stripego.APIBackend, &stripego.BackendConfig{
		URL:               stripego.String(srv.URL),
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripego.Int64(0),
		LeveledLogger:     &stripego.LeveledLogger{Level: stripego.LevelNull},
	})
	return NewGatewayWithBackends("sk_test_123", &stripego.Backends{API: backend, Connect: backend, Uploads: backend})
}

func TestGatewayCreateIntent(t *testing.T) {
	fake := &fakeStripe{}
	g := newTestGateway(t, fake)

	intent, err := g.CreateIntent(context.Background(), dompayment.IntentRequest{
		Amount:   decimal.RequireFromString("19.99"),
		Currency: "usd",
		OrderID:  "order-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "pi_123_secret_abc", intent.ClientSecret)
	assert.Equal(t, dompayment.IntentRequiresPaymentMethod, intent.Status)
	assert.True(t, intent.Amount.Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, "order-1", intent.OrderID)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "1999", fake.form["amount"])
	assert.Equal(t, "usd", fake.form["currency"])
	assert.Equal(t, "true", fake.form["automatic_payment_methods[enabled]"])

	_, err = g.CreateIntent(context.Background(), dompayment.IntentRequest{Amount: decimal.Zero, Currency: "usd"})
	assert.ErrorIs(t, err, dompayment.ErrInvalidAmount)
}

func TestGatewayRetrieveIntent(t *testing.T) {
	g := newTestGateway(t, &fakeStripe{})
	ctx := context.Background()

	intent, err := g.RetrieveIntent(ctx, "pi_123")
	require.NoError(t, err)
	assert.True(t, intent.Succeeded())
	assert.Equal(t, "order-1", intent.OrderID)

	_, err = g.RetrieveIntent(ctx, "pi_nope")
	assert.ErrorIs(t, err, dompayment.ErrIntentNotFound)

	_, err = g.RetrieveIntent(ctx, "")
	assert.ErrorIs(t, err, dompayment.ErrIntentNotFound)
}

func TestGatewayServerErrorIsGatewayFailure(t *testing.T) {
	g := newTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"type":"api_error","message":"boom"}}`))
	}))

	_, err := g.RetrieveIntent(context.Background(), "pi_123")
	assert.ErrorIs(t, err, dompayment.ErrGateway)
}

func TestWebhookVerifier(t *testing.T) {
	v, err := NewWebhookVerifier("whsec_test")
	require.NoError(t, err)

	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.payment_failed",` +
		`"data":{"object":{"id":"pi_9","object":"payment_intent","metadata":{"orderId":"order-9"}}}}`)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: payload, Secret: "whsec_test"})

	evt, err := v.ParseEvent(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, dompayment.Event{ID: "evt_1", Type: dompayment.EventIntentFailed, IntentID: "pi_9", OrderID: "order-9"}, evt)

	other := []byte(`{"id":"evt_2","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`)
	signed = webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{Payload: other, Secret: "whsec_test"})
	evt, err = v.ParseEvent(signed.Payload, signed.Header)
	require.NoError(t, err)
	assert.Empty(t, evt.IntentID)

	_, err = v.ParseEvent(payload, "t=1,v1=deadbeef")
	assert.ErrorIs(t, err, dompayment.ErrInvalidSignature)

	_, err = NewWebhookVerifier("")
	assert.Error(t, err)
}
