package paysim

import (
	"context"
	"testing"

	dompayment "github.com/Zhima-Mochi/shophub/internal/domain/payment"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/stripe"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(amount string) dompayment.IntentRequest {
	return dompayment.IntentRequest{Amount: decimal.RequireFromString(amount), Currency: "usd", OrderID: "order-1"}
}

func TestGatewayOutcomeIsSticky(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		rate float64
		want dompayment.IntentStatus
	}{
		{rate: 1, want: dompayment.IntentSucceeded},
		{rate: 0, want: dompayment.IntentCanceled},
	} {
		g := NewGateway()
		g.SetSuccessRate(tc.rate)

		created, err := g.CreateIntent(ctx, request("19.99"))
		require.NoError(t, err)
		assert.Equal(t, dompayment.IntentRequiresPaymentMethod, created.Status)
		assert.Contains(t, created.ClientSecret, created.ID+"_secret_")

		first, err := g.RetrieveIntent(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, first.Status)

		g.SetSuccessRate(1 - tc.rate)
		again, err := g.RetrieveIntent(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, tc.want, again.Status, "outcome decided once")
		assert.Equal(t, "order-1", again.OrderID)
	}
}

func TestGatewayErrors(t *testing.T) {
	g := NewGateway()

	_, err := g.CreateIntent(context.Background(), request("0"))
	assert.ErrorIs(t, err, dompayment.ErrInvalidAmount)

	_, err = g.RetrieveIntent(context.Background(), "pi_missing")
	assert.ErrorIs(t, err, dompayment.ErrIntentNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.CreateIntent(ctx, request("1"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSignEventVerifies(t *testing.T) {
	verifier, err := stripe.NewWebhookVerifier(DefaultWebhookSecret)
	require.NoError(t, err)
	intent := dompayment.Intent{ID: "pi_sim_1", Status: dompayment.IntentSucceeded, OrderID: "order-1"}

	body, sig, err := SignEvent(DefaultWebhookSecret, dompayment.EventIntentSucceeded, intent)
	require.NoError(t, err)

	evt, err := verifier.ParseEvent(body, sig)
	require.NoError(t, err)
	assert.Equal(t, dompayment.EventIntentSucceeded, evt.Type)
	assert.Equal(t, "pi_sim_1", evt.IntentID)
	assert.Equal(t, "order-1", evt.OrderID)
	assert.NotEmpty(t, evt.ID)

	_, sig, err = SignEvent("whsec_other", dompayment.EventIntentSucceeded, intent)
	require.NoError(t, err)
	_, err = verifier.ParseEvent(body, sig)
	assert.ErrorIs(t, err, dompayment.ErrInvalidSignature)
}
