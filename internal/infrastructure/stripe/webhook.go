package stripe

import (
	"encoding/json"
	"errors"
	"fmt"

	dompayment "github.com/Zhima-Mochi/shophub/internal/domain/payment"

	stripego "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// WebhookVerifier checks the Stripe-Signature header and decodes payment intent events.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) (*WebhookVerifier, error) {
	if secret == "" {
		return nil, errors.New("stripe: webhook secret is required")
	}
	return &WebhookVerifier{secret: secret}, nil
}

func (v *WebhookVerifier) ParseEvent(payload []byte, signature string) (dompayment.Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, v.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return dompayment.Event{}, fmt.Errorf("%w: %w", dompayment.ErrInvalidSignature, err)
	}

	out := dompayment.Event{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data == nil || len(evt.Data.Raw) == 0 {
		return out, nil
	}
	switch out.Type {
	case dompayment.EventIntentSucceeded, dompayment.EventIntentFailed:
		var pi stripego.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return dompayment.Event{}, fmt.Errorf("stripe: decode payment intent: %w", err)
		}
		out.IntentID = pi.ID
		out.OrderID = pi.Metadata[MetadataOrderID]
	}
	return out, nil
}
