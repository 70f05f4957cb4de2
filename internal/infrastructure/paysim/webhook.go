package paysim

import (
	"encoding/json"
	"fmt"
	"time"

	dompayment "github.com/Zhima-Mochi/shophub/internal/domain/payment"
	"github.com/Zhima-Mochi/shophub/internal/infrastructure/stripe"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79/webhook"
)

// DefaultWebhookSecret signs simulated deliveries when no provider secret is configured.
const DefaultWebhookSecret = "whsec_simulated"

type eventEnvelope struct {
	ID         string `json:"id"`
	Object     string `json:"object"`
	Type       string `json:"type"`
	Created    int64  `json:"created"`
	APIVersion string `json:"api_version"`
	Data       struct {
		Object intentObject `json:"object"`
	} `json:"data"`
}

type intentObject struct {
	ID       string            `json:"id"`
	Object   string            `json:"object"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

// SignEvent builds a provider-shaped webhook delivery for intent and signs it with secret.
// It returns the body and the matching Stripe-Signature header value.
func SignEvent(secret, eventType string, intent dompayment.Intent) ([]byte, string, error) {
	var env eventEnvelope
	env.ID = "evt_sim_" + uuid.NewString()
	env.Object = "event"
	env.Type = eventType
	env.Created = time.Now().Unix()
	env.Data.Object = intentObject{
		ID:       intent.ID,
		Object:   "payment_intent",
		Status:   string(intent.Status),
		Metadata: map[string]string{stripe.MetadataOrderID: intent.OrderID},
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, "", fmt.Errorf("paysim: encode event: %w", err)
	}
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: body,
		Secret:  secret,
	})
	return signed.Payload, signed.Header, nil
}
