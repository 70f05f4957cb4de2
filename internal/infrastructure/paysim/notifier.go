package paysim

import (
	"context"
	"fmt"
	"sync"
	"time"

	dompayment "github.com/Zhima-Mochi/shophub/internal/domain/payment"
	"github.com/Zhima-Mochi/shophub/internal/observability"
)

// DeliverFunc hands one signed webhook delivery to the receiving endpoint.
type DeliverFunc func(ctx context.Context, payload []byte, signature string) error

// Notifier plays the provider's side of the webhook contract for a Gateway: each intent is
// settled some delay after it is created and the outcome is delivered as a signed event.
type Notifier struct {
	gateway *Gateway
	secret  string
	delay   time.Duration
	deliver DeliverFunc
	log     observability.Logger
}

func NewNotifier(g *Gateway, secret string, delay time.Duration, deliver DeliverFunc, log observability.Logger) *Notifier {
	if secret == "" {
		secret = DefaultWebhookSecret
	}
	if log == nil {
		log = observability.NopLogger()
	}
	return &Notifier{gateway: g, secret: secret, delay: delay, deliver: deliver, log: log}
}

// Run delivers events for created intents until ctx is done, then waits for in-flight deliveries.
func (n *Notifier) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	n.log.Info("payment_simulator_start", observability.F("delay", n.delay.String()))
	for {
		select {
		case <-ctx.Done():
			n.log.Info("payment_simulator_stop")
			return nil
		case id := <-n.gateway.created:
			wg.Add(1)
			go func() {
				defer wg.Done()
				n.notifyAfter(ctx, id)
			}()
		}
	}
}

func (n *Notifier) notifyAfter(ctx context.Context, id string) {
	timer := time.NewTimer(n.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	if err := n.Notify(ctx, id); err != nil {
		n.log.Warn("payment_simulator_delivery_failed",
			observability.F("payment_intent_id", id),
			observability.F("error", err.Error()),
		)
	}
}

// Notify settles intent id and delivers the matching event. Settling is the same sticky
// decision RetrieveIntent makes, so a later lookup agrees with the delivered event.
func (n *Notifier) Notify(ctx context.Context, id string) error {
	intent, err := n.gateway.RetrieveIntent(ctx, id)
	if err != nil {
		return err
	}
	eventType := dompayment.EventIntentFailed
	if intent.Succeeded() {
		eventType = dompayment.EventIntentSucceeded
	}
	payload, signature, err := SignEvent(n.secret, eventType, intent)
	if err != nil {
		return err
	}
	if err := n.deliver(ctx, payload, signature); err != nil {
		return fmt.Errorf("paysim: deliver %s: %w", eventType, err)
	}
	n.log.Debug("payment_simulator_delivered",
		observability.F("payment_intent_id", id),
		observability.F("event_type", eventType),
	)
	return nil
}
