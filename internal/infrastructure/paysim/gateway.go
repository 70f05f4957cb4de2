package paysim

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	dompayment "github.com/Zhima-Mochi/shophub/internal/domain/payment"

	"github.com/google/uuid"
)

const (
	DefaultSuccessRate = 0.7

	// createdBacklog bounds intents waiting for a Notifier; past it new intents are settled
	// only by lookups.
	createdBacklog = 256
)

// Gateway simulates a payment provider in process. An intent stays open until it is first
// retrieved, at which point it succeeds with the configured probability or is canceled.
type Gateway struct {
	mu          sync.Mutex
	random      *rand.Rand
	successRate float64
	intents     map[string]dompayment.Intent
	created     chan string
}

func NewGateway() *Gateway {
	return &Gateway{
		random:      rand.New(rand.NewSource(time.Now().UnixNano())),
		successRate: DefaultSuccessRate,
		intents:     make(map[string]dompayment.Intent),
		created:     make(chan string, createdBacklog),
	}
}

func (g *Gateway) CreateIntent(ctx context.Context, req dompayment.IntentRequest) (dompayment.Intent, error) {
	if err := ctx.Err(); err != nil {
		return dompayment.Intent{}, err
	}
	if !req.Amount.IsPositive() {
		return dompayment.Intent{}, dompayment.ErrInvalidAmount
	}
	id := "pi_sim_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	intent := dompayment.Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16],
		Status:       dompayment.IntentRequiresPaymentMethod,
		Amount:       req.Amount,
		Currency:     req.Currency,
		OrderID:      req.OrderID,
	}

	g.mu.Lock()
	g.intents[id] = intent
	g.mu.Unlock()

	select {
	case g.created <- id:
	default:
	}
	return intent, nil
}

func (g *Gateway) RetrieveIntent(ctx context.Context, id string) (dompayment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	// respect cancellation even though this is mocked
	if err := ctx.Err(); err != nil {
		return dompayment.Intent{}, err
	}

	intent, ok := g.intents[id]
	if !ok {
		return dompayment.Intent{}, dompayment.ErrIntentNotFound
	}
	if intent.Status == dompayment.IntentRequiresPaymentMethod {
		if g.random.Float64() < g.successRate {
			intent.Status = dompayment.IntentSucceeded
		} else {
			intent.Status = dompayment.IntentCanceled
		}
		g.intents[id] = intent
	}
	return intent, nil
}

// SetSuccessRate sets the share of intents that succeed, clamped to [0, 1].
func (g *Gateway) SetSuccessRate(rate float64) {
	g.mu.Lock()
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	g.successRate = rate
	g.mu.Unlock()
}
