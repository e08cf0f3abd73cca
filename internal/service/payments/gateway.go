package payments

import (
	"context"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"github.com/aledhemtek/BillingService/internal/domain"
)

// SimulatedGateway имитирует платёжный шлюз для карт и PayPal:
// списание проходит с заданной вероятностью, идентификатор транзакции
// генерируется локально. Реальная интеграция со Stripe подключается
// той же сигнатурой Charge.
type SimulatedGateway struct {
	successRate float64

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSimulatedGateway создает шлюз с заданной вероятностью успеха [0..1]
func NewSimulatedGateway(successRate float64, seed int64) *SimulatedGateway {
	if successRate <= 0 || successRate > 1 {
		successRate = 0.95
	}
	return &SimulatedGateway{
		successRate: successRate,
		rnd:         rand.New(rand.NewSource(seed)),
	}
}

// Charge имитирует списание по платежу
func (g *SimulatedGateway) Charge(_ context.Context, _ *domain.Payment) (string, bool) {
	g.mu.Lock()
	approved := g.rnd.Float64() < g.successRate
	g.mu.Unlock()
	return "TXN-" + uuid.NewString(), approved
}
