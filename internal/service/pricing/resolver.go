package pricing

import (
	"time"

	"github.com/aledhemtek/BillingService/internal/domain"
)

// Line пара (задача, количество) для расчёта суммы
type Line struct {
	Task     *domain.Task
	Quantity int
}

// Resolver вычисляет действующие цены задач по тарифам с временными окнами.
// Чистая функция над переданными данными, без побочных эффектов.
type Resolver struct{}

// NewResolver создает новый экземпляр резолвера цен
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolveUnitPrice возвращает действующую цену задачи на момент at.
// Из одновременно действующих тарифов выбирается минимальная цена —
// осознанная бизнес-политика, а не "последний выигрывает".
// Если действующих тарифов нет, возвращает 0.
func (r *Resolver) ResolveUnitPrice(task *domain.Task, at time.Time) float64 {
	if task == nil || len(task.Rates) == 0 {
		return 0
	}

	found := false
	min := 0.0

	for i := range task.Rates {
		rate := &task.Rates[i]
		if !rate.IsValidAt(at) {
			continue
		}
		if !found || rate.Price < min {
			min = rate.Price
			found = true
		}
	}

	if !found {
		return 0
	}
	return min
}

// ResolveTotal возвращает сумму по парам (задача, количество) на момент at
func (r *Resolver) ResolveTotal(lines []Line, at time.Time) float64 {
	total := 0.0
	for _, line := range lines {
		total += r.ResolveUnitPrice(line.Task, at) * float64(line.Quantity)
	}
	return total
}
