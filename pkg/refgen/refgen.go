package refgen

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Generator выдает человекочитаемые номера вида PREFIX-YYYYMM-nnnnnn.
// Суффикс берется из монотонного счётчика, посеянного от времени запуска,
// поэтому номера локально уникальны между перезапусками. Коллизия на
// уникальном индексе БД — ожидаемое событие, которое вызывающий код
// разрешает повторной генерацией, а не фатальная ошибка.
type Generator struct {
	prefix  string
	counter atomic.Uint64
}

// NewGenerator создает генератор номеров с заданным префиксом,
// посеянный от переданного момента времени
func NewGenerator(prefix string, seed time.Time) *Generator {
	g := &Generator{prefix: prefix}
	g.counter.Store(uint64(seed.UnixMilli()) % 1000000)
	return g
}

// Next возвращает следующий номер; месяц берется из now
func (g *Generator) Next(now time.Time) string {
	n := g.counter.Add(1) % 1000000
	return fmt.Sprintf("%s-%s-%06d", g.prefix, now.Format("200601"), n)
}
